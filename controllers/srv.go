// controllers/srv.go
package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"Gin_postgres_redis_loan_manager/app"
	"Gin_postgres_redis_loan_manager/db"
	"Gin_postgres_redis_loan_manager/loan"
	"Gin_postgres_redis_loan_manager/notify"
	"Gin_postgres_redis_loan_manager/session"

	"github.com/google/uuid"
)

type Srv struct {
	Repo      *db.Repo
	AppSess   *session.AppSessionStore
	Engine    *loan.Engine
	Mailer    *notify.Mailer
	WebOrigin string
	Cfg       app.Config
}

func GetSrv(a *app.App, mailer *notify.Mailer) *Srv {
	repo := db.NewRepo(a.DB)
	return &Srv{
		Repo:      repo,
		AppSess:   a.AppSessions(),
		Engine:    loan.NewEngine(repo, mailer),
		Mailer:    mailer,
		WebOrigin: a.Config.WebOrigin,
		Cfg:       a.Config,
	}
}

// --- helpers ---

func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

// issueSession creates the redis session, sets the cookie and records the
// login snapshot. The snapshot is best-effort.
func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, userID, email, ip, ua string) error {
	_ = s.Repo.TouchUserLogin(ctx, userID, ip, ua)
	id := uuid.NewString()
	if err := s.AppSess.Create(ctx, id, userID, email); err != nil {
		return err
	}
	s.setAppCookie(w, id, s.Cfg.SessionTTL)
	return nil
}
