package app

import (
	"Gin_postgres_redis_loan_manager/db"
	"Gin_postgres_redis_loan_manager/models"
	"Gin_postgres_redis_loan_manager/session"
	"net/http"

	"github.com/gin-gonic/gin"
)

const AppSessionCookie = "app_session"

// AuthRequired resolves the session cookie to a live user and puts the
// identity into the request context. The user row is read fresh each request
// so role changes and deletions bite immediately.
func AuthRequired(appSess *session.AppSessionStore, repo *db.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(AppSessionCookie)
		if err != nil || ck.Value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		as, err := appSess.Get(c.Request.Context(), ck.Value)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}

		u, err := repo.FindUserByID(c.Request.Context(), as.UserID)
		if err != nil {
			_ = appSess.Delete(c.Request.Context(), ck.Value)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}

		c.Set("userID", u.ID)
		c.Set("email", u.Email)
		c.Set("role", u.Role)

		c.Next()
	}
}

// AdminOnly gates the administrative surface. Loan transitions are NOT gated
// here; the engine's policy table is their single authority.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentRole(c) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentRole returns the role AuthRequired stored, or "" before auth ran.
func CurrentRole(c *gin.Context) models.Role {
	if v, ok := c.Get("role"); ok {
		if r, ok := v.(models.Role); ok {
			return r
		}
	}
	return ""
}

// CurrentEmail returns the authenticated user's email, or "".
func CurrentEmail(c *gin.Context) string {
	if v, ok := c.Get("email"); ok {
		if e, ok := v.(string); ok {
			return e
		}
	}
	return ""
}
