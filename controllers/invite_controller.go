package controllers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"Gin_postgres_redis_loan_manager/app"
	"Gin_postgres_redis_loan_manager/models"

	"github.com/gin-gonic/gin"
)

type InviteController struct{ *Srv }

func GetInviteController(s *Srv) *InviteController { return &InviteController{Srv: s} }

// POST /admin/invites
func (ic *InviteController) CreateInvite(c *gin.Context) {
	var in struct {
		Email   string `json:"email" binding:"required,email"`
		Role    string `json:"role"`
		Expires int    `json:"expiresDays"` // default 1 day
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if in.Expires <= 0 {
		in.Expires = 1
	}
	role := models.Role(in.Role)
	if in.Role == "" {
		role = models.RoleEtudiant
	}
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, app.H{"error": "unknown role"})
		return
	}

	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	token := hex.EncodeToString(buf)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	inv, err := ic.Repo.CreateInvite(
		ctx,
		strings.ToLower(in.Email),
		token,
		role,
		time.Now().AddDate(0, 0, in.Expires),
		app.CurrentEmail(c),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	link := strings.TrimRight(ic.WebOrigin, "/") + "/login?inviteToken=" + token

	if err := ic.sendInviteMail(in.Email, link, string(role), in.Expires); err != nil {
		log.Printf("[invite email] send failed: %v", err)
	}

	c.JSON(http.StatusCreated, app.H{
		"token":  token,
		"link":   link, // handy in dev, click it directly
		"invite": inv,
	})
}

func (ic *InviteController) sendInviteMail(toEmail, link, role string, expiresDays int) error {
	subject := "You have been invited to the equipment loan service"
	html := fmt.Sprintf(`
<div style="font-family:Arial,sans-serif; font-size:14px; color:#222">
  <p>Hello,</p>
  <p>You have been invited as <b>%s</b>. Click the button below to create your account:</p>
  <p>
    <a href="%s" style="display:inline-block; padding:10px 16px; background:#2563EB; color:#fff; text-decoration:none; border-radius:6px;">
      Accept Invitation
    </a>
  </p>
  <p>Or open this link directly:</p>
  <p><a href="%s">%s</a></p>
  <p>This invitation will expire in %d day(s).</p>
  <hr/>
  <p style="color:#666">If you did not expect this email, you can safely ignore it.</p>
</div>
`, role, link, link, link, expiresDays)

	return ic.Mailer.SendMail(toEmail, subject, html)
}
