package controllers

import (
	"net/http"
	"strings"
	"time"

	"Gin_postgres_redis_loan_manager/app"
	"Gin_postgres_redis_loan_manager/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthController is the hand-off point to the external authenticator.
// This service never verifies credentials itself: either the gateway vouches
// for an identity (IssueSession) or a one-time invite token does (Register).
type AuthController struct{ *Srv }

func GetAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

// POST /auth/session  (called by the auth gateway, not by browsers)
func (ac *AuthController) IssueSession(c *gin.Context) {
	if ac.Cfg.GatewayToken == "" || c.GetHeader("X-Auth-Gateway-Token") != ac.Cfg.GatewayToken {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}

	var in struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	u, err := ac.Repo.FindUserByEmail(c.Request.Context(), in.Email)
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "unknown user"})
		return
	}

	if err := ac.issueSession(c.Request.Context(), c.Writer, u.ID, u.Email, c.ClientIP(), c.Request.UserAgent()); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

// POST /auth/register  (invite token -> account + session)
func (ac *AuthController) Register(c *gin.Context) {
	var in struct {
		InviteToken string `json:"inviteToken" binding:"required"`
		DisplayName string `json:"displayName"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	inv, err := ac.Repo.GetInviteByToken(c.Request.Context(), in.InviteToken)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid invite"})
		return
	}
	if inv.UsedAt != nil || time.Now().After(inv.ExpiresAt) {
		c.JSON(http.StatusBadRequest, app.H{"error": "invite expired or already used"})
		return
	}

	email := strings.ToLower(inv.Email)
	if _, err := ac.Repo.FindUserByEmail(c.Request.Context(), email); err == nil {
		c.JSON(http.StatusConflict, app.H{"error": "account already exists"})
		return
	} else if err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		name = email
	}
	u := &models.User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: name,
		Role:        inv.Role,
	}
	if err := ac.Repo.CreateUser(c.Request.Context(), u); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	if err := ac.Repo.MarkInviteUsed(c.Request.Context(), in.InviteToken); err != nil {
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
		return
	}

	if err := ac.issueSession(c.Request.Context(), c.Writer, u.ID, u.Email, c.ClientIP(), c.Request.UserAgent()); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, app.H{"user": u})
}

// GET /auth/whoami
func (ac *AuthController) Whoami(c *gin.Context) {
	v, _ := c.Get("userID")
	uid, _ := v.(string)
	u, err := ac.Repo.FindUserByID(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

// POST /auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = ac.AppSess.Delete(c.Request.Context(), ck.Value)
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   strings.HasPrefix(ac.WebOrigin, "https://"),
	})
	c.JSON(http.StatusOK, app.H{"ok": true})
}
