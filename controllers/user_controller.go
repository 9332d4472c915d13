package controllers

import (
	"net/http"
	"strconv"

	"Gin_postgres_redis_loan_manager/app"
	"Gin_postgres_redis_loan_manager/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserController struct{ *Srv }

func GetUserController(s *Srv) *UserController { return &UserController{Srv: s} }

// GET /api/users?q=alice&page=1&size=20
func (uc *UserController) ListUsers(c *gin.Context) {
	q := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := uc.Repo.ListUsers(c.Request.Context(), q, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, app.H{
		"total": res.Total,
		"users": res.Users,
	})
}

// GET /api/users/:id
func (uc *UserController) GetUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return
	}
	user, err := uc.Repo.FindUserByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, app.H{"user": user})
}

// DELETE /api/users/:id
func (uc *UserController) DeleteUser(c *gin.Context) {
	id := c.Param("id")

	// Deleting yourself would lock the instance out
	if v, ok := c.Get("userID"); ok {
		if uid, _ := v.(string); uid == id {
			c.JSON(http.StatusBadRequest, app.H{"error": "cannot delete yourself"})
			return
		}
	}

	target, err := uc.Repo.FindUserByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	if target.Role == models.RoleAdmin {
		c.JSON(http.StatusForbidden, app.H{"error": "cannot delete an admin"})
		return
	}

	// The user's loan requests and their history stay: the audit trail
	// outlives the account.
	if err := uc.Repo.DeleteUserByID(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	_ = uc.AppSess.RevokeAllForUser(c.Request.Context(), id)
	c.JSON(http.StatusOK, app.H{"ok": true})
}
