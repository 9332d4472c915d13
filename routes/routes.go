package routes

import (
	"Gin_postgres_redis_loan_manager/app"
	"Gin_postgres_redis_loan_manager/controllers"
	"Gin_postgres_redis_loan_manager/notify"
	"time"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App, mailer *notify.Mailer) {
	s := controllers.GetSrv(a, mailer)
	authCtl := controllers.GetAuthController(s)
	uc := controllers.GetUserController(s)
	equipCtl := controllers.NewEquipmentController(s)
	loanCtl := controllers.NewLoanController(s)
	inviteCtl := controllers.GetInviteController(s)

	authMW := app.AuthRequired(s.AppSess, s.Repo)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute)

	// ------------------------------
	// Auth hand-off (external authenticator / invites)
	// ------------------------------
	auth := r.Group("/auth")
	{
		auth.POST("/session", authCtl.IssueSession) // gateway token protected
		auth.POST("/register", authCtl.Register)    // invite token protected
	}
	authed := auth.Group("", authMW, seenMW)
	{
		authed.GET("/whoami", authCtl.Whoami)
		authed.POST("/logout", authCtl.Logout)
	}

	// ------------------------------
	// Invites (admin only)
	// ------------------------------
	admin := r.Group("/admin", authMW, adminMW)
	{
		admin.POST("/invites", inviteCtl.CreateInvite)
	}

	// ------------------------------
	// User administration (admin only)
	// ------------------------------
	users := r.Group("/api/users", authMW, adminMW)
	{
		users.GET("", uc.ListUsers) // ?q=&page=&size=
		users.GET("/:id", uc.GetUser)
		users.DELETE("/:id", uc.DeleteUser)
	}

	// ------------------------------
	// Equipment catalog
	// ------------------------------
	equipAdmin := r.Group("/api/equipment", authMW, adminMW)
	{
		equipAdmin.POST("", equipCtl.Create)
	}
	equip := r.Group("/api/equipment", authMW, seenMW)
	{
		equip.GET("", equipCtl.List) // ?q=&page=&size=
		equip.GET("/:id", equipCtl.Get)
		equip.GET("/:id/availability", equipCtl.Availability)
	}

	// ------------------------------
	// Loan lifecycle (role gating lives in the engine's policy table)
	// ------------------------------
	loans := r.Group("/api/loans", authMW, seenMW)
	{
		loans.POST("", loanCtl.Create)
		loans.GET("", loanCtl.List) // ?status=&equipmentId=&view=mine|managed|all
		loans.GET("/:id", loanCtl.Get)
		loans.GET("/:id/history", loanCtl.History)

		loans.POST("/:id/approve", loanCtl.Approve)
		loans.POST("/:id/refuse", loanCtl.Refuse)
		loans.POST("/:id/borrow", loanCtl.Borrow)
		loans.POST("/:id/return", loanCtl.Return)
	}
}
