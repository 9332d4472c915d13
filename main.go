package main

import (
	"Gin_postgres_redis_loan_manager/app"
	"Gin_postgres_redis_loan_manager/config"
	"Gin_postgres_redis_loan_manager/db"
	"Gin_postgres_redis_loan_manager/notify"
	"Gin_postgres_redis_loan_manager/routes"
	"context"
	"log"
	"os"
)

func main() {
	config.LoadEnv()

	application := app.MustNew()
	defer application.Close()

	mailer := notify.NewMailer()
	defer mailer.Close()

	app.BootstrapFirstAdmin(context.Background(), application.Config, db.NewRepo(application.DB))

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	routes.RegisterRoutes(r, application, mailer)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Printf("listening on :%s", port)
	_ = r.Run(":" + port)
}
