package app

import (
	"Gin_postgres_redis_loan_manager/db"
	"Gin_postgres_redis_loan_manager/session"
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Aliases so handlers read a little shorter
type Ctx = gin.Context
type H = gin.H

// App aggregates the shared dependencies.
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Config Config

	appSess *session.AppSessionStore
}

// Config is read from the environment.
type Config struct {
	RedisAddr      string
	RedisPwd       string
	WebOrigin      string
	SessionTTL     time.Duration
	GatewayToken   string // shared secret of the external authenticator
	BootstrapEmail string // first-admin invite target
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

func MustNew() *App {
	cfg := loadConfig()

	// --- DB: Postgres ---
	dbConn := db.ConnectDB()

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	// --- Gin ---
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)
	a := &App{
		Router: r, DB: dbConn, RDB: rdb, Config: cfg,
		appSess: session.NewAppSessionStore(rdb, cfg.SessionTTL),
	}
	return a
}

func (a *App) Close() { _ = a.RDB.Close() }

func loadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}

	ttl := 24 * time.Hour
	if v := get("SESSION_TTL_SECONDS", ""); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			ttl = d
		}
	}

	return Config{
		RedisAddr:      get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:       os.Getenv("REDIS_PASSWORD"),
		WebOrigin:      get("WEB_ORIGIN", "http://localhost:3000"),
		SessionTTL:     ttl,
		GatewayToken:   strings.TrimSpace(os.Getenv("AUTH_GATEWAY_TOKEN")),
		BootstrapEmail: strings.ToLower(strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_EMAIL"))),
	}
}
