package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"Gin_postgres_redis_loan_manager/db"
	"Gin_postgres_redis_loan_manager/models"
)

// BootstrapFirstAdmin creates a one-time ADMIN invite when the instance has
// no admin yet, and prints the registration link.
func BootstrapFirstAdmin(ctx context.Context, cfg Config, repo *db.Repo) {
	if cfg.BootstrapEmail == "" {
		return
	}
	n, err := repo.CountAdmins(ctx)
	if err != nil {
		log.Printf("bootstrap admin check failed: %v", err)
		return
	}
	if n > 0 {
		return
	}

	buf := make([]byte, 16)
	rand.Read(buf)
	token := hex.EncodeToString(buf)

	if _, err := repo.CreateInvite(ctx, cfg.BootstrapEmail, token, models.RoleAdmin, time.Now().Add(24*time.Hour), "bootstrap"); err != nil {
		log.Printf("bootstrap invite failed: %v", err)
		return
	}

	link := fmt.Sprintf("%s/login?inviteToken=%s", cfg.WebOrigin, token)
	log.Printf("[BOOTSTRAP] No admin found, created an admin invite for %s", cfg.BootstrapEmail)
	log.Printf("[BOOTSTRAP] Open this URL to register the first admin: %s", link)
}
