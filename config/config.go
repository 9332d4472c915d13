package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env when present; in deployed environments the variables
// come from the process environment instead.
func LoadEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("config: could not load .env: %v", err)
	}
}
