package db

import (
	"Gin_postgres_redis_loan_manager/models"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	err = Migrate(DB)
	if err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Invite{},
		&models.Equipment{},
		&models.LoanRequest{},
		&models.StatusHistoryEntry{},
	); err != nil {
		return err
	}

	// Fast active-loan counting per equipment (the availability guard's query)
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_active_per_equipment
	  ON %s (equipment_id)
	  WHERE status IN ('APPROVED','BORROWED');
	`, models.LoanRequestTable, models.LoanRequestTable)).Error; err != nil {
		return err
	}

	// History replays in (created_at, seq) order per loan
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_replay_order
	  ON %s (loan_request_id, created_at, seq);
	`, models.StatusHistoryTable, models.StatusHistoryTable)).Error; err != nil {
		return err
	}

	return nil
}
