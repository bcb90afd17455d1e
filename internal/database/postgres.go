package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/gate-api/internal/models"
)

// ConnectPostgres establishes a connection to the hosted PostgreSQL database using the provided DSN.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), Options())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// Options returns the gorm configuration shared by every connection. Timestamps
// are generated in UTC so that day-window queries compare like with like.
func Options() *gorm.Config {
	return &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  logger.Default.LogMode(logger.Warn),
	}
}

// Migrate creates or updates the tables owned by the gate workflow.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Profile{}, &models.Student{}, &models.EarlyDeparture{}, &models.ActivityLog{})
}
