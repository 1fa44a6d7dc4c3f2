package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// InitDatabase opens the database described by cfg, retrying with exponential
// backoff so the API can start before the database container is ready.
func InitDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	driver := strings.ToLower(cfg.Driver)

	log.WithFields(logrus.Fields{
		"db_driver": driver,
		"db_host":   cfg.Host,
		"db_name":   cfg.Name,
		"db_path":   cfg.Path,
	}).Info("Initializing database connection")

	maxRetries := 5
	retryDelays := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		switch driver {
		case "postgres", "postgresql":
			db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
		case "sqlite", "":
			db, err = gorm.Open(sqlite.Open(cfg.DSN()), &gorm.Config{})
		default:
			return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite)", cfg.Driver)
		}

		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else if pingErr := sqlDB.Ping(); pingErr != nil {
				err = pingErr
			} else {
				configureConnectionPool(sqlDB)
				log.WithFields(logrus.Fields{
					"db_driver": driver,
					"attempt":   attempt,
				}).Info("Database initialized successfully")
				return db, nil
			}
		}

		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("Database connection attempt failed")

		if attempt < maxRetries {
			time.Sleep(retryDelays[attempt-1])
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

func configureConnectionPool(sqlDB *sql.DB) {
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
}
