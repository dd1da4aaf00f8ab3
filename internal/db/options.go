package db

import (
	"time"

	"github.com/neutralface-io/nfai-web/pkg/logger"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// WithLogger routes gorm's SQL log through the app log file.
func WithLogger(log *logger.Logger) DBOptions {
	return func(db *gorm.DB) error {
		db.Config.Logger = gormLogger.New(
			log.Log,
			gormLogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		)
		return nil
	}
}

// WithPool sizes the underlying sql.DB connection pool.
func WithPool(maxOpen, maxIdle int, lifetime time.Duration) DBOptions {
	return func(db *gorm.DB) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if maxOpen > 0 {
			sqlDB.SetMaxOpenConns(maxOpen)
		}
		if maxIdle > 0 {
			sqlDB.SetMaxIdleConns(maxIdle)
		}
		if lifetime > 0 {
			sqlDB.SetConnMaxLifetime(lifetime)
		}
		return nil
	}
}

// Silent drops gorm's SQL log entirely.
func Silent() DBOptions {
	return func(db *gorm.DB) error {
		db.Config.Logger = gormLogger.Default.LogMode(gormLogger.Silent)
		return nil
	}
}
