package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nurpe/dossiers-service/internal/config"
)

// New opens the read-write connection and applies migrations.
func New(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	database, err := open(cfg.DB.DSN, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := Migrate(database); err != nil {
		return nil, err
	}
	log.Info().Msg("database migrations applied")
	return database, nil
}

// NewReadOnly opens the connection used for queries. It shares the primary
// DSN unless DB_READ_DSN points somewhere else.
func NewReadOnly(cfg *config.Config, primary *gorm.DB) (*gorm.DB, error) {
	if cfg.DB.ReadDSN == "" || cfg.DB.ReadDSN == cfg.DB.DSN {
		return primary, nil
	}
	return open(cfg.DB.ReadDSN, cfg.DB)
}

func open(dsn string, cfg config.DBConfig) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != "" {
		lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("parse conn max lifetime: %w", err)
		}
		sqlDB.SetConnMaxLifetime(lifetime)
	}
	return database, nil
}
