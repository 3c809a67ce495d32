// Package db handles opening the relational store and keeping the
// schema migrated
package db

import (
	"fmt"
	"securedocs/docs-api/model"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func New() (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	// Postgres when a DSN is configured, SQLite otherwise. SQLite is
	// enough for single-node deployments and keeps local dev simple
	if dsn := viper.GetString("database.dsn"); dsn != "" {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	} else {
		db, err = gorm.Open(sqlite.Open("database.db"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database, %w", err)
	}

	err = db.AutoMigrate(
		model.User{},
		model.Document{},
		model.VerificationRequest{},
		model.AuditLog{},
		model.UploadSession{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
