package db

import (
	"givehub/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
)

// Open connects to the database with duplicate-key translation enabled, which
// the ledger store relies on to report conflicts.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
}

// Migrate performs automatic migration for the database schema
func Migrate(dsn string) {
	gdb, err := Open(dsn)
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err = gdb.AutoMigrate(
		&domain.User{},
		&domain.Wallet{},
		&domain.Donation{},
		&domain.Transaction{},
		&domain.Beneficiary{},
		&domain.RefreshToken{},
	)
	if err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	logrus.Info("Migration completed.")
}

// DSN builds the MySQL connection string.
func DSN(user, password, host, port, name string) string {
	return user + ":" + password + "@tcp(" + host + ":" + port + ")/" + name + "?parseTime=true"
}
