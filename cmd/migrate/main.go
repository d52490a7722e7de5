package main

import (
	"givehub/internal/config" // Custom import path (Config)
	"givehub/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	db.Migrate(db.DSN(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName))
}
