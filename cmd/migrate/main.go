package main

import (
	"spendwise/internal/config" // Custom import path (Config)
	"spendwise/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus"
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration

	conn := db.Migrate(cfg.DSN()) // Run schema migration

	// Optionally seed the first admin account from the environment
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		name := cfg.AdminName
		if name == "" {
			name = "Administrator"
		}
		if err := db.SeedAdmin(conn, name, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logrus.Fatalf("failed to seed admin: %v", err)
		}
	}
}
