package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kdimtricp/framecast/internal/config"
	"github.com/kdimtricp/framecast/internal/database"
	"github.com/kdimtricp/framecast/internal/logging"
)

// Applies pending migrations and exits. Intended for deploy hooks where the
// schema must be current before the server starts.
func main() {
	path := flag.String("path", "", "migrations directory (defaults to MIGRATIONS_PATH)")
	flag.Parse()

	if err := run(*path); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if path == "" {
		path = cfg.MigrationsPath
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	db, err := database.NewDB(database.Config{
		Type:       cfg.DBType,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		Name:       cfg.DBName,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := database.NewMigrator(db.Conn(), cfg.DBType, logger)
	return migrator.Run(path)
}
