// Package main is the entry point for the Athenaeum database migration tool.
// It applies schema migrations for both the SQLite and PostgreSQL backends.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/athenaeum-lms/athenaeum/internal/config"
	"github.com/athenaeum-lms/athenaeum/internal/repository/postgres"
	"github.com/athenaeum-lms/athenaeum/internal/repository/sqlite"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Athenaeum Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up":
		runUp()

	case "status":
		runStatus()

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runUp() {
	ctx := context.Background()
	cfg := loadConfig()

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db := openPostgres(ctx, cfg)
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			fail("migration failed: %v", err)
		}

	default:
		db := openSQLite(ctx, cfg)
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			fail("migration failed: %v", err)
		}
	}

	fmt.Println("migrations applied")
}

func runStatus() {
	ctx := context.Background()
	cfg := loadConfig()

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db := openPostgres(ctx, cfg)
		defer db.Close()
		version, err := db.MigrationVersion(ctx)
		if err != nil {
			fail("failed to read migration version: %v", err)
		}
		fmt.Printf("driver: postgres\nschema version: %d\n", version)

	default:
		db := openSQLite(ctx, cfg)
		defer db.Close()
		version, err := db.MigrationVersion(ctx)
		if err != nil {
			fail("failed to read migration version: %v", err)
		}
		fmt.Printf("driver: sqlite\npath: %s\nschema version: %d\n", cfg.Database.Path, version)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(os.Getenv("ATHENAEUM_CONFIG"))
	if err != nil {
		fail("failed to load configuration: %v", err)
	}
	return cfg
}

func openPostgres(ctx context.Context, cfg *config.Config) *postgres.DB {
	db, err := postgres.NewDB(ctx, cfg.Database, zerolog.Nop())
	if err != nil {
		fail("failed to connect to postgres: %v", err)
	}
	return db
}

func openSQLite(ctx context.Context, cfg *config.Config) *sqlite.DB {
	db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Database.Path), zerolog.Nop())
	if err != nil {
		fail("failed to open sqlite database: %v", err)
	}
	return db
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`Athenaeum Migration Tool

Usage:
  athenaeum-migrate <command>

Commands:
  up          Apply all pending migrations
  status      Show the current schema version
  version     Print version information
  help        Show this help message

Configuration is read the same way as the server: config.yaml in the
working directory (or ATHENAEUM_CONFIG), overridable with ATHENAEUM_*
environment variables. The database driver and connection settings
select which backend is migrated.

Examples:
  athenaeum-migrate up
  athenaeum-migrate status`)
}
