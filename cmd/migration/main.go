package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fadedpez/tucoroulette/internal/logging"
	"github.com/fadedpez/tucoroulette/pkg/db"
	"github.com/fadedpez/tucoroulette/pkg/db/migrations"
)

const defaultDir = "pkg/db/migrations/sql"

var logger = logging.Default.WithField("component", "migration")

func main() {
	createCmd := flag.NewFlagSet("create", flag.ExitOnError)
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	statusCmd := flag.NewFlagSet("status", flag.ExitOnError)

	migrationsDir := createCmd.String("dir", defaultDir, "Directory to store migrations")
	dbPath := migrateCmd.String("db", "data/tucoroulette.db", "Path to SQLite database")
	statusDB := statusCmd.String("db", "data/tucoroulette.db", "Path to SQLite database")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "create":
		createCmd.Parse(os.Args[2:])
		if createCmd.NArg() < 1 {
			fmt.Println("Error: Missing migration description")
			createCmd.Usage()
			os.Exit(1)
		}
		err = createNewMigration(*migrationsDir, createCmd.Arg(0))

	case "migrate":
		migrateCmd.Parse(os.Args[2:])
		err = applyMigrations(*dbPath)

	case "status":
		statusCmd.Parse(os.Args[2:])
		err = printStatus(*statusDB)

	case "help":
		printUsage()

	default:
		fmt.Printf("Error: Unknown command '%s'\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.LogError(err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/migration create DESCRIPTION  - Create a new migration")
	fmt.Println("  go run ./cmd/migration migrate             - Apply the schema shipped in the binary")
	fmt.Println("  go run ./cmd/migration status              - List applied and pending migrations")
	fmt.Println("  go run ./cmd/migration help                - Show this help")
	fmt.Println("\nExamples:")
	fmt.Println("  go run ./cmd/migration create \"add round notes\"")
	fmt.Println("  go run ./cmd/migration migrate -db data/tucoroulette.db")
}

func createNewMigration(migrationsDir, description string) error {
	// The migrator needs a handle even though create never touches it
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer conn.Close()

	filePath, err := migrations.NewMigrator(conn, migrationsDir).CreateMigration(description)
	if err != nil {
		return fmt.Errorf("error creating migration: %w", err)
	}
	if err := appendTemplate(filePath); err != nil {
		return err
	}

	fmt.Printf("Created migration file: %s\n", filePath)
	fmt.Println("Rebuild the bot to ship it; the schema is embedded at compile time.")
	return nil
}

func appendTemplate(filePath string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("error reading migration file: %w", err)
	}

	template := `
-- Amounts are stored as base-10 TEXT in minor units, never as REAL.
-- Rounds are keyed by round_key; see 002_rounds.sql.

-- CREATE TABLE IF NOT EXISTS table_name (
--   id TEXT PRIMARY KEY,
--   account TEXT NOT NULL,
--   amount TEXT NOT NULL DEFAULT '0',
--   created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
-- );
-- CREATE INDEX IF NOT EXISTS idx_table_account ON table_name(account);

`
	if err := os.WriteFile(filePath, append(content, template...), 0644); err != nil {
		return fmt.Errorf("error writing migration file: %w", err)
	}
	return nil
}

func applyMigrations(dbPath string) error {
	// OpenSQLite migrates on open
	conn, err := db.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Migrations applied to %s\n", dbPath)
	return nil
}

func printStatus(dbPath string) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("database %s: %w", filepath.Clean(dbPath), err)
	}
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer conn.Close()

	m := migrations.NewEmbeddedMigrator(conn)
	if err := m.Initialize(); err != nil {
		return err
	}
	applied, err := m.GetAppliedMigrations()
	if err != nil {
		return err
	}
	all, err := m.LoadMigrations()
	if err != nil {
		return err
	}

	for _, mig := range all {
		state := "pending"
		if applied[mig.Version] {
			state = "applied"
		}
		fmt.Printf("%s  %-8s %s\n", mig.Version, state, mig.Description)
	}
	return nil
}
