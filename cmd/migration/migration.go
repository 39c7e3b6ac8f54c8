package migration

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"

	migrate "github.com/rubenv/sql-migrate"
)

const migrationTable = "aegis_migrations"

// Run applies pending Postgres migrations at startup. The audit trail
// schema lives here; Mongo collections are index-ensured separately.
func Run(db *sql.DB) {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("Error getting working directory: %v", err)
	}

	dir := os.Getenv("MIGRATION_DIR")
	if dir == "" {
		dir = filepath.Join(wd, "internal/migration")
	}

	migrate.SetTable(migrationTable)
	source := &migrate.FileMigrationSource{Dir: dir}

	applied, err := migrate.Exec(db, "postgres", source, migrate.Up)
	if err != nil {
		log.Fatalf("Error executing migration: %v", err)
	}

	log.Printf("Applied %d migrations!\n", applied)
}
