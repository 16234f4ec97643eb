package dataset

import (
	"database/sql"
	"fmt"
)

const createLinesTable = `
CREATE TABLE IF NOT EXISTS lines (
	id          TEXT NOT NULL,
	line        INTEGER NOT NULL,
	contents    TEXT NOT NULL,
	class_name  TEXT NOT NULL,
	class_value REAL NOT NULL,
	path        TEXT NOT NULL
)`

const createFeatureValuesTable = `
CREATE TABLE IF NOT EXISTS feature_values (
	id    TEXT NOT NULL,
	name  TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (id, name)
)`

const createMetadataTable = `
CREATE TABLE IF NOT EXISTS dataset_metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_lines_id ON lines(id)",
	"CREATE INDEX IF NOT EXISTS idx_lines_class ON lines(class_name)",
	"CREATE INDEX IF NOT EXISTS idx_feature_values_name ON feature_values(name)",
}

// createSchema creates the dataset tables in one transaction.
func createSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	tables := []struct {
		name string
		ddl  string
	}{
		{"lines", createLinesTable},
		{"feature_values", createFeatureValuesTable},
		{"dataset_metadata", createMetadataTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}
	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}
