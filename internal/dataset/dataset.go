// Package dataset loads line and feature tables into a SQLite database so
// downstream training jobs can query them.
package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mvp-joe/ccflex/internal/table"
)

// batchSize is the number of rows per multi-row INSERT.
const batchSize = 100

// ErrMissingColumn indicates an input table lacking a required column.
var ErrMissingColumn = errors.New("missing column")

// lineColumns is the line table layout stored in the lines table.
var lineColumns = []string{"id", "line", "contents", "class_name", "class_value", "path"}

// nonFeatureColumns are feature table columns that are not features.
var nonFeatureColumns = map[string]bool{
	"id":          true,
	"class_name":  true,
	"class_value": true,
	"contents":    true,
}

// Store is a SQLite dataset database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the database at path (":memory:" for a private
// in-memory database) and ensures the schema exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying database for queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ImportLines replaces the lines table with the rows of a line table.
func (s *Store) ImportLines(ctx context.Context, r *table.Reader) (int, error) {
	if err := requireColumns(r.Header(), lineColumns...); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := sq.Delete("lines").RunWith(tx).ExecContext(ctx); err != nil {
		return 0, fmt.Errorf("failed to clear lines: %w", err)
	}

	insert := sq.Insert("lines").Columns(lineColumns...)
	pending, total := 0, 0
	flush := func() error {
		if pending == 0 {
			return nil
		}
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to insert lines: %w", err)
		}
		insert = sq.Insert("lines").Columns(lineColumns...)
		pending = 0
		return nil
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read line table: %w", err)
		}

		line, err := strconv.Atoi(row.Get("line"))
		if err != nil {
			return 0, fmt.Errorf("row %s: invalid line number %q", row.Get("id"), row.Get("line"))
		}
		value, err := parseValue(row, "class_value")
		if err != nil {
			return 0, err
		}
		insert = insert.Values(row.Get("id"), line, row.Get("contents"), row.Get("class_name"), value, row.Get("path"))
		pending++
		total++
		if pending == batchSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}

	if err := setMetadata(ctx, tx, "lines_imported_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit lines: %w", err)
	}
	s.logger.Info("imported line table", "rows", total)
	return total, nil
}

// ImportFeatures replaces feature_values with one row per (id, feature) of
// a feature table. Class and contents columns are skipped.
func (s *Store) ImportFeatures(ctx context.Context, r *table.Reader) (int, error) {
	header := r.Header()
	if err := requireColumns(header, "id"); err != nil {
		return 0, err
	}
	var features []int
	for i, name := range header {
		if !nonFeatureColumns[name] {
			features = append(features, i)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := sq.Delete("feature_values").RunWith(tx).ExecContext(ctx); err != nil {
		return 0, fmt.Errorf("failed to clear feature values: %w", err)
	}

	// Colliding feature columns carry the same value; keep one.
	newInsert := func() sq.InsertBuilder {
		return sq.Insert("feature_values").Options("OR REPLACE").Columns("id", "name", "value")
	}
	insert := newInsert()
	pending, rows := 0, 0
	flush := func() error {
		if pending == 0 {
			return nil
		}
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to insert feature values: %w", err)
		}
		insert = newInsert()
		pending = 0
		return nil
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read feature table: %w", err)
		}
		id := row.Get("id")
		fields := row.Fields()
		for _, i := range features {
			if i >= len(fields) {
				continue
			}
			value, err := strconv.ParseFloat(fields[i].Text, 64)
			if err != nil {
				return 0, fmt.Errorf("row %s: feature %s is not numeric: %q", id, header[i], fields[i].Text)
			}
			insert = insert.Values(id, header[i], value)
			pending++
			if pending == batchSize {
				if err := flush(); err != nil {
					return 0, err
				}
			}
		}
		rows++
	}
	if err := flush(); err != nil {
		return 0, err
	}

	if err := setMetadata(ctx, tx, "features_imported_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit feature values: %w", err)
	}
	s.logger.Info("imported feature table", "rows", rows, "features", len(features))
	return rows, nil
}

// ClassCounts returns the number of stored lines per class name.
func (s *Store) ClassCounts(ctx context.Context) (map[string]int, error) {
	rows, err := sq.Select("class_name", "COUNT(*)").
		From("lines").
		GroupBy("class_name").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count classes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan class count: %w", err)
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

// FeatureValue returns one stored feature value.
func (s *Store) FeatureValue(ctx context.Context, id, name string) (float64, error) {
	var value float64
	err := sq.Select("value").
		From("feature_values").
		Where(sq.Eq{"id": id, "name": name}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to get feature %s for %s: %w", name, id, err)
	}
	return value, nil
}

func setMetadata(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := sq.Insert("dataset_metadata").
		Options("OR REPLACE").
		Columns("key", "value").
		Values(key, value).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to set metadata %s: %w", key, err)
	}
	return nil
}

func parseValue(row table.Row, column string) (float64, error) {
	text := row.Get(column)
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("row %s: %s is not numeric: %q", row.Get("id"), column, text)
	}
	return value, nil
}

func requireColumns(header []string, columns ...string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, c := range columns {
		if !present[c] {
			return fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return nil
}
