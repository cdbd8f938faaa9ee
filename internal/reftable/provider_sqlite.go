package reftable

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/chrissnell/cornealfit/internal/types"
	"github.com/chrissnell/cornealfit/pkg/migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationTable = "reference_migrations"

// SQLiteProvider reads entries from the reference_entries table
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens the reference database at dbPath
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{db: db, dbPath: dbPath}, nil
}

// Close closes the database
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}

// LoadEntries returns every entry ordered by position
func (s *SQLiteProvider) LoadEntries() ([]types.ReferenceEntry, error) {
	rows, err := s.db.Query(`
		SELECT family, level, radius, asphericity
		FROM reference_entries
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference entries: %w", err)
	}
	defer rows.Close()

	var entries []types.ReferenceEntry
	for rows.Next() {
		var e types.ReferenceEntry
		if err := rows.Scan(&e.Family, &e.Level, &e.Radius, &e.Asphericity); err != nil {
			return nil, fmt.Errorf("failed to scan reference entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reference entries: %w", err)
	}
	return entries, nil
}

// Count returns the number of stored entries
func (s *SQLiteProvider) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM reference_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reference entries: %w", err)
	}
	return n, nil
}

// Replace creates the schema if needed and replaces every stored entry with
// entries inside a single transaction.
func (s *SQLiteProvider) Replace(ctx context.Context, entries []types.ReferenceEntry) error {
	if err := migrate.NewMigrator(s.db, migrate.NewFSProvider(migrations, migrationTable)).MigrateUp(); err != nil {
		return fmt.Errorf("failed to migrate reference schema: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reference_entries`); err != nil {
		return fmt.Errorf("failed to clear reference entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reference_entries (position, family, level, radius, asphericity)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, i, e.Family, e.Level, e.Radius, e.Asphericity); err != nil {
			return fmt.Errorf("failed to insert reference entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reference entries: %w", err)
	}
	return nil
}
