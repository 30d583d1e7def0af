package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/hydrate/internal/intake"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on records.synced for pending counts
const currentSchemaVersion = 1

// Keys in document_meta.
const (
	metaSettings      = "settings"
	metaLastSyncError = "last_sync_error"
)

// SQLite stores the document in a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// This function is idempotent - safe to call multiple times.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load reads records in insertion order plus settings and sync error.
func (s *SQLite) Load(ctx context.Context) (intake.Document, error) {
	doc := intake.DefaultDocument()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount_ml, occurred_at, created_at, synced
		FROM records
		ORDER BY seq ASC
	`)
	if err != nil {
		return intake.Document{}, fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec                   intake.Record
			occurredAt, createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.AmountMl, &occurredAt, &createdAt, &rec.Synced); err != nil {
			return intake.Document{}, fmt.Errorf("load records: scan: %w", err)
		}
		if rec.OccurredAt, err = time.Parse(time.RFC3339Nano, occurredAt); err != nil {
			return intake.Document{}, fmt.Errorf("load records: record %s occurred_at: %w", rec.ID, err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return intake.Document{}, fmt.Errorf("load records: record %s created_at: %w", rec.ID, err)
		}
		doc.Records = append(doc.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return intake.Document{}, fmt.Errorf("load records: %w", err)
	}

	settingsJSON, ok, err := s.readMeta(ctx, metaSettings)
	if err != nil {
		return intake.Document{}, err
	}
	if ok {
		if doc.Settings, err = decodeSettings([]byte(settingsJSON)); err != nil {
			return intake.Document{}, fmt.Errorf("load settings: %w", err)
		}
	}

	lastErr, ok, err := s.readMeta(ctx, metaLastSyncError)
	if err != nil {
		return intake.Document{}, err
	}
	if ok {
		doc.LastSyncError = lastErr
	}

	return doc, nil
}

// Save rewrites every table inside a single transaction.
func (s *SQLite) Save(ctx context.Context, doc intake.Document) error {
	settingsJSON, err := json.Marshal(doc.Settings)
	if err != nil {
		return fmt.Errorf("save: marshal settings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("save: clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (seq, id, amount_ml, occurred_at, created_at, synced)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save: prepare: %w", err)
	}
	defer stmt.Close()

	for i, rec := range doc.Records {
		_, err := stmt.ExecContext(ctx,
			i+1,
			rec.ID,
			rec.AmountMl,
			rec.OccurredAt.Format(time.RFC3339Nano),
			rec.CreatedAt.Format(time.RFC3339Nano),
			rec.Synced,
		)
		if err != nil {
			return fmt.Errorf("save: insert record %s: %w", rec.ID, err)
		}
	}

	for key, value := range map[string]string{
		metaSettings:      string(settingsJSON),
		metaLastSyncError: doc.LastSyncError,
	} {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO document_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		if err != nil {
			return fmt.Errorf("save: write %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save: commit: %w", err)
	}
	return nil
}

func (s *SQLite) readMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM document_meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds an index on records.synced.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_records_synced ON records(synced)`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *SQLite) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
