package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient creates a new SQLite client
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; serialize through one connection
	db.SetMaxOpenConns(1)

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteClient{db: db}, nil
}

func (c *SQLiteClient) ensureTable(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+artifactsTable+` (
			run_id     TEXT NOT NULL,
			name       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (run_id, name)
		)`)
	return err
}

func (c *SQLiteClient) insert(ctx context.Context, runID, name string, content []byte, at time.Time) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO `+artifactsTable+` (run_id, name, content, created_at) VALUES (?, ?, ?, ?)`,
		runID, name, string(content), at.Format(time.RFC3339Nano))
	return err
}

func (c *SQLiteClient) fetch(ctx context.Context, runID, name string) ([]byte, error) {
	return fetchSQL(ctx, c.db, runID, name)
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}
