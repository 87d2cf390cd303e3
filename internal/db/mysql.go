package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLClient manages the connection to MySQL
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient creates a new MySQL client
func NewMySQLClient(ctx context.Context, connString string) (*MySQLClient, error) {
	db, err := sql.Open("mysql", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MySQLClient{db: db}, nil
}

func (c *MySQLClient) ensureTable(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+artifactsTable+` (
			run_id     CHAR(36)     NOT NULL,
			name       VARCHAR(255) NOT NULL,
			content    MEDIUMTEXT   NOT NULL,
			created_at DATETIME(6)  NOT NULL,
			PRIMARY KEY (run_id, name)
		)`)
	return err
}

func (c *MySQLClient) insert(ctx context.Context, runID, name string, content []byte, at time.Time) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO `+artifactsTable+` (run_id, name, content, created_at) VALUES (?, ?, ?, ?)`,
		runID, name, string(content), at)
	return err
}

func (c *MySQLClient) fetch(ctx context.Context, runID, name string) ([]byte, error) {
	return fetchSQL(ctx, c.db, runID, name)
}

// Close closes the database connection
func (c *MySQLClient) Close() error {
	return c.db.Close()
}
