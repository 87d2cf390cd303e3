package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresClient manages a connection pool to PostgreSQL
type PostgresClient struct {
	pool *pgxpool.Pool
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{pool: pool}, nil
}

func (c *PostgresClient) ensureTable(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+artifactsTable+` (
			run_id     uuid        NOT NULL,
			name       text        NOT NULL,
			content    text        NOT NULL,
			created_at timestamptz NOT NULL,
			PRIMARY KEY (run_id, name)
		)`)
	return err
}

func (c *PostgresClient) insert(ctx context.Context, runID, name string, content []byte, at time.Time) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO `+artifactsTable+` (run_id, name, content, created_at) VALUES ($1, $2, $3, $4)`,
		runID, name, string(content), at)
	return err
}

func (c *PostgresClient) fetch(ctx context.Context, runID, name string) ([]byte, error) {
	var content string
	err := c.pool.QueryRow(ctx,
		`SELECT content FROM `+artifactsTable+` WHERE run_id = $1 AND name = $2`,
		runID, name).Scan(&content)
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

// Close closes the connection pool
func (c *PostgresClient) Close() error {
	c.pool.Close()
	return nil
}
