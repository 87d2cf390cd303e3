// Package db stores generated artifacts in PostgreSQL, MySQL or SQLite.
//
// Artifacts are kept as rows of the ormsynth_artifacts table keyed by batch
// run and artifact name. The generated DDL is stored as text only; it is
// never executed.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const artifactsTable = "ormsynth_artifacts"

type backend interface {
	ensureTable(ctx context.Context) error
	insert(ctx context.Context, runID, name string, content []byte, at time.Time) error
	fetch(ctx context.Context, runID, name string) ([]byte, error)
	Close() error
}

// Store is an artifact sink backed by a database
type Store struct {
	scheme  string
	runID   uuid.UUID
	backend backend
	now     func() time.Time
}

// IsDatabaseURL reports whether target names a database rather than a directory
func IsDatabaseURL(target string) bool {
	_, _, err := ParseDatabaseURL(target)
	return err == nil
}

// ParseDatabaseURL detects the database type and returns the driver connection string
func ParseDatabaseURL(url string) (dbType, connectionStr string, err error) {
	if url == "" {
		return "", "", fmt.Errorf("database URL is required")
	}

	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return "postgres", url, nil
	}

	if strings.HasPrefix(url, "mysql://") {
		// Strip mysql:// prefix for the Go MySQL driver
		return "mysql", strings.TrimPrefix(url, "mysql://"), nil
	}

	if strings.HasPrefix(url, "sqlite://") {
		// Strip sqlite:// prefix to get file path
		return "sqlite", strings.TrimPrefix(url, "sqlite://"), nil
	}

	return "", "", fmt.Errorf("invalid database URL scheme (must start with postgres://, mysql://, or sqlite://)")
}

// Open connects to the database at url and prepares the artifacts table.
// Artifacts written through the store are filed under runID.
func Open(ctx context.Context, url string, runID uuid.UUID) (*Store, error) {
	dbType, connStr, err := ParseDatabaseURL(url)
	if err != nil {
		return nil, err
	}

	var b backend
	switch dbType {
	case "postgres":
		b, err = NewPostgresClient(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
	case "mysql":
		b, err = NewMySQLClient(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
		}
	default:
		b, err = NewSQLiteClient(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}
	}

	if err := b.ensureTable(ctx); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to create %s table: %w", artifactsTable, err)
	}

	return &Store{scheme: dbType, runID: runID, backend: b, now: time.Now}, nil
}

// Put inserts one artifact row and returns its location
func (s *Store) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := s.backend.insert(ctx, s.runID.String(), name, data, s.now().UTC()); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", name, err)
	}
	return s.location(name), nil
}

// Get reads back an artifact of this store's run
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.backend.fetch(ctx, s.runID.String(), name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) location(name string) string {
	return fmt.Sprintf("%s://%s/%s/%s", s.scheme, artifactsTable, s.runID, name)
}

func fetchSQL(ctx context.Context, db *sql.DB, runID, name string) ([]byte, error) {
	var content string
	err := db.QueryRowContext(ctx,
		`SELECT content FROM `+artifactsTable+` WHERE run_id = ? AND name = ?`,
		runID, name).Scan(&content)
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}
