package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jonathan/cv-builder/internal/types"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresStore is a Store backed by a PostgreSQL connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool, verifies it and applies pending migrations.
func Connect(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies the embedded goose migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Save upserts the document stored under (userID, key).
func (s *PostgresStore) Save(ctx context.Context, userID, key string, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (user_id, doc_key, content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, doc_key) DO UPDATE SET content = $3, updated_at = NOW()`,
		userID, key, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", key, err)
	}
	return nil
}

// Load returns the document stored under (userID, key), or nil.
func (s *PostgresStore) Load(ctx context.Context, userID, key string) ([]byte, error) {
	var content []byte
	err := s.pool.QueryRow(ctx,
		`SELECT content FROM documents WHERE user_id = $1 AND doc_key = $2`,
		userID, key,
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load document %s: %w", key, err)
	}
	return content, nil
}

// Delete removes the document stored under (userID, key).
func (s *PostgresStore) Delete(ctx context.Context, userID, key string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE user_id = $1 AND doc_key = $2`,
		userID, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}

// RecordGeneration inserts one usage row.
func (s *PostgresStore) RecordGeneration(ctx context.Context, userID string, kind types.Kind) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO generations (user_id, kind) VALUES ($1, $2)`,
		userID, string(kind),
	)
	if err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}

// CountGenerations counts usage rows of kind created at or after since.
func (s *PostgresStore) CountGenerations(ctx context.Context, userID string, kind types.Kind, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM generations WHERE user_id = $1 AND kind = $2 AND created_at >= $3`,
		userID, string(kind), since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count generations: %w", err)
	}
	return n, nil
}
