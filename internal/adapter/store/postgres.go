package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

// PostgresConfig controls the connection pool.
type PostgresConfig struct {
	DatabaseURL    string
	MaxConns       int
	ConnectTimeout time.Duration
	IdleTimeout    time.Duration
	Dimension      int
}

// PostgresStore handles the documents table and its pgvector index.
type PostgresStore struct {
	db        *sql.DB
	dimension int
}

var _ port.VectorStore = (*PostgresStore)(nil)

// NewPostgresStore opens a bounded pool and verifies connectivity.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	connector, err := pq.NewConnector(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	db := sql.OpenDB(connector)

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 5
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	if cfg.IdleTimeout > 0 {
		db.SetConnMaxIdleTime(cfg.IdleTimeout)
	}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping: %v", port.ErrStoreUnavailable, err)
	}

	return &PostgresStore{db: db, dimension: cfg.Dimension}, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// WithConn runs fn on a dedicated connection that is always returned to the
// pool, including when fn fails.
func (s *PostgresStore) WithConn(ctx context.Context, fn func(*sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return unavailable(err)
	}
	defer conn.Close()
	return fn(conn)
}

// EnsureSchema creates the extension, table and HNSW index if absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
			id BIGSERIAL PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL,
			embedding vector(%d) NOT NULL
		)`, s.dimension),
		`CREATE INDEX IF NOT EXISTS documents_embedding_idx
			ON documents USING hnsw (embedding vector_cosine_ops)`,
	}
	return s.WithConn(ctx, func(conn *sql.Conn) error {
		for _, q := range stmts {
			if _, err := conn.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
		}
		return nil
	})
}

// Reset empties the table and restarts id numbering.
func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE TABLE documents RESTART IDENTITY`); err != nil {
		return fmt.Errorf("reset documents: %w", err)
	}
	return nil
}

// Count returns the number of stored chunks.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

// Now returns the database clock, used by the verify command.
func (s *PostgresStore) Now(ctx context.Context) (time.Time, error) {
	var t time.Time
	if err := s.db.QueryRowContext(ctx, `SELECT NOW()`).Scan(&t); err != nil {
		return time.Time{}, unavailable(err)
	}
	return t, nil
}

func unavailable(err error) error {
	if err == nil || errors.Is(err, port.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", port.ErrStoreUnavailable, err)
}
