package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"tinyrag/internal/domain"
)

// SQLSTATE codes raised when another process created the same object first.
const (
	codeUniqueViolation = "23505"
	codeDuplicateObject = "42710"
	codeDuplicateTable  = "42P07"
)

const insertSQL = `INSERT INTO documents (content, embedding, ticker, source) VALUES ($1, $2, $3, $4)`

// PGVectorStore stores chunks in PostgreSQL using the pgvector extension.
type PGVectorStore struct {
	pool      *pgxpool.Pool
	dimension int
}

// NewPGVectorStore creates a pool for url. No connection is made until the
// first call.
func NewPGVectorStore(ctx context.Context, url string, dimension int) (*PGVectorStore, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid database url: %v", domain.ErrInvalidConfig, err)
	}
	cfg.AfterConnect = registerVectorTypes
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return &PGVectorStore{pool: pool, dimension: dimension}, nil
}

// registerVectorTypes binds pgvector.Vector natively on conn. Until the
// extension exists there is nothing to register; EnsureSchema resets the pool
// once it has created it.
func registerVectorTypes(ctx context.Context, conn *pgx.Conn) error {
	var installed bool
	if err := conn.QueryRow(ctx, `SELECT to_regtype('vector') IS NOT NULL`).Scan(&installed); err != nil {
		return fmt.Errorf("failed to look up vector type: %w", err)
	}
	if !installed {
		return nil
	}
	if err := pgxvec.RegisterTypes(ctx, conn); err != nil {
		return fmt.Errorf("failed to register vector types: %w", err)
	}
	return nil
}

func (s *PGVectorStore) EnsureSchema(ctx context.Context) error {
	var installed bool
	if err := s.pool.QueryRow(ctx, `SELECT to_regtype('vector') IS NOT NULL`).Scan(&installed); err != nil {
		return fmt.Errorf("failed to look up vector type: %w", err)
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
			id BIGSERIAL PRIMARY KEY,
			content TEXT NOT NULL,
			embedding vector(%d),
			ticker TEXT,
			source TEXT
		)`, s.dimension),
		`CREATE INDEX IF NOT EXISTS documents_ticker_idx ON documents (ticker)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil && !alreadyExists(err) {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	if !installed {
		// Connections opened before the extension existed lack the codec.
		s.pool.Reset()
	}

	var typmod int
	err := s.pool.QueryRow(ctx,
		`SELECT atttypmod FROM pg_attribute WHERE attrelid = 'documents'::regclass AND attname = 'embedding'`,
	).Scan(&typmod)
	if err != nil {
		return fmt.Errorf("failed to read embedding column: %w", err)
	}
	if typmod > 0 && typmod != s.dimension {
		return fmt.Errorf("%w: documents.embedding is vector(%d), configured %d",
			domain.ErrDimensionMismatch, typmod, s.dimension)
	}
	return nil
}

// alreadyExists reports whether err means a concurrent creator won the race.
func alreadyExists(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeUniqueViolation, codeDuplicateObject, codeDuplicateTable:
		return true
	}
	return false
}

func (s *PGVectorStore) Insert(ctx context.Context, chunks []string, vectors [][]float32, ticker, source string) error {
	if err := validateInsert(chunks, vectors, s.dimension); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range chunks {
		batch.Queue(insertSQL, chunks[i], pgvector.NewVector(vectors[i]), nullable(ticker), nullable(source))
	}

	br := tx.SendBatch(ctx, batch)
	for range chunks {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PGVectorStore) Query(ctx context.Context, vector []float32, k int, ticker string) ([]domain.ContextResult, error) {
	if err := validateQuery(vector, k, s.dimension); err != nil {
		return nil, err
	}

	query := `SELECT content, COALESCE(ticker, ''), COALESCE(source, ''), embedding <=> $1 AS distance
		FROM documents`
	args := []any{pgvector.NewVector(vector), k}
	if ticker != "" {
		query += ` WHERE ticker = $3`
		args = append(args, ticker)
	}
	query += ` ORDER BY distance, id LIMIT $2`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.ContextResult, 0, k)
	for rows.Next() {
		var r domain.ContextResult
		if err := rows.Scan(&r.Content, &r.Ticker, &r.Source, &r.Distance); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *PGVectorStore) Ping(ctx context.Context) error {
	var one int
	return s.pool.QueryRow(ctx, `SELECT 1`).Scan(&one)
}

func (s *PGVectorStore) Close() error {
	s.pool.Close()
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
