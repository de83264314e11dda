package services

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
)

// QueryExecutor runs a SQL statement and materializes all rows as
// field-name -> value mappings.
type QueryExecutor interface {
	Execute(ctx context.Context, sql string) ([]map[string]any, error)
}

// PgExecutor executes statements against a pgx pool. A connection is
// held for the scope of exactly one statement and released on every
// exit path.
type PgExecutor struct {
	log  *logger.Logger
	pool *pgxpool.Pool
}

// NewPgExecutor accepts a nil pool: execution then fails with
// ErrBackendUnavailable instead of at startup, mirroring the rest of
// the pipeline's degrade-don't-crash posture.
func NewPgExecutor(log *logger.Logger, pool *pgxpool.Pool) *PgExecutor {
	return &PgExecutor{
		log:  log.With("service", "PgExecutor"),
		pool: pool,
	}
}

func (s *PgExecutor) Execute(ctx context.Context, sql string) ([]map[string]any, error) {
	if s.pool == nil {
		return nil, ErrBackendUnavailable
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, &ExecutionError{SQL: sql, Err: err}
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql)
	if err != nil {
		return nil, &ExecutionError{SQL: sql, Err: err}
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, &ExecutionError{SQL: sql, Err: err}
		}
		record := make(map[string]any, len(fields))
		for i, fd := range fields {
			record[fd.Name] = values[i]
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, &ExecutionError{SQL: sql, Err: err}
	}
	return out, nil
}
