package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
	"github.com/bssshyamsundhar/float-chat/internal/utils"
)

type PostgresService struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewPostgresService(logg *logger.Logger) (*PostgresService, error) {
	serviceLog := logg.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", logg)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", logg)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", logg)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", logg)
	postgresName := utils.GetEnv("POSTGRES_NAME", "floatchat", logg)
	postgresSSLMode := utils.GetEnv("POSTGRES_SSLMODE", "disable", logg)
	maxConns := utils.GetEnvAsInt("POSTGRES_MAX_CONNS", 10, logg)

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		postgresUser,
		postgresPassword,
		postgresHost,
		postgresPort,
		postgresName,
		postgresSSLMode,
	)

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.MaxConns = int32(maxConns)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	serviceLog.Info("Database connection pool initialized", "host", postgresHost, "database", postgresName, "max_conns", maxConns)
	return &PostgresService{pool: pool, log: serviceLog}, nil
}

func (s *PostgresService) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

func (s *PostgresService) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}
