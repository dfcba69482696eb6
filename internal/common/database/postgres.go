package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"subsidy-wizard/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient owns the pool behind the application archive.
type PostgresClient struct {
	db *sql.DB
}

// NewPostgres opens the pool without dialing; callers Ping when they need the database up front.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres %s/%s: %w", cfg.Host, cfg.Database, err)
	}

	lifetime := time.Duration(cfg.ConnMaxLifetime) * time.Minute
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(lifetime)
	db.SetConnMaxIdleTime(lifetime)

	return &PostgresClient{db: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// GetDB exposes the pool to the workers and the migrator.
func (c *PostgresClient) GetDB() *sql.DB {
	return c.db
}
