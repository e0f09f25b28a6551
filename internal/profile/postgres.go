// Package profile reads token profiles from the relational store and keeps
// the store's schema and contents current. The read path used by rug checks
// never writes.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/54b3r/rugcheck-go/internal/evidence"
)

// ErrDataSource reports that the relational store is unreachable or a
// profile query failed.
var ErrDataSource = errors.New("profile: data source failure")

// Source returns token profiles for the evidence pipeline.
type Source interface {
	// Profiles returns at most limit profiles, newest first. A non-empty
	// address restricts the result to that token.
	Profiles(ctx context.Context, address string, limit int) ([]*evidence.TokenProfile, error)
}

// NewPool opens a connection pool for dsn and verifies it with a ping.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: POSTGRES_CONNECTION_STRING is not set", ErrDataSource)
	}
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse postgres dsn: %w", ErrDataSource, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to postgres: %w", ErrDataSource, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", ErrDataSource, err)
	}
	return pool, nil
}
