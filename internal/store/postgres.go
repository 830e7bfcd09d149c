package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool abstracts the subset of pgxpool.Pool the store uses, letting pgxmock
// stand in during tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool, for teams sharing one
// override database across operators.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS final_overrides (
	car        TEXT NOT NULL,
	feature    TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (car, feature)
);

CREATE TABLE IF NOT EXISTS cell_overrides (
	car        TEXT NOT NULL,
	feature    TEXT NOT NULL,
	source_idx INTEGER NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (car, feature, source_idx)
);

CREATE INDEX IF NOT EXISTS idx_final_overrides_car ON final_overrides(car);
CREATE INDEX IF NOT EXISTS idx_cell_overrides_car ON cell_overrides(car);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SetFinal(ctx context.Context, car, feature, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO final_overrides (car, feature, value, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (car, feature) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		car, feature, value, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: set final %s/%s", car, feature)
}

func (s *PostgresStore) GetFinal(ctx context.Context, car, feature string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM final_overrides WHERE car = $1 AND feature = $2`,
		car, feature,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrapf(err, "postgres: get final %s/%s", car, feature)
	}
	return value, true, nil
}

func (s *PostgresStore) SetCell(ctx context.Context, car, feature string, source int, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cell_overrides (car, feature, source_idx, value, updated_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (car, feature, source_idx) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		car, feature, source, value, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: set cell %s/%s[%d]", car, feature, source)
}

func (s *PostgresStore) GetCell(ctx context.Context, car, feature string, source int) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM cell_overrides WHERE car = $1 AND feature = $2 AND source_idx = $3`,
		car, feature, source,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrapf(err, "postgres: get cell %s/%s[%d]", car, feature, source)
	}
	return value, true, nil
}

func (s *PostgresStore) ResetAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM final_overrides`); err != nil {
		return eris.Wrap(err, "postgres: reset final overrides")
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM cell_overrides`); err != nil {
		return eris.Wrap(err, "postgres: reset cell overrides")
	}
	return nil
}
