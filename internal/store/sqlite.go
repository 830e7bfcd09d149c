package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite. This is the default
// driver: a single local file, durable across sessions on one machine.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS final_overrides (
	car        TEXT NOT NULL,
	feature    TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (car, feature)
);

CREATE TABLE IF NOT EXISTS cell_overrides (
	car        TEXT NOT NULL,
	feature    TEXT NOT NULL,
	source_idx INTEGER NOT NULL,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (car, feature, source_idx)
);

CREATE INDEX IF NOT EXISTS idx_final_overrides_car ON final_overrides(car);
CREATE INDEX IF NOT EXISTS idx_cell_overrides_car ON cell_overrides(car);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SetFinal(ctx context.Context, car, feature, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO final_overrides (car, feature, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (car, feature) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		car, feature, value, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: set final %s/%s", car, feature)
}

func (s *SQLiteStore) GetFinal(ctx context.Context, car, feature string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM final_overrides WHERE car = ? AND feature = ?`,
		car, feature,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrapf(err, "sqlite: get final %s/%s", car, feature)
	}
	return value, true, nil
}

func (s *SQLiteStore) SetCell(ctx context.Context, car, feature string, source int, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cell_overrides (car, feature, source_idx, value, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (car, feature, source_idx) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		car, feature, source, value, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: set cell %s/%s[%d]", car, feature, source)
}

func (s *SQLiteStore) GetCell(ctx context.Context, car, feature string, source int) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM cell_overrides WHERE car = ? AND feature = ? AND source_idx = ?`,
		car, feature, source,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrapf(err, "sqlite: get cell %s/%s[%d]", car, feature, source)
	}
	return value, true, nil
}

func (s *SQLiteStore) ResetAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM final_overrides`); err != nil {
		return eris.Wrap(err, "sqlite: reset final overrides")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cell_overrides`); err != nil {
		return eris.Wrap(err, "sqlite: reset cell overrides")
	}
	return nil
}
