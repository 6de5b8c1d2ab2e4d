package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"minihub/internal/domain"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type postgresStore struct {
	db    *sql.DB
	table string
	log   *logrus.Logger
}

// NewPostgresStore keeps slices as rows of a (key, value) table.
func NewPostgresStore(db *sql.DB, table string, logger *logrus.Logger) domain.KVStore {
	return &postgresStore{
		db:    db,
		table: pq.QuoteIdentifier(table),
		log:   logger,
	}
}

// EnsurePostgresSchema creates the slice table when it is missing.
func EnsurePostgresSchema(ctx context.Context, db *sql.DB, table string) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, pq.QuoteIdentifier(table))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("could not create table %s: %w", table, err)
	}
	return nil
}

func (r *postgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, r.table)
	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		r.log.Errorf("Repository: failed to get slice %s: %v", key, err)
		return nil, false, fmt.Errorf("could not get slice %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (r *postgresStore) Set(ctx context.Context, key string, value []byte) error {
	query := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, r.table)
	if _, err := r.db.ExecContext(ctx, query, key, string(value)); err != nil {
		r.log.Errorf("Repository: failed to store slice %s: %v", key, err)
		return fmt.Errorf("could not store slice %s: %w", key, err)
	}
	return nil
}

func (r *postgresStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, r.table)
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		r.log.Errorf("Repository: failed to delete slice %s: %v", key, err)
		return fmt.Errorf("could not delete slice %s: %w", key, err)
	}
	return nil
}
