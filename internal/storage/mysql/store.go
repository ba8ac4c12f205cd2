package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Store is a KeyValueStore on a shared MySQL database, for deployments
// where several API instances serve the same users.
type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	if err := s.db.QueryRowContext(ctx, getSQL, key).Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("mysql get %q: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		// v is NOT NULL
		return errors.New("mysql set: nil value")
	}
	if _, err := s.db.ExecContext(ctx, setSQL, key, value); err != nil {
		return fmt.Errorf("mysql set %q: %w", key, err)
	}
	return nil
}
