package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/okian/pwnwatch/internal/domain/model"
)

// GetState reads a named value.
func (s *SQLStore) GetState(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var v string
	err := s.db.GetContext(ctx, &v, s.db.Rebind(`SELECT state_value FROM scheduler_state WHERE state_key = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.fail("get_state", err)
	}
	return v, true, nil
}

// PutState writes a named value, replacing any previous one.
func (s *SQLStore) PutState(ctx context.Context, key, value string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO scheduler_state (state_key, state_value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (state_key) DO UPDATE SET state_value = excluded.state_value, updated_at = excluded.updated_at`),
		key, value, model.FormatTime(s.now()),
	)
	if err != nil {
		return s.fail("put_state", err)
	}
	return nil
}
