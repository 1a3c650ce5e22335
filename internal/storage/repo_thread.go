package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ThreadStore keeps thread to assistant associations in Postgres.
type ThreadStore struct {
	pool *pgxpool.Pool
}

func NewThreadStore(pool *pgxpool.Pool) *ThreadStore {
	return &ThreadStore{pool: pool}
}

func (s *ThreadStore) LoadThreadAssistant(ctx context.Context, threadID string) (string, bool, error) {
	var assistantID string
	err := s.pool.QueryRow(ctx,
		`SELECT assistant_id FROM thread_assistants WHERE thread_id = $1`, threadID,
	).Scan(&assistantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return assistantID, true, nil
}

func (s *ThreadStore) SaveThreadAssistant(ctx context.Context, threadID, assistantID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO thread_assistants (thread_id, assistant_id, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (thread_id) DO UPDATE SET assistant_id = EXCLUDED.assistant_id, updated_at = now()`,
		threadID, assistantID,
	)
	return err
}
