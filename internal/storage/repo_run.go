package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RunRecord struct {
	ID          uuid.UUID
	Timestamp   time.Time
	ThreadID    string
	AssistantID string
	Prompt      string
	FollowUp    bool
}

type RunOutcome struct {
	Status       string // "completed" | "failed" | "cancelled"
	ErrorMessage string
	Content      string
	Events       int
	Emitted      int
	DecodeErrors int
	Bytes        int
	ToolTrail    string
	Duration     time.Duration
}

func InsertRunJob(r *RunRecord) WriteJob {
	return Named("insert run", WriteJobFunc(func(ctx context.Context, pool *pgxpool.Pool) error {
		_, err := pool.Exec(ctx, `
			INSERT INTO runs (id, ts, thread_id, assistant_id, prompt, follow_up)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			r.ID, r.Timestamp, r.ThreadID, r.AssistantID, nilIfEmpty(r.Prompt), r.FollowUp,
		)
		return err
	}))
}

func FinishRunJob(runID uuid.UUID, ts time.Time, o RunOutcome) WriteJob {
	return Named("finish run", WriteJobFunc(func(ctx context.Context, pool *pgxpool.Pool) error {
		_, err := pool.Exec(ctx, `
			UPDATE runs SET
				status = $1,
				error_message = $2,
				content = $3,
				event_count = $4,
				emitted_count = $5,
				decode_errors = $6,
				byte_count = $7,
				tool_trail = $8,
				duration_ms = $9
			WHERE id = $10 AND ts = $11`,
			o.Status, nilIfEmpty(o.ErrorMessage), nilIfEmpty(o.Content),
			o.Events, o.Emitted, o.DecodeErrors, o.Bytes, nilIfEmpty(o.ToolTrail),
			int(o.Duration.Milliseconds()), runID, ts,
		)
		return err
	}))
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
