package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/namikmesic/graphstream/internal/stream"
)

// InsertRunEventsJob creates a batch insert job for decoded run events using COPY protocol.
func InsertRunEventsJob(runID uuid.UUID, ts time.Time, events []stream.Event) WriteJob {
	return Named("copy run events", WriteJobFunc(func(ctx context.Context, pool *pgxpool.Pool) error {
		rows := make([][]any, len(events))
		for i, ev := range events {
			rows[i] = []any{
				ts,
				runID,
				ev.Index,
				ev.Name,
				string(ev.Data),
				ev.RawBytes,
			}
		}

		_, err := pool.CopyFrom(ctx,
			pgx.Identifier{"run_events"},
			[]string{"ts", "run_id", "event_index", "event_name", "data_json", "raw_bytes"},
			pgx.CopyFromRows(rows),
		)
		return err
	}))
}
