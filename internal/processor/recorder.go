package processor

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/namikmesic/graphstream/internal/storage"
	"github.com/namikmesic/graphstream/internal/stream"
	"github.com/rs/zerolog/log"
)

// Recorder archives the raw events of a run. It decodes its own copy of the
// body so archiving never slows the caller-facing run.
type Recorder struct {
	writer          storage.Enqueuer
	maxPendingLines int
}

func NewRecorder(writer storage.Enqueuer, maxPendingLines int) *Recorder {
	return &Recorder{writer: writer, maxPendingLines: maxPendingLines}
}

// Record reads reader until it fails or ends and stores every decoded event.
// It returns the number of events stored.
func (r *Recorder) Record(runID uuid.UUID, ts time.Time, reader io.Reader) int {
	dec := stream.NewDecoder(r.maxPendingLines)
	buf := make([]byte, readBufferSize)

	var all []stream.Event
	var dropped int

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			events, errs := dec.Feed(buf[:n])
			all = append(all, events...)
			dropped += len(errs)
		}
		if err != nil {
			break
		}
	}
	events, errs := dec.Flush()
	all = append(all, events...)
	dropped += len(errs)

	if len(all) > 0 {
		r.writer.Enqueue(storage.InsertRunEventsJob(runID, ts, all))
	}

	log.Debug().
		Str("run_id", runID.String()).
		Int("events", len(all)).
		Int("dropped", dropped).
		Msg("run events recorded")
	return len(all)
}
