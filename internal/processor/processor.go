package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/namikmesic/graphstream/internal/stream"
	"github.com/namikmesic/graphstream/internal/tracker"
	"github.com/rs/zerolog/log"
)

// ErrIdleTimeout is returned when no bytes arrive within the idle window.
var ErrIdleTimeout = errors.New("run stream idle timeout")

const readBufferSize = 32 * 1024

// ContentSink receives every extracted content string, in decode order.
type ContentSink interface {
	OnContent(runID uuid.UUID, index int, text string)
}

// Options configure a single run.
type Options struct {
	RunID      uuid.UUID
	NewSession bool // the run's first tool call opens a new tracker session
}

// Result summarizes a finished run.
type Result struct {
	RunID        uuid.UUID
	Content      string // last extracted content, empty if none
	Events       int
	Emitted      int
	Bytes        int
	DecodeErrors []*stream.DecodeError
}

// Processor decodes run streams and extracts their content.
type Processor struct {
	tracker         *tracker.Tracker
	sinks           []ContentSink
	maxPendingLines int
	idleTimeout     time.Duration
}

// New returns a Processor. t may be nil; an idleTimeout of zero disables the
// idle check.
func New(t *tracker.Tracker, maxPendingLines int, idleTimeout time.Duration, sinks ...ContentSink) *Processor {
	return &Processor{
		tracker:         t,
		sinks:           sinks,
		maxPendingLines: maxPendingLines,
		idleTimeout:     idleTimeout,
	}
}

// Run is a decoding run in progress.
type Run struct {
	content chan string
	done    chan struct{}
	result  Result
	err     error
}

// Content yields extracted text in decode order and is closed when the run
// ends. It must be drained, or the run's context cancelled, for the run to
// finish.
func (r *Run) Content() <-chan string {
	return r.content
}

// Wait blocks until the run ends.
func (r *Run) Wait() (Result, error) {
	<-r.done
	return r.result, r.err
}

// Stream starts decoding body on its own goroutine.
//
// Cancelling ctx stops the run early without error; the result holds what
// was extracted so far. Blocking reads on body are only interrupted if body
// itself is tied to ctx, as HTTP response bodies are.
func (p *Processor) Stream(ctx context.Context, body io.Reader, opts Options) *Run {
	if opts.RunID == uuid.Nil {
		opts.RunID = uuid.New()
	}
	run := &Run{
		content: make(chan string, 16),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(run.done)
		defer close(run.content)
		run.result, run.err = p.decode(ctx, body, opts, run.content)
	}()
	return run
}

// Process decodes body synchronously, calling emit for each extracted text.
func (p *Processor) Process(ctx context.Context, body io.Reader, opts Options, emit func(string)) (Result, error) {
	run := p.Stream(ctx, body, opts)
	for text := range run.Content() {
		if emit != nil {
			emit(text)
		}
	}
	return run.Wait()
}

type chunk struct {
	data []byte
	err  error
}

func readChunks(ctx context.Context, r io.Reader) <-chan chunk {
	out := make(chan chunk)
	go func() {
		defer close(out)
		buf := make([]byte, readBufferSize)
		for {
			n, err := r.Read(buf)
			c := chunk{err: err}
			if n > 0 {
				c.data = append([]byte(nil), buf[:n]...)
			}
			if n > 0 || err != nil {
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

func (p *Processor) decode(ctx context.Context, body io.Reader, opts Options, out chan<- string) (Result, error) {
	res := Result{RunID: opts.RunID}
	logger := log.With().Str("run_id", opts.RunID.String()).Logger()

	dec := stream.NewDecoder(p.maxPendingLines)
	disp := NewDispatcher(p.tracker, opts.NewSession)
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	chunks := readChunks(readCtx, body)

	var idle <-chan time.Time
	var timer *time.Timer
	if p.idleTimeout > 0 {
		timer = time.NewTimer(p.idleTimeout)
		defer timer.Stop()
		idle = timer.C
	}

	// handle dispatches events in order; false means ctx ended mid-delivery.
	handle := func(events []stream.Event, errs []*stream.DecodeError) bool {
		for _, derr := range errs {
			logger.Warn().Err(derr).Msg("dropping undecodable event")
			res.DecodeErrors = append(res.DecodeErrors, derr)
		}
		for _, ev := range events {
			res.Events++
			text, ok := disp.Dispatch(ev)
			if !ok {
				continue
			}
			res.Content = text
			res.Emitted++
			for _, s := range p.sinks {
				s.OnContent(opts.RunID, ev.Index, text)
			}
			select {
			case out <- text:
			case <-ctx.Done():
				return false
			}
		}
		return true
	}

	stop := func(reason string) *stream.DecodeError {
		derr := dec.Abandon(reason)
		if derr != nil {
			logger.Warn().Err(derr).Msg("dropping undecodable event")
			res.DecodeErrors = append(res.DecodeErrors, derr)
		}
		return derr
	}

	for {
		select {
		case <-ctx.Done():
			stop(stream.ReasonCancelled)
			logger.Debug().Int("events", res.Events).Msg("run stopped by caller")
			return res, nil

		case <-idle:
			if derr := stop(stream.ReasonCancelled); derr != nil {
				return res, errors.Join(ErrIdleTimeout, derr)
			}
			return res, ErrIdleTimeout

		case c, ok := <-chunks:
			if !ok {
				// reader gave up because ctx ended
				stop(stream.ReasonCancelled)
				return res, nil
			}
			// delivery to a slow consumer is not idleness
			if timer != nil {
				timer.Stop()
			}
			if len(c.data) > 0 {
				res.Bytes += len(c.data)
				if !handle(dec.Feed(c.data)) {
					stop(stream.ReasonCancelled)
					return res, nil
				}
			}
			if c.err != nil {
				handle(dec.Flush())
				if errors.Is(c.err, io.EOF) {
					logger.Debug().
						Int("events", res.Events).
						Int("emitted", res.Emitted).
						Int("bytes", res.Bytes).
						Msg("run stream complete")
					return res, nil
				}
				if ctx.Err() != nil {
					return res, nil
				}
				return res, fmt.Errorf("read run stream: %w", c.err)
			}
			if timer != nil {
				timer.Reset(p.idleTimeout)
			}
		}
	}
}
