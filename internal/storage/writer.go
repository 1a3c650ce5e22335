package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const flushTimeout = 10 * time.Second

// WriteJob is one statement (or COPY) issued on behalf of a run.
type WriteJob interface {
	Execute(ctx context.Context, pool *pgxpool.Pool) error
}

// WriteJobFunc adapts a function into a WriteJob.
type WriteJobFunc func(ctx context.Context, pool *pgxpool.Pool) error

func (f WriteJobFunc) Execute(ctx context.Context, pool *pgxpool.Pool) error {
	return f(ctx, pool)
}

type namedJob struct {
	name string
	WriteJob
}

// Named labels job so failures can be traced back to the run table they touch.
func Named(name string, job WriteJob) WriteJob {
	return namedJob{name: name, WriteJob: job}
}

func jobName(job WriteJob) string {
	if n, ok := job.(namedJob); ok {
		return n.name
	}
	return "anonymous"
}

// Enqueuer accepts write jobs without blocking the caller.
type Enqueuer interface {
	Enqueue(job WriteJob)
}

type discard struct{}

func (discard) Enqueue(WriteJob) {}

// Discard drops every job; used when DATABASE_URL is empty.
var Discard Enqueuer = discard{}

// WriterStats counts jobs that never reached the database.
type WriterStats struct {
	Executed int64
	Failed   int64
	Dropped  int64
}

// BatchWriter runs write jobs off the streaming path. Jobs execute in
// enqueue order, so a run's INSERT always precedes its UPDATE and events.
type BatchWriter struct {
	pool      *pgxpool.Pool
	jobs      chan WriteJob
	batchSize int
	interval  time.Duration
	wg        sync.WaitGroup

	executed atomic.Int64
	failed   atomic.Int64
	dropped  atomic.Int64
}

func NewBatchWriter(pool *pgxpool.Pool, bufferSize, batchSize, flushMs int) *BatchWriter {
	if batchSize < 1 {
		batchSize = 1
	}
	interval := time.Duration(flushMs) * time.Millisecond
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	w := &BatchWriter{
		pool:      pool,
		jobs:      make(chan WriteJob, bufferSize),
		batchSize: batchSize,
		interval:  interval,
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

func (w *BatchWriter) Enqueue(job WriteJob) {
	select {
	case w.jobs <- job:
	default:
		w.dropped.Add(1)
		log.Warn().Str("job", jobName(job)).Msg("write queue full, dropping job")
	}
}

func (w *BatchWriter) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	batch := make([]WriteJob, 0, w.batchSize)
	for {
		select {
		case job, ok := <-w.jobs:
			if !ok {
				w.flush(batch)
				return
			}
			batch = append(batch, job)
			if len(batch) >= w.batchSize {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			w.flush(batch)
			batch = batch[:0]
		}
	}
}

func (w *BatchWriter) flush(batch []WriteJob) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	for _, job := range batch {
		if err := job.Execute(ctx, w.pool); err != nil {
			w.failed.Add(1)
			log.Error().Err(err).Str("job", jobName(job)).Msg("write job failed")
			continue
		}
		w.executed.Add(1)
	}
}

func (w *BatchWriter) Stats() WriterStats {
	return WriterStats{
		Executed: w.executed.Load(),
		Failed:   w.failed.Load(),
		Dropped:  w.dropped.Load(),
	}
}

// Shutdown flushes queued jobs and stops the writer.
func (w *BatchWriter) Shutdown() {
	close(w.jobs)
	w.wg.Wait()

	s := w.Stats()
	log.Debug().
		Int64("executed", s.Executed).
		Int64("failed", s.Failed).
		Int64("dropped", s.Dropped).
		Msg("run writer stopped")
}
