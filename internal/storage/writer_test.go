package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestBatchWriterRunsEveryJobInOrder(t *testing.T) {
	w := NewBatchWriter(nil, 100, 3, 10)

	var mu sync.Mutex
	var ran []int
	for i := range 7 {
		w.Enqueue(WriteJobFunc(func(context.Context, *pgxpool.Pool) error {
			mu.Lock()
			defer mu.Unlock()
			ran = append(ran, i)
			if i == 2 {
				return errors.New("constraint violation")
			}
			return nil
		}))
	}
	w.Shutdown()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, ran)
	assert.Equal(t, WriterStats{Executed: 6, Failed: 1}, w.Stats())
}

func TestBatchWriterDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	w := NewBatchWriter(nil, 1, 1, 1000)

	var count int
	var mu sync.Mutex
	job := WriteJobFunc(func(context.Context, *pgxpool.Pool) error {
		<-block
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	for range 10 {
		w.Enqueue(job)
	}
	close(block)
	w.Shutdown()

	assert.Less(t, count, 10)
	assert.GreaterOrEqual(t, count, 1)
	s := w.Stats()
	assert.Equal(t, int64(10), s.Executed+s.Dropped)
}

func TestJobNames(t *testing.T) {
	assert.Equal(t, "insert run", jobName(InsertRunJob(&RunRecord{})))
	assert.Equal(t, "copy run events", jobName(InsertRunEventsJob(uuid.New(), time.Now(), nil)))
	assert.Equal(t, "anonymous", jobName(WriteJobFunc(func(context.Context, *pgxpool.Pool) error { return nil })))
}

func TestDiscard(t *testing.T) {
	Discard.Enqueue(WriteJobFunc(func(context.Context, *pgxpool.Pool) error {
		t.Fatal("discarded job executed")
		return nil
	}))
}

func TestNilIfEmpty(t *testing.T) {
	assert.Nil(t, nilIfEmpty(""))
	assert.Equal(t, "x", *nilIfEmpty("x"))
}
