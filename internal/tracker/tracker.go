// Package tracker follows the tool calls an agent reports during a run and
// turns them into per-session progress: the step currently running and the
// trail of distinct consecutive tool names seen so far.
package tracker

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const trailSeparator = " → "

// ToolCall is a tool invocation reported by the agent. Name is its identity
// for deduplication.
type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Session groups the tool calls of one user-initiated turn.
type Session struct {
	ID        uuid.UUID `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Current   ToolCall  `json:"current"`
	Steps     []string  `json:"steps"`
}

// Trail renders the session's steps, e.g. "get_pull_request_details → get_pr_changes".
func (s Session) Trail() string {
	return strings.Join(s.Steps, trailSeparator)
}

func (s Session) clone() Session {
	s.Steps = append([]string(nil), s.Steps...)
	return s
}

// StepObserver receives a snapshot of the current session each time a new
// step is recorded.
type StepObserver interface {
	OnStep(Session)
}

// Tracker holds the current session and the sessions that preceded it.
// It is safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	current   *Session
	previous  []Session
	observers []StepObserver
	now       func() time.Time
}

func New(observers ...StepObserver) *Tracker {
	return &Tracker{observers: observers, now: time.Now}
}

// Observe records call. A new session is opened when startsNewSession is set
// or none is open yet. A call with the same name as the session's latest step
// is dropped. Observe reports whether the call was recorded.
func (t *Tracker) Observe(call ToolCall, startsNewSession bool) bool {
	if call.Name == "" {
		return false
	}

	t.mu.Lock()
	switch {
	case startsNewSession || t.current == nil:
		if t.current != nil {
			t.previous = append(t.previous, *t.current)
		}
		t.current = &Session{
			ID:        uuid.New(),
			StartedAt: t.now(),
			Current:   call,
			Steps:     []string{call.Name},
		}
	case t.current.Steps[len(t.current.Steps)-1] == call.Name:
		t.mu.Unlock()
		return false
	default:
		t.current.Steps = append(t.current.Steps, call.Name)
		t.current.Current = call
	}
	snapshot := t.current.clone()
	observers := t.observers
	t.mu.Unlock()

	log.Debug().
		Str("session_id", snapshot.ID.String()).
		Str("tool", call.Name).
		Str("trail", snapshot.Trail()).
		Msg("tool step")

	for _, o := range observers {
		o.OnStep(snapshot)
	}
	return true
}

// Current returns a copy of the open session, if any.
func (t *Tracker) Current() (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Session{}, false
	}
	return t.current.clone(), true
}

// Sessions returns every session in the order they were opened, the current
// one last.
func (t *Tracker) Sessions() []Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Session, 0, len(t.previous)+1)
	for _, s := range t.previous {
		out = append(out, s.clone())
	}
	if t.current != nil {
		out = append(out, t.current.clone())
	}
	return out
}
