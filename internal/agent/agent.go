// Package agent runs one conversational turn against the agent service:
// it resolves the assistant, opens a streamed run on a thread and hands the
// body to the processor while a copy is archived.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/namikmesic/graphstream/internal/assistant"
	"github.com/namikmesic/graphstream/internal/client"
	"github.com/namikmesic/graphstream/internal/processor"
	"github.com/namikmesic/graphstream/internal/storage"
	"github.com/namikmesic/graphstream/internal/stream"
	"github.com/namikmesic/graphstream/internal/tracker"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNoContent means the run finished without producing any text.
	ErrNoContent = errors.New("no content was generated")
	// ErrUnknownAssistant means the service has no assistant by that name.
	ErrUnknownAssistant = errors.New("unknown assistant")
)

// Transport is the part of the service client a turn needs.
type Transport interface {
	CreateThread(ctx context.Context) (client.Thread, error)
	StreamRun(ctx context.Context, threadID string, req client.RunRequest) (io.ReadCloser, error)
}

type Resolver interface {
	Resolve(ctx context.Context, name string) (string, bool, error)
}

// RunListener is told which run is about to be decoded.
type RunListener interface {
	BeginRun(runID uuid.UUID)
}

type Deps struct {
	Transport Transport
	Resolver  Resolver
	Threads   *assistant.Associations
	Processor *processor.Processor
	Tracker   *tracker.Tracker
	Recorder  *processor.Recorder
	Writer    storage.Enqueuer
	Listeners []RunListener
}

type Service struct {
	Deps
}

func New(deps Deps) *Service {
	if deps.Writer == nil {
		deps.Writer = storage.Discard
	}
	if deps.Threads == nil {
		deps.Threads = assistant.NewAssociations(nil)
	}
	return &Service{Deps: deps}
}

type AskRequest struct {
	Assistant string // name or graph id; defaults to the thread's assistant
	ThreadID  string // empty starts a new thread
	Message   string
	FollowUp  bool // recorded on the run; a follow-up is still a new turn
}

type Answer struct {
	ThreadID    string
	AssistantID string
	RunID       uuid.UUID
	Content     string
	Result      processor.Result
}

// Ask sends req.Message and streams the reply, calling emit for each piece
// of extracted text. A reply without text returns ErrNoContent along with
// the answer.
func (s *Service) Ask(ctx context.Context, req AskRequest, emit func(string)) (Answer, error) {
	var ans Answer

	assistantID, err := s.assistantFor(ctx, req)
	if err != nil {
		return ans, err
	}
	ans.AssistantID = assistantID

	threadID := req.ThreadID
	followUp := req.FollowUp
	if threadID == "" {
		th, err := s.Transport.CreateThread(ctx)
		if err != nil {
			return ans, err
		}
		threadID = th.ThreadID
		followUp = false
		log.Info().Str("thread_id", threadID).Msg("thread created")
	}
	ans.ThreadID = threadID
	s.Threads.Remember(ctx, threadID, assistantID)

	runID := uuid.New()
	ts := time.Now()
	ans.RunID = runID
	before := s.markSession()

	s.Writer.Enqueue(storage.InsertRunJob(&storage.RunRecord{
		ID:          runID,
		Timestamp:   ts,
		ThreadID:    threadID,
		AssistantID: assistantID,
		Prompt:      req.Message,
		FollowUp:    followUp,
	}))

	body, err := s.Transport.StreamRun(ctx, threadID, client.RunRequest{
		AssistantID: assistantID,
		Input:       client.RunInput{Messages: []client.InputMessage{{Role: "user", Content: req.Message}}},
	})
	if err != nil {
		s.finish(runID, ts, before, processor.Result{}, err, false)
		return ans, err
	}

	mirror, copied := stream.NewMirror(body)
	recorded := make(chan struct{})
	go func() {
		defer close(recorded)
		if s.Recorder != nil {
			s.Recorder.Record(runID, ts, copied)
			return
		}
		io.Copy(io.Discard, copied)
	}()

	for _, l := range s.Listeners {
		l.BeginRun(runID)
	}

	// every ask is its own user turn, so its first tool call opens a session
	res, err := s.Processor.Process(ctx, mirror, processor.Options{RunID: runID, NewSession: true}, emit)
	mirror.Close()
	<-recorded

	ans.Result = res
	ans.Content = res.Content
	s.finish(runID, ts, before, res, err, ctx.Err() != nil)

	log.Info().
		Str("run_id", runID.String()).
		Str("thread_id", threadID).
		Int("events", res.Events).
		Int("emitted", res.Emitted).
		Int("decode_errors", len(res.DecodeErrors)).
		Dur("duration", time.Since(ts)).
		Msg("run finished")

	if err != nil {
		return ans, err
	}
	if res.Content == "" {
		return ans, ErrNoContent
	}
	return ans, nil
}

func (s *Service) assistantFor(ctx context.Context, req AskRequest) (string, error) {
	name := req.Assistant
	if name == "" && req.ThreadID != "" {
		if id, ok := s.Threads.Lookup(ctx, req.ThreadID); ok {
			return id, nil
		}
	}
	if name == "" {
		return "", fmt.Errorf("%w: no assistant given and none recorded for thread %q", ErrUnknownAssistant, req.ThreadID)
	}

	id, ok, err := s.Resolver.Resolve(ctx, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAssistant, name)
	}
	return id, nil
}

// sessionMark identifies the tracker state a run starts from.
type sessionMark struct {
	id    uuid.UUID
	steps int
}

func (s *Service) markSession() sessionMark {
	if s.Tracker == nil {
		return sessionMark{}
	}
	sess, ok := s.Tracker.Current()
	if !ok {
		return sessionMark{}
	}
	return sessionMark{id: sess.ID, steps: len(sess.Steps)}
}

// runTrail returns the tool trail recorded during the run that started at
// before, or "" when the run recorded no tool call.
func (s *Service) runTrail(before sessionMark) string {
	if s.Tracker == nil {
		return ""
	}
	sess, ok := s.Tracker.Current()
	if !ok || (sess.ID == before.id && len(sess.Steps) == before.steps) {
		return ""
	}
	return sess.Trail()
}

func (s *Service) finish(runID uuid.UUID, ts time.Time, before sessionMark, res processor.Result, runErr error, cancelled bool) {
	outcome := storage.RunOutcome{
		Status:       "completed",
		Content:      res.Content,
		Events:       res.Events,
		Emitted:      res.Emitted,
		DecodeErrors: len(res.DecodeErrors),
		Bytes:        res.Bytes,
		Duration:     time.Since(ts),
	}
	switch {
	case runErr != nil:
		outcome.Status = "failed"
		outcome.ErrorMessage = runErr.Error()
	case cancelled:
		outcome.Status = "cancelled"
	}
	outcome.ToolTrail = s.runTrail(before)
	s.Writer.Enqueue(storage.FinishRunJob(runID, ts, outcome))
}
