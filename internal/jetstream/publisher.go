package jetstream

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/namikmesic/graphstream/internal/tracker"
	nats "github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type ContentMessage struct {
	RunID uuid.UUID `json:"run_id"`
	Index int       `json:"index"`
	Text  string    `json:"text"`
	TS    time.Time `json:"ts"`
}

type StepMessage struct {
	RunID     uuid.UUID        `json:"run_id"`
	SessionID uuid.UUID        `json:"session_id"`
	Tool      tracker.ToolCall `json:"tool"`
	Trail     string           `json:"trail"`
	TS        time.Time        `json:"ts"`
}

// Publisher forwards run progress to JetStream. Publish failures are logged
// and never affect the run.
type Publisher struct {
	js nats.JetStreamContext

	mu    sync.RWMutex
	runID uuid.UUID // run that tool steps are attributed to
}

func NewPublisher(js nats.JetStreamContext) *Publisher {
	return &Publisher{js: js}
}

// BeginRun attributes subsequent tool steps to runID.
func (p *Publisher) BeginRun(runID uuid.UUID) {
	p.mu.Lock()
	p.runID = runID
	p.mu.Unlock()
}

func (p *Publisher) OnContent(runID uuid.UUID, index int, text string) {
	p.publish(ContentSubject(runID), ContentMessage{
		RunID: runID,
		Index: index,
		Text:  text,
		TS:    time.Now(),
	})
}

func (p *Publisher) OnStep(s tracker.Session) {
	p.mu.RLock()
	runID := p.runID
	p.mu.RUnlock()

	p.publish(StepSubject(runID), StepMessage{
		RunID:     runID,
		SessionID: s.ID,
		Tool:      s.Current,
		Trail:     s.Trail(),
		TS:        time.Now(),
	})
}

func (p *Publisher) publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to encode progress message")
		return
	}
	if _, err := p.js.Publish(subject, data); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to publish progress message")
	}
}
