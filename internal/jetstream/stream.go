package jetstream

import (
	"strings"
	"time"

	"github.com/google/uuid"
	nats "github.com/nats-io/nats.go"
)

const (
	StreamName    = "GRAPHSTREAM"
	SubjectPrefix = "graphstream.run."
)

// EnsureStream creates the progress stream if it does not exist yet.
func EnsureStream(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"graphstream.>"},
		Storage:   nats.FileStorage,
		MaxAge:    time.Hour,
		Retention: nats.LimitsPolicy,
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}
	return nil
}

func ContentSubject(runID uuid.UUID) string {
	return SubjectPrefix + runID.String() + ".content"
}

func StepSubject(runID uuid.UUID) string {
	return SubjectPrefix + runID.String() + ".step"
}

// RunSubjects matches every progress subject of one run.
func RunSubjects(runID uuid.UUID) string {
	return SubjectPrefix + runID.String() + ".>"
}
