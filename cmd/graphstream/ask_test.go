package main

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/namikmesic/graphstream/internal/tracker"
	"github.com/stretchr/testify/assert"
)

func TestDeltaPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newDeltaPrinter(&buf)

	p.Print("Looking")
	p.Print("Looking at the PR")
	p.Print("Looking at the PR")
	p.Print("Score: 8/10")
	p.End()

	assert.Equal(t, "Looking at the PR\nScore: 8/10\n", buf.String())
}

func TestDeltaPrinterNothingPrinted(t *testing.T) {
	var buf bytes.Buffer
	newDeltaPrinter(&buf).End()
	assert.Empty(t, buf.String())
}

func TestStepPrinter(t *testing.T) {
	var buf bytes.Buffer
	newStepPrinter(&buf).OnStep(tracker.Session{ID: uuid.New(), Steps: []string{"get_pull_request_details", "get_pr_changes"}})
	assert.Equal(t, "[tool] get_pull_request_details → get_pr_changes\n", buf.String())
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd(&app{})

	ask, _, err := root.Find([]string{"ask"})
	assert.NoError(t, err)
	assert.NotNil(t, ask.Flags().Lookup("follow-up"))

	newCmd, _, err := root.Find([]string{"threads", "new"})
	assert.NoError(t, err)
	assert.Equal(t, "new", newCmd.Name())
}
