package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/namikmesic/graphstream/internal/agent"
	"github.com/namikmesic/graphstream/internal/tracker"
	"github.com/spf13/cobra"
)

func newAskCmd(a *app) *cobra.Command {
	var (
		assistantName string
		threadID      string
		followUp      bool
	)

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send a message and stream the agent's reply",
		Example: `  graphstream ask --assistant pr_reviewer "Review PR 1234"
  graphstream ask --thread 1ef6c2d4-... --follow-up "Delete the second comment"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if assistantName == "" && threadID == "" {
				assistantName = a.cfg.DefaultAssistant
			}

			out := newDeltaPrinter(cmd.OutOrStdout())
			ans, err := a.service.Ask(cmd.Context(), agent.AskRequest{
				Assistant: assistantName,
				ThreadID:  threadID,
				Message:   strings.Join(args, " "),
				FollowUp:  followUp,
			}, out.Print)
			out.End()

			if ans.ThreadID != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "thread: %s\n", ans.ThreadID)
			}
			if errors.Is(err, agent.ErrNoContent) {
				fmt.Fprintln(cmd.ErrOrStderr(), "No content was generated.")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&assistantName, "assistant", "a", "", "assistant name or graph id (defaults to the thread's assistant, then DEFAULT_ASSISTANT)")
	cmd.Flags().StringVarP(&threadID, "thread", "t", "", "existing thread id; a new thread is created when empty")
	cmd.Flags().BoolVarP(&followUp, "follow-up", "f", false, "mark the message as a follow-up on --thread")
	return cmd
}

// deltaPrinter writes streamed content. Partial messages repeat everything
// generated so far, so only the unseen suffix is written.
type deltaPrinter struct {
	w       io.Writer
	printed string
}

func newDeltaPrinter(w io.Writer) *deltaPrinter {
	return &deltaPrinter{w: w}
}

func (p *deltaPrinter) Print(text string) {
	switch {
	case strings.HasPrefix(text, p.printed):
		io.WriteString(p.w, text[len(p.printed):])
	case p.printed != "":
		io.WriteString(p.w, "\n"+text)
	default:
		io.WriteString(p.w, text)
	}
	p.printed = text
}

// End terminates the output with a newline if anything was written.
func (p *deltaPrinter) End() {
	if p.printed != "" && !strings.HasSuffix(p.printed, "\n") {
		io.WriteString(p.w, "\n")
	}
}

// stepPrinter shows tool progress as "[tool] a → b".
type stepPrinter struct {
	w io.Writer
}

func newStepPrinter(w io.Writer) *stepPrinter {
	return &stepPrinter{w: w}
}

func (p *stepPrinter) OnStep(s tracker.Session) {
	fmt.Fprintf(p.w, "[tool] %s\n", s.Trail())
}
