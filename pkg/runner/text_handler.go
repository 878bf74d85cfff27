package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// inputLine is one pump read: a line of operator input or the reader's
// terminal error.
type inputLine struct {
	text string
	err  error
}

// TextHandler renders run progress as indented console lines and reads
// confirmation answers from a pumped reader. It is the strategy for an
// operator at a terminal; pipelines should use JSONHandler.
type TextHandler struct {
	out         io.Writer
	input       chan inputLine
	interactive bool

	// mu serializes the run loop's progress lines with the signal
	// watcher's notices.
	mu sync.Mutex
}

var _ IOHandler = (*TextHandler)(nil)

// NewTextHandler starts the input pump on r and renders to w.
func NewTextHandler(r io.Reader, w io.Writer) *TextHandler {
	h := &TextHandler{
		out:         w,
		input:       make(chan inputLine),
		interactive: isTerminal(r),
	}
	go h.pump(r)
	return h
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// pump pushes reads into a channel so prompts can race them against
// context cancellation. On a terminal EOF is not final (Ctrl+D), so
// the pump backs off and keeps reading; on a pipe it ends the stream.
func (h *TextHandler) pump(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for {
		if scanner.Scan() {
			h.input <- inputLine{text: scanner.Text()}
			continue
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		if h.interactive && err == io.EOF {
			time.Sleep(50 * time.Millisecond)
			scanner = bufio.NewScanner(r)
			continue
		}
		h.input <- inputLine{err: err}
		close(h.input)
		return
	}
}

// Hooks renders flow progress as it happens. Successful action exits
// stay quiet; failures and retries are reported where they occur.
func (h *TextHandler) Hooks() *domain.LifecycleHooks {
	return &domain.LifecycleHooks{
		OnFlowStarted: func(_ context.Context, ev *domain.FlowEvent) {
			h.println("=== " + ev.Flow + " ===")
		},
		OnActionStarted: func(_ context.Context, ev *domain.ActionEvent) {
			h.println(indent(ev.Path) + "* " + ev.Action)
		},
		OnActionFinished: func(_ context.Context, ev *domain.ActionEvent) {
			if ev.Outcome != domain.OutcomeFailure {
				return
			}
			h.println(indent(ev.Path) + "  failed: " + SanitizeOutput(ev.Error))
		},
		OnRetryAttempt: func(_ context.Context, ev *domain.ActionEvent) {
			h.println(indent(ev.Path) + fmt.Sprintf("  retry %d: %s", ev.Attempt, SanitizeOutput(ev.Error)))
		},
	}
}

// Confirm prints the prompt and reads one answer. Only y or yes (any
// case) approve; unreadable input is re-asked, a closed reader denies.
func (h *TextHandler) Confirm(ctx context.Context, prompt string) (bool, error) {
	h.println(prompt + " [y/N]")
	for {
		h.print("> ")
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case in, ok := <-h.input:
			if !ok {
				return false, fmt.Errorf("input closed")
			}
			if in.err != nil {
				return false, fmt.Errorf("reading confirmation: %w", in.err)
			}
			answer, err := SanitizeInput(in.text)
			if err != nil {
				h.println(fmt.Sprintf("Error: %v. Please try again.", err))
				continue
			}
			switch strings.ToLower(answer) {
			case "y", "yes":
				return true, nil
			default:
				return false, nil
			}
		}
	}
}

// Result renders the final verdict, with a resume hint when the run
// can continue later.
func (h *TextHandler) Result(_ context.Context, res ports.RunResult) error {
	switch {
	case res.Outcome.Paused():
		return h.println(fmt.Sprintf("Paused. Resume with run ID %s.", res.RunID))
	case res.Outcome.Failed():
		msg := "Failed."
		if res.Outcome.Err != nil {
			msg = "Failed: " + SanitizeOutput(res.Outcome.Err.Error())
		}
		if err := h.println(msg); err != nil {
			return err
		}
		if res.Snapshot != nil {
			return h.println(fmt.Sprintf("Retry from the failed step with run ID %s.", res.RunID))
		}
		return nil
	default:
		return h.println("Completed.")
	}
}

// SystemOutput prints host notices distinguishably from flow progress.
func (h *TextHandler) SystemOutput(_ context.Context, msg string) error {
	return h.println("[system] " + msg)
}

func (h *TextHandler) println(s string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.out, s)
	return err
}

func (h *TextHandler) print(s string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprint(h.out, s)
	return err
}

// indent nests two spaces per tree level below the root sequence.
func indent(path string) string {
	depth := strings.Count(path, "/") - 1
	if depth < 0 {
		depth = 0
	}
	return strings.Repeat("  ", depth)
}
