package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// JSONHandler speaks line-delimited JSON for sidecar integrations:
// every lifecycle event, verdict and notice goes out as one object,
// and confirmations are request/response pairs. Lifecycle events are
// encoded as the domain defines them; the envelopes below cover the
// rest of the protocol.
type JSONHandler struct {
	enc       *json.Encoder
	responses chan confirmResult

	// mu serializes encodes from the run loop and the signal watcher.
	mu sync.Mutex
}

var _ IOHandler = (*JSONHandler)(nil)

// confirmRequest asks the sidecar for a launch decision.
type confirmRequest struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Prompt    string    `json:"prompt"`
}

// confirmResponse is the sidecar's decision.
type confirmResponse struct {
	Type    string `json:"type"`
	Approve bool   `json:"approve"`
}

// resultEnvelope is the final verdict of one hosted run.
type resultEnvelope struct {
	Type      string             `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	RunID     string             `json:"run_id,omitempty"`
	Outcome   domain.OutcomeCode `json:"outcome"`
	Error     string             `json:"error,omitempty"`
	Resumable bool               `json:"resumable"`
}

// systemEnvelope carries host notices.
type systemEnvelope struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

type confirmResult struct {
	resp confirmResponse
	err  error
}

// NewJSONHandler emits to w and decodes decisions from r.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	h := &JSONHandler{
		enc:       json.NewEncoder(w),
		responses: make(chan confirmResult),
	}
	go h.pump(json.NewDecoder(r))
	return h
}

// pump decodes incoming decisions so Confirm can race them against
// context cancellation.
func (h *JSONHandler) pump(dec *json.Decoder) {
	for {
		var resp confirmResponse
		if err := dec.Decode(&resp); err != nil {
			h.responses <- confirmResult{err: err}
			close(h.responses)
			return
		}
		h.responses <- confirmResult{resp: resp}
	}
}

// Hooks streams every lifecycle event to the sidecar as it happens.
func (h *JSONHandler) Hooks() *domain.LifecycleHooks {
	return &domain.LifecycleHooks{
		OnFlowStarted:     func(_ context.Context, ev *domain.FlowEvent) { h.send(ev) },
		OnFlowFinished:    func(_ context.Context, ev *domain.FlowEvent) { h.send(ev) },
		OnActionStarted:   func(_ context.Context, ev *domain.ActionEvent) { h.send(ev) },
		OnActionFinished:  func(_ context.Context, ev *domain.ActionEvent) { h.send(ev) },
		OnRetryAttempt:    func(_ context.Context, ev *domain.ActionEvent) { h.send(ev) },
		OnVariableChanged: func(_ context.Context, ev *domain.VariableEvent) { h.send(ev) },
	}
}

// Confirm emits a confirm_request and waits for the sidecar's
// decision. A closed or unreadable input denies.
func (h *JSONHandler) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := h.send(confirmRequest{Type: "confirm_request", Timestamp: time.Now(), Prompt: prompt}); err != nil {
		return false, fmt.Errorf("emitting confirm request: %w", err)
	}

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case r, ok := <-h.responses:
		if !ok {
			return false, fmt.Errorf("input closed")
		}
		if r.err != nil {
			return false, fmt.Errorf("reading confirmation: %w", r.err)
		}
		if r.resp.Type != "" && r.resp.Type != "confirm_response" {
			return false, fmt.Errorf("unexpected message type %q", r.resp.Type)
		}
		return r.resp.Approve, nil
	}
}

// Result emits the final verdict envelope.
func (h *JSONHandler) Result(_ context.Context, res ports.RunResult) error {
	return h.send(resultEnvelope{
		Type:      "run_result",
		Timestamp: time.Now(),
		RunID:     res.RunID,
		Outcome:   res.Outcome.Code,
		Error:     errString(res.Outcome.Err),
		Resumable: res.Snapshot != nil,
	})
}

// SystemOutput emits a host notice envelope.
func (h *JSONHandler) SystemOutput(_ context.Context, msg string) error {
	return h.send(systemEnvelope{Type: "system", Timestamp: time.Now(), Message: msg})
}

func (h *JSONHandler) send(v any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enc.Encode(v)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
