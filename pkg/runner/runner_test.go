package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/expression"
	"github.com/aretw0/espalier/pkg/ports"
)

func hostEngine(t *testing.T, opts ...espalier.Option) *espalier.Engine {
	t.Helper()

	lib := memory.NewLibrary()
	lib.AddFlow("greet", []byte(`
name: greet
actions:
  - type: set_variable
    name: compose
    variable: msg
    value: "'hi'"
`))
	lib.AddFlow("ship", []byte(`
name: ship
actions:
  - type: run_process
    name: deploy
    program: deploy.sh
    args: ["--env", "staging"]
    result_var: ship_log
`))
	lib.AddFlow("slow", []byte(`
name: slow
actions:
  - type: delay
    name: nap
    duration: 10s
`))

	engine, err := espalier.New("", append([]espalier.Option{espalier.WithLibrary(lib)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return engine
}

func TestRunner_Run_TextFlow(t *testing.T) {
	engine := hostEngine(t)

	out := &bytes.Buffer{}
	host := New(WithHandler(NewTextHandler(strings.NewReader(""), out)))

	res, err := host.Run(context.Background(), engine, "greet")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Outcome.Success() {
		t.Fatalf("expected success, got %s", res.Outcome)
	}

	got := out.String()
	for _, want := range []string{"=== greet ===", "* compose", "Completed."} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunner_Run_JSONHeadless(t *testing.T) {
	engine := hostEngine(t)

	out := &bytes.Buffer{}
	host := New(
		WithHandler(NewJSONHandler(strings.NewReader(""), out)),
		WithHeadless(true),
	)

	res, err := host.Run(context.Background(), engine, "greet")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Outcome.Success() {
		t.Fatalf("expected success, got %s", res.Outcome)
	}

	lines := decodeLines(t, out)
	seen := map[string]bool{}
	for _, line := range lines {
		seen[fmt.Sprint(line["type"])] = true
	}
	for _, want := range []string{"flow_started", "action_started", "flow_finished", "run_result"} {
		if !seen[want] {
			t.Errorf("expected a %s line in the stream", want)
		}
	}

	last := lines[len(lines)-1]
	if last["type"] != "run_result" || last["outcome"] != "success" {
		t.Errorf("expected the verdict to close the stream, got %v", last)
	}
}

func TestRunner_ConfirmationDeniesLaunch(t *testing.T) {
	stub := &stubCommandRunner{}
	engine := hostEngine(t, espalier.WithCommandRunner(NewPolicyRunner(stub)))

	out := &bytes.Buffer{}
	host := New(WithHandler(NewTextHandler(strings.NewReader("n\n"), out)))

	res, err := host.Run(context.Background(), engine, "ship")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Outcome.Failed() {
		t.Fatalf("expected the denial to fail the flow, got %s", res.Outcome)
	}
	if !errors.Is(res.Outcome.Err, ErrLaunchDenied) {
		t.Errorf("expected ErrLaunchDenied in the outcome, got %v", res.Outcome.Err)
	}
	if len(stub.calls) != 0 {
		t.Errorf("a denied launch must not execute: %v", stub.calls)
	}
	if !strings.Contains(out.String(), "Launch request: deploy.sh --env staging") {
		t.Errorf("expected the confirmation prompt:\n%s", out.String())
	}
}

func TestRunner_ConfirmationApprovesLaunch(t *testing.T) {
	stub := &stubCommandRunner{res: ports.ProcessResult{Stdout: "shipped\n"}}
	engine := hostEngine(t, espalier.WithCommandRunner(NewPolicyRunner(stub)))

	out := &bytes.Buffer{}
	host := New(WithHandler(NewTextHandler(strings.NewReader("y\n"), out)))

	res, err := host.Run(context.Background(), engine, "ship")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Outcome.Success() {
		t.Fatalf("expected success after approval, got %s", res.Outcome)
	}
	if len(stub.calls) != 1 || stub.calls[0] != "deploy.sh --env staging" {
		t.Errorf("expected the approved launch to execute once, got %v", stub.calls)
	}
}

func TestRunner_ResumeContinuesStoredRun(t *testing.T) {
	lib := memory.NewLibrary()
	lib.AddFlow("ingest", []byte(`
name: ingest
actions:
  - type: set_variable
    name: mark start
    variable: started
    value: "true"
  - type: wait_until
    name: upstream ready
    condition: ready()
    interval: 5ms
    timeout: 40ms
  - type: set_variable
    name: mark done
    variable: done
    value: "true"
`))

	var ready atomic.Bool
	eval := expression.New(expression.WithFunction("ready", func() bool {
		return ready.Load()
	}))

	engine, err := espalier.New("",
		espalier.WithLibrary(lib),
		espalier.WithStore(memory.NewStore()),
		espalier.WithEvaluator(eval),
	)
	if err != nil {
		t.Fatal(err)
	}

	out := &bytes.Buffer{}
	host := New(WithHandler(NewTextHandler(strings.NewReader(""), out)), WithHeadless(true))

	res, err := host.Run(context.Background(), engine, "ingest")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Outcome.Failed() {
		t.Fatalf("expected the wait to time out, got %s", res.Outcome)
	}
	if !strings.Contains(out.String(), "run ID "+res.RunID) {
		t.Errorf("expected the retry hint:\n%s", out.String())
	}

	ready.Store(true)

	resumed, err := host.Resume(context.Background(), engine, res.RunID)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if !resumed.Outcome.Success() {
		t.Fatalf("expected the resumed run to complete, got %s", resumed.Outcome)
	}
	if !strings.Contains(out.String(), "Completed.") {
		t.Errorf("expected the completion verdict:\n%s", out.String())
	}
}

func TestRunner_InterruptPausesRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("delivering SIGINT to the test process is not portable to windows")
	}

	engine := hostEngine(t)

	out := &bytes.Buffer{}
	host := New(WithHandler(NewTextHandler(strings.NewReader(""), out)), WithHeadless(true))

	go func() {
		time.Sleep(100 * time.Millisecond)
		p, err := os.FindProcess(os.Getpid())
		if err == nil {
			_ = p.Signal(os.Interrupt)
		}
	}()

	res, err := host.Run(context.Background(), engine, "slow")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Outcome.Paused() {
		t.Fatalf("expected the interrupt to pause, got %s", res.Outcome)
	}

	got := out.String()
	if !strings.Contains(got, "pausing at the next safe point") {
		t.Errorf("expected the interrupt notice:\n%s", got)
	}
	if !strings.Contains(got, "Paused. Resume with run ID "+res.RunID) {
		t.Errorf("expected the pause verdict:\n%s", got)
	}
}
