package espalier_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/adapters/memory"
)

func runnerEngine(t *testing.T) *espalier.Engine {
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
	lib.AddFlow("never", []byte(`
name: never
actions:
  - type: wait_until
    name: wait for nothing
    condition: "false"
    interval: 5ms
    timeout: 30ms
`))
	lib.AddFlow("slow", []byte(`
name: slow
actions:
  - type: delay
    name: nap
    duration: 10s
`))

	engine, err := espalier.New("", espalier.WithLibrary(lib))
	if err != nil {
		t.Fatal(err)
	}
	return engine
}

func TestRunner_ReportsProgress(t *testing.T) {
	engine := runnerEngine(t)

	var buf bytes.Buffer
	runner := espalier.NewRunner(&buf)

	res, err := runner.Run(context.Background(), engine, "greet")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Outcome.Success() {
		t.Fatalf("Expected success, got %s", res.Outcome)
	}

	out := buf.String()
	for _, want := range []string{"--- greet ---", "-> compose", "flow completed"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestRunner_ReportsFailure(t *testing.T) {
	engine := runnerEngine(t)

	var buf bytes.Buffer
	runner := espalier.NewRunner(&buf)

	res, err := runner.Run(context.Background(), engine, "never")
	if err != nil {
		t.Fatalf("Run returned an engine error: %v", err)
	}
	if !res.Outcome.Failed() {
		t.Fatalf("Expected failure, got %s", res.Outcome)
	}

	out := buf.String()
	if !strings.Contains(out, "FAIL wait for nothing") {
		t.Errorf("Expected the failed action to be reported:\n%s", out)
	}
	if !strings.Contains(out, "flow failure") {
		t.Errorf("Expected the failure verdict:\n%s", out)
	}
}

func TestRunner_ReportsPause(t *testing.T) {
	engine := runnerEngine(t)

	var buf bytes.Buffer
	runner := espalier.NewRunner(&buf)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := runner.Run(ctx, engine, "slow")
	if err != nil {
		t.Fatalf("Run returned an engine error: %v", err)
	}
	if !res.Outcome.Paused() {
		t.Fatalf("Expected a pause, got %s", res.Outcome)
	}

	if !strings.Contains(buf.String(), "flow paused (resume with run ID "+res.RunID+")") {
		t.Errorf("Expected the pause verdict with the run ID:\n%s", buf.String())
	}
}

func TestRunner_QuietKeepsVerdictsOnly(t *testing.T) {
	engine := runnerEngine(t)

	var buf bytes.Buffer
	runner := espalier.NewRunner(&buf)
	runner.Quiet = true

	if _, err := runner.Run(context.Background(), engine, "greet"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "-> ") || strings.Contains(out, "--- greet ---") {
		t.Errorf("Quiet mode must not print progress lines:\n%s", out)
	}
	if !strings.Contains(out, "flow completed") {
		t.Errorf("Quiet mode must keep the verdict:\n%s", out)
	}
}

func TestRunner_RendererStylesLines(t *testing.T) {
	engine := runnerEngine(t)

	var buf bytes.Buffer
	runner := espalier.NewRunner(&buf)
	runner.Renderer = func(line string) (string, error) {
		return strings.ToUpper(line), nil
	}

	if _, err := runner.Run(context.Background(), engine, "greet"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(buf.String(), "FLOW COMPLETED") {
		t.Errorf("Expected the renderer to transform output:\n%s", buf.String())
	}
}

func TestRunner_RequiresOutput(t *testing.T) {
	engine := runnerEngine(t)

	runner := &espalier.Runner{}
	if _, err := runner.Run(context.Background(), engine, "greet"); err == nil {
		t.Fatal("Expected an error when no output writer is set")
	}
}
