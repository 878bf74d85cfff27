package loam_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/loam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/espalier/internal/testutils"
	adapter "github.com/aretw0/espalier/pkg/adapters/loam"
	"github.com/aretw0/espalier/pkg/actions"
	"github.com/aretw0/espalier/pkg/codec"
	"github.com/aretw0/espalier/pkg/ports/tests"
	"github.com/aretw0/espalier/pkg/registry"
)

func newLibrary(t *testing.T, files map[string]string) *adapter.Library {
	t.Helper()

	tmpDir, repo := testutils.SetupTestRepo(t)
	for filename, content := range files {
		err := os.WriteFile(filepath.Join(tmpDir, filename), []byte(content), 0o644)
		require.NoError(t, err)
	}

	typedRepo := loam.NewTypedRepository[adapter.FlowMetadata](repo)
	return adapter.New(typedRepo)
}

func TestLibrary_Contract(t *testing.T) {
	lib := newLibrary(t, map[string]string{
		"greet.md": `---
name: greet
description: Says hello.
---
- type: delay
  name: beat
  duration: 1s`,
		"ship.md": `---
name: ship
env:
  target: staging
---
- type: run_process
  name: deploy
  program: deploy.sh`,
	})

	// GetFlow marshals the assembled document, so the expected bytes
	// are the marshaling of the same shape.
	canonical := func(def map[string]any) []byte {
		t.Helper()
		data, err := yaml.Marshal(def)
		require.NoError(t, err)
		return data
	}

	setupData := map[string][]byte{
		"greet": canonical(map[string]any{
			"name":        "greet",
			"description": "Says hello.",
			"actions": []any{
				map[string]any{"type": "delay", "name": "beat", "duration": "1s"},
			},
		}),
		"ship": canonical(map[string]any{
			"name": "ship",
			"env":  map[string]any{"target": "staging"},
			"actions": []any{
				map[string]any{"type": "run_process", "name": "deploy", "program": "deploy.sh"},
			},
		}),
	}

	tests.FlowLibraryContractTest(t, lib, setupData)
}

func TestLibrary_DecodesThroughCodec(t *testing.T) {
	lib := newLibrary(t, map[string]string{
		"invoice.md": `---
name: invoice
description: Enters one invoice.
env:
  amount: 125.5
---
- type: set_variable
  name: seed
  variable: attempts
  value: "0"
- type: delay
  duration: 250ms`,
	})

	raw, err := lib.GetFlow("invoice")
	require.NoError(t, err)

	c := codec.New(nil, registry.Deps{})
	f, err := c.DecodeFlow(raw)
	require.NoError(t, err)

	assert.Equal(t, "invoice", f.Name())
	assert.Equal(t, "Enters one invoice.", f.Description())

	amount, ok := f.Env.Get("amount")
	require.True(t, ok)
	assert.Equal(t, 125.5, amount)

	require.Equal(t, 2, f.Body.Len())
	sv, ok := f.Body.Actions()[0].(*actions.SetVariable)
	require.True(t, ok)
	assert.Equal(t, "attempts", sv.Variable)
}

func TestLibrary_EnvContractInFrontmatter(t *testing.T) {
	lib := newLibrary(t, map[string]string{
		"notify.md": `---
name: notify
requires:
  - api_key
env_types:
  retries: int
  tags: [string]
---
- type: delay
  duration: 1s`,
	})

	raw, err := lib.GetFlow("notify")
	require.NoError(t, err)

	c := codec.New(nil, registry.Deps{})
	f, err := c.DecodeFlow(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"api_key"}, f.Requires)
	require.Contains(t, f.EnvTypes, "retries")
	assert.Equal(t, "int", f.EnvTypes["retries"].Name())
	require.Contains(t, f.EnvTypes, "tags")
	assert.Equal(t, "[string]", f.EnvTypes["tags"].Name())
}

func TestLibrary_LargeIntegersSurviveDecoding(t *testing.T) {
	lib := newLibrary(t, map[string]string{
		"billing.md": `---
name: billing
env:
  invoice_id: 9007199254740993
  amount: 125.5
---
- type: delay
  duration: 1s`,
	})

	raw, err := lib.GetFlow("billing")
	require.NoError(t, err)

	c := codec.New(nil, registry.Deps{})
	f, err := c.DecodeFlow(raw)
	require.NoError(t, err)

	// 2^53+1: a float64 would silently round it to ...992.
	id, ok := f.Env.Get("invoice_id")
	require.True(t, ok)
	assert.EqualValues(t, int64(9007199254740993), id)

	amount, ok := f.Env.Get("amount")
	require.True(t, ok)
	assert.Equal(t, 125.5, amount)
}

func TestLibrary_NameFallsBackToFilename(t *testing.T) {
	lib := newLibrary(t, map[string]string{
		"implicit.md": `---
description: No explicit name.
---
- type: delay
  duration: 1s`,
	})

	raw, err := lib.GetFlow("implicit")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "name: implicit")
	assert.NotContains(t, string(raw), "implicit.md")
}

func TestLibrary_ActionsInFrontmatter(t *testing.T) {
	lib := newLibrary(t, map[string]string{
		"inline.md": `---
name: inline
actions:
  - type: delay
    name: halt
    duration: 2s
---`,
	})

	raw, err := lib.GetFlow("inline")
	require.NoError(t, err)

	c := codec.New(nil, registry.Deps{})
	f, err := c.DecodeFlow(raw)
	require.NoError(t, err)
	require.Equal(t, 1, f.Body.Len())

	pause, ok := f.Body.Actions()[0].(*actions.Delay)
	require.True(t, ok)
	assert.Equal(t, "halt", pause.Name())
}

func TestLibrary_BodyMayWrapActionsMapping(t *testing.T) {
	lib := newLibrary(t, map[string]string{
		"wrapped.md": `---
name: wrapped
---
actions:
  - type: delay
    duration: 1s`,
	})

	raw, err := lib.GetFlow("wrapped")
	require.NoError(t, err)

	c := codec.New(nil, registry.Deps{})
	f, err := c.DecodeFlow(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Body.Len())
}

func TestLibrary_EmptyFlowOmitsActions(t *testing.T) {
	lib := newLibrary(t, map[string]string{
		"hollow.md": `---
name: hollow
---`,
	})

	raw, err := lib.GetFlow("hollow")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "actions:", "a flow with no actions should keep the key absent")
}

func TestLibrary_ListFlows_SortedAndNormalized(t *testing.T) {
	body := `---
description: named by file
---
- type: delay
  duration: 1s`
	lib := newLibrary(t, map[string]string{
		"cherry.md": body,
		"apple.md":  body,
		"banana.md": body,
	})

	names, err := lib.ListFlows()
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "banana", "cherry"}, names)
}

func TestLibrary_WatchSignalsOnChange(t *testing.T) {
	tmpDir, repo := testutils.SetupTestRepo(t)
	path := filepath.Join(tmpDir, "greet.md")
	doc := "---\nname: greet\n---\n- type: delay\n  duration: 1s"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	lib := adapter.New(loam.NewTypedRepository[adapter.FlowMetadata](repo))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := lib.Watch(ctx)
	require.NoError(t, err)

	// Rewriting the file until the signal lands covers the window
	// between starting the watcher and it actually arming.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for rev := 0; ; rev++ {
		select {
		case <-ch:
			return
		case <-tick.C:
			updated := fmt.Sprintf("%s\n# rev %d\n", doc, rev)
			require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))
		case <-deadline:
			t.Fatal("no reload signal after file changes")
		}
	}
}

func TestLibrary_WatchStopsOnCancel(t *testing.T) {
	tmpDir, repo := testutils.SetupTestRepo(t)
	doc := "---\nname: greet\n---\n- type: delay\n  duration: 1s"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "greet.md"), []byte(doc), 0o644))

	lib := adapter.New(loam.NewTypedRepository[adapter.FlowMetadata](repo))

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := lib.Watch(ctx)
	require.NoError(t, err)

	cancel()

	// Pending signals may still drain; the channel itself must close.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("watch channel did not close after cancel")
		}
	}
}

func TestLibrary_ListFlows_DetectsCollisions(t *testing.T) {
	lib := newLibrary(t, map[string]string{
		"alias.md": `---
name: release
---
- type: delay
  duration: 1s`,
		"release.md": `---
description: named by file
---
- type: delay
  duration: 1s`,
	})

	_, err := lib.ListFlows()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
	assert.Contains(t, err.Error(), "release")
}
