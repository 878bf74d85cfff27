package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const factoryFlow = `---
name: greet
description: Smoke flow for the engine factory.
---
- type: delay
  duration: 1ms
`

func writeLibrary(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestCreateEngine(t *testing.T) {
	dir := writeLibrary(t, map[string]string{"greet.md": factoryFlow})

	engine, err := NewEngine(RunOptions{LibraryPath: dir}, createLogger(false))
	require.NoError(t, err)

	flow, err := engine.LoadFlow("greet")
	require.NoError(t, err)
	assert.Equal(t, "greet", flow.Name())
}

func TestCreateEngineRequiresLibrary(t *testing.T) {
	_, err := NewEngine(RunOptions{}, createLogger(false))
	assert.Error(t, err)
}

func TestCommandRunnerConvention(t *testing.T) {
	t.Run("programs.yaml next to the flows is picked up", func(t *testing.T) {
		dir := writeLibrary(t, map[string]string{
			"greet.md":      factoryFlow,
			"programs.yaml": "programs:\n  - name: echo\n    command: echo\n",
		})

		r, err := commandRunner(RunOptions{LibraryPath: dir})
		require.NoError(t, err)
		assert.NotNil(t, r)
	})

	t.Run("no file means no runner override", func(t *testing.T) {
		r, err := commandRunner(RunOptions{LibraryPath: t.TempDir()})
		require.NoError(t, err)
		assert.Nil(t, r)
	})

	t.Run("explicit path must exist", func(t *testing.T) {
		dir := t.TempDir()
		_, err := commandRunner(RunOptions{
			LibraryPath: dir,
			Programs:    filepath.Join(dir, "missing.yaml"),
		})
		assert.Error(t, err)
	})
}
