package memory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/actions"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/codec"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/registry"
)

func TestNewLibraryFromFlows(t *testing.T) {
	f := domain.NewFlow("greet")
	f.Body.Append(actions.NewDelay("beat", time.Second))

	lib, err := memory.NewLibraryFromFlows(f)
	require.NoError(t, err)

	raw, err := lib.GetFlow("greet")
	require.NoError(t, err)

	back, err := codec.New(nil, registry.Deps{}).DecodeFlow(raw)
	require.NoError(t, err)
	assert.Equal(t, "greet", back.Name())
	require.Equal(t, 1, back.Body.Len())

	pause, ok := back.Body.Actions()[0].(*actions.Delay)
	require.True(t, ok)
	assert.Equal(t, time.Second, pause.Duration)
}

func TestNewLibraryFromFlows_RequiresNames(t *testing.T) {
	_, err := memory.NewLibraryFromFlows(domain.NewFlow(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing a name")
}
