package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/espalier/pkg/codec"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
)

// Library implements ports.FlowLibrary over a map, for tests and for
// hosts that assemble their flow documents programmatically.
type Library struct {
	mu    sync.RWMutex
	flows map[string][]byte
}

var _ ports.FlowLibrary = (*Library)(nil)

// NewLibrary creates an empty in-memory flow library.
func NewLibrary() *Library {
	return &Library{flows: make(map[string][]byte)}
}

// NewLibraryFromFlows creates a library from already-built flows,
// encoding each through the codec. This keeps test setup at the level
// of the builder API instead of raw YAML.
func NewLibraryFromFlows(flows ...*domain.Flow) (*Library, error) {
	c := codec.New(nil, registry.Deps{})
	lib := NewLibrary()
	for _, f := range flows {
		if f == nil || f.Name() == "" {
			return nil, fmt.Errorf("flow missing a name")
		}
		doc, err := c.EncodeFlow(f)
		if err != nil {
			return nil, fmt.Errorf("encoding flow %s: %w", f.Name(), err)
		}
		lib.AddFlow(f.Name(), doc)
	}
	return lib, nil
}

// AddFlow stores a flow document under a name, replacing any previous
// document with that name.
func (l *Library) AddFlow(name string, doc []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flows[name] = append([]byte(nil), doc...)
}

// GetFlow retrieves the raw document for a flow name.
func (l *Library) GetFlow(name string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	doc, ok := l.flows[name]
	if !ok {
		return nil, fmt.Errorf("flow not found: %s", name)
	}
	return append([]byte(nil), doc...), nil
}

// ListFlows returns the stored flow names, sorted.
func (l *Library) ListFlows() ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.flows))
	for name := range l.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
