// Package registry maintains the allow-list of action types the codec
// may instantiate. Flow documents name their actions by type string;
// only registered types decode, so a document can never conjure
// arbitrary Go values.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/expression"
	"github.com/aretw0/espalier/pkg/ports"
)

// Deps carries the collaborators wired into decoded actions: the
// expression evaluator for conditions, the locator for desktop leaves,
// the runner for process leaves.
type Deps struct {
	Eval    *expression.Evaluator
	Locator ports.Locator
	Runner  ports.CommandRunner
}

// Codec is the recursive translation surface handed to type entries,
// so composite entries can decode and encode their branches without
// depending on the concrete codec.
type Codec interface {
	// ActionList decodes a raw YAML list into actions.
	ActionList(v any) ([]domain.Action, error)

	// SequenceOf decodes a raw YAML list into a sequence. A nil input
	// yields the zero sequence.
	SequenceOf(v any) (domain.Sequence, error)

	// SingleSequence decodes a raw value holding one action, or a
	// list, into a sequence. Phases that expect at most one action
	// accept both shapes.
	SingleSequence(v any) (domain.Sequence, error)

	// SpecList encodes a sequence back to a list of spec maps. A zero
	// sequence yields nil.
	SpecList(seq domain.Sequence) ([]map[string]any, error)

	// SingleSpec encodes a sequence as one spec map when it holds a
	// single action, as a list otherwise, and as nil when empty.
	SingleSpec(seq domain.Sequence) (any, error)

	// Dependencies exposes the collaborators for the decoded tree.
	Dependencies() Deps
}

// DecodeFunc builds one action from its raw spec map. The spec still
// contains the common header keys; implementations ignore them.
type DecodeFunc func(c Codec, spec map[string]any) (domain.Action, error)

// EncodeFunc renders an action back to its spec map, without the
// common header. It reports false when the action is not its type.
type EncodeFunc func(c Codec, a domain.Action) (spec map[string]any, ok bool, err error)

// Entry couples the two directions of one action type.
type Entry struct {
	Decode DecodeFunc
	Encode EncodeFunc
}

// Registry manages the known action types.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Register adds an action type to the registry.
// If a type with the same name exists, it is overwritten.
func (r *Registry) Register(name string, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = e
}

// Lookup returns the entry for a type name.
// Returns an error if the type is not registered.
func (r *Registry) Lookup(name string) (Entry, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return Entry{}, fmt.Errorf("unknown action type: %s", name)
	}
	return e, nil
}

// Entries returns a snapshot of the registered entries.
func (r *Registry) Entries() map[string]Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]Entry, len(r.entries))
	for name, e := range r.entries {
		snapshot[name] = e
	}
	return snapshot
}

// Types lists the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
