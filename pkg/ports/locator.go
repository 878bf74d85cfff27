package ports

import (
	"context"
	"fmt"
)

// SelectorKind names a strategy for locating a UI element.
type SelectorKind string

const (
	// ByPath addresses an element by its structural position in the
	// UI tree. Brittle across layout changes; most precise otherwise.
	ByPath SelectorKind = "path"
	// ByID addresses an element by its stable automation ID.
	ByID SelectorKind = "id"
	// ByName addresses an element by its visible display name.
	ByName SelectorKind = "name"
	// ByType addresses the first element of a control type.
	ByType SelectorKind = "type"
)

// Valid reports whether the kind is one of the defined strategies.
func (k SelectorKind) Valid() bool {
	switch k {
	case ByPath, ByID, ByName, ByType:
		return true
	}
	return false
}

// Selector describes one element lookup: which strategy and what value
// to match with it.
type Selector struct {
	Kind  SelectorKind `json:"kind" yaml:"kind" mapstructure:"kind"`
	Value string       `json:"value" yaml:"value" mapstructure:"value"`
}

func (s Selector) String() string {
	return fmt.Sprintf("%s=%s", s.Kind, s.Value)
}

// Element is a located UI element. Methods take a context because the
// underlying automation calls cross process boundaries and can hang.
type Element interface {
	// Click performs a default (left) click on the element.
	Click(ctx context.Context) error

	// SetText replaces the element's text content.
	SetText(ctx context.Context, text string) error

	// Text reads the element's current text content.
	Text(ctx context.Context) (string, error)
}

// Session is a live connection to the desktop automation provider.
// Sessions are short lived: actions open one per attempt and close it
// when the attempt ends, so a retry never reuses a stale handle.
type Session interface {
	// Find locates a single element.
	// Returns domain.ErrElementNotFound (possibly wrapped) when no
	// element matches the selector.
	Find(ctx context.Context, sel Selector) (Element, error)

	// Close releases the session and any handles it produced.
	Close() error
}

// Locator opens automation sessions. Implementations wrap a concrete
// UI automation backend; tests use a scripted in-memory one.
type Locator interface {
	Open(ctx context.Context) (Session, error)
}
