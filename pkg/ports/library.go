package ports

import "context"

// FlowLibrary defines how the engine retrieves flow definitions.
// This keeps the storage layer (Loam, FS, memory) decoupled from the
// codec that turns raw bytes into an action tree.
type FlowLibrary interface {
	// GetFlow retrieves the raw definition of a flow by name.
	// It returns the raw bytes (which the codec will parse) or an error.
	GetFlow(name string) ([]byte, error)

	// ListFlows returns the names of all flows available in the library.
	// This is used for introspection and visualization tools (e.g.
	// 'espalier graph').
	ListFlows() ([]string, error)
}

// Watchable defines an interface for libraries that can notify about
// backend changes. This is typically used for hot-reload or dev-mode
// functionality.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying
	// library changes. It abstracts away the specific event details,
	// signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
