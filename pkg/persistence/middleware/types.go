// Package middleware wraps a run store with cross-cutting persistence
// concerns: encrypting snapshots at rest and masking sensitive
// variables before they leave the process.
package middleware

import "github.com/aretw0/espalier/pkg/ports"

// Middleware allows wrapping a RunStore to add behavior.
type Middleware func(ports.RunStore) ports.RunStore
