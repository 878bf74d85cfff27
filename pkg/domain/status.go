package domain

// Status is the lifecycle state shared by actions, sequences and flows.
type Status string

const (
	StatusReady     Status = "ready"     // Not started yet, or rewound
	StatusRunning   Status = "running"   // Currently executing
	StatusPaused    Status = "paused"    // Interrupted cooperatively; resumable
	StatusCompleted Status = "completed" // Finished successfully
	StatusFailed    Status = "failed"    // Finished with a fault
)

// Resumable reports whether a container in this status re-enters at its
// recorded current position instead of starting over. A failed container
// is resumable so the failing step can be re-executed after the host
// fixes whatever broke.
func (s Status) Resumable() bool {
	return s == StatusPaused || s == StatusFailed
}

// Terminal reports whether the status is a final one.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s Status) String() string {
	if s == "" {
		return string(StatusReady)
	}
	return string(s)
}
