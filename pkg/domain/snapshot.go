package domain

import (
	"fmt"
	"strconv"
	"time"
)

// RunSnapshot is the persisted form of an interrupted run: enough to
// rebuild the flow's position and variables on a fresh copy of the same
// definition, possibly in another process.
type RunSnapshot struct {
	// ID identifies the run, not the flow; one definition can have many
	// concurrent runs.
	ID     string         `json:"id" yaml:"id"`
	Flow   string         `json:"flow" yaml:"flow"`
	Status Status         `json:"status" yaml:"status"`
	Cursor []string       `json:"cursor,omitempty" yaml:"cursor,omitempty"`
	Env    map[string]any `json:"env,omitempty" yaml:"env,omitempty"`

	SavedAt time.Time `json:"saved_at" yaml:"saved_at"`
}

// NewRunSnapshot captures the current position and environment of a
// flow under the given run ID.
func NewRunSnapshot(id string, f *Flow) *RunSnapshot {
	snap := &RunSnapshot{
		ID:      id,
		Flow:    f.Name(),
		Status:  f.Status(),
		Cursor:  f.Cursor(),
		SavedAt: time.Now().UTC(),
	}
	if f.Env != nil {
		snap.Env = f.Env.Snapshot()
	}
	return snap
}

// Resumable reports whether the snapshot describes a run that can be
// picked up again.
func (s *RunSnapshot) Resumable() bool {
	return s.Status.Resumable()
}

// ApplyTo restores the snapshot onto a fresh copy of the flow
// definition: environment values first, then the cursor, then the
// overall status. The flow must carry the same name the snapshot was
// taken from.
func (s *RunSnapshot) ApplyTo(f *Flow) error {
	if f.Name() != s.Flow {
		return fmt.Errorf("snapshot %s belongs to flow %q, not %q", s.ID, s.Flow, f.Name())
	}
	if f.Env == nil {
		f.Env = NewEnvironment()
	}
	for name, value := range s.Env {
		f.Env.Set(name, value)
	}
	if len(s.Cursor) > 0 {
		if err := f.Restore(s.Cursor); err != nil {
			return fmt.Errorf("snapshot %s: %w", s.ID, err)
		}
	}
	f.SetStatus(s.Status)
	return nil
}

// Cursor returns the resume path of an interrupted flow: sequence
// indexes alternating with branch labels, from the top of the body down
// to the deepest interrupted action. Empty when nothing is in flight.
func (f *Flow) Cursor() []string {
	var path []string
	seq := &f.Body
	for {
		current := seq.Current()
		if current == nil {
			return path
		}
		path = append(path, strconv.Itoa(seq.Cursor()))

		c, ok := current.(Composite)
		if !ok {
			return path
		}
		var next *Sequence
		for _, b := range c.Branches() {
			if b.Seq.Status().Resumable() {
				next = b.Seq
				path = append(path, b.Label)
				break
			}
		}
		if next == nil {
			return path
		}
		seq = next
	}
}

// Restore positions the flow at the given cursor path, marking the
// actions before it complete and the ones on it paused. The path must
// fit the flow's structure; a mismatch (edited definition, wrong flow)
// is an error and leaves the tree partially positioned.
func (f *Flow) Restore(cursor []string) error {
	seq := &f.Body
	for i := 0; i < len(cursor); i++ {
		idx, err := strconv.Atoi(cursor[i])
		if err != nil {
			return fmt.Errorf("cursor segment %q is not an index", cursor[i])
		}
		if err := seq.Seek(idx); err != nil {
			return err
		}
		i++
		if i >= len(cursor) {
			break
		}

		c, ok := seq.Current().(Composite)
		if !ok {
			return fmt.Errorf("cursor descends into %q, which has no branches", seq.Current().Name())
		}
		label := cursor[i]
		var next *Sequence
		for _, b := range c.Branches() {
			if b.Label == label {
				next = b.Seq
				break
			}
		}
		if next == nil {
			return fmt.Errorf("action %q has no branch %q", seq.Current().Name(), label)
		}
		seq = next
	}
	return nil
}
