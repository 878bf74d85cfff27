package domain

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Sequence is an ordered collection of actions plus the cursor marking
// the current position. The zero value is an empty, ready sequence.
//
// Sequence.Run is the one execution algorithm of the engine. The flow's
// top level body and every composite branch run through this same loop,
// recursively: actions execute in declaration order, a failure stops
// the sequence immediately, and cooperative cancellation parks the
// cursor on the interrupted action so a later call re-executes it.
type Sequence struct {
	actions []Action
	cursor  int
	status  Status
}

// NewSequence returns a sequence over the given actions.
func NewSequence(actions ...Action) Sequence {
	return Sequence{actions: actions}
}

// Append adds actions to the end of the sequence.
func (s *Sequence) Append(actions ...Action) {
	s.actions = append(s.actions, actions...)
}

// Insert places an action at position i, shifting later siblings.
func (s *Sequence) Insert(i int, action Action) error {
	if i < 0 || i > len(s.actions) {
		return fmt.Errorf("insert position %d out of range [0..%d]", i, len(s.actions))
	}
	s.actions = append(s.actions, nil)
	copy(s.actions[i+1:], s.actions[i:])
	s.actions[i] = action
	return nil
}

// Remove deletes the action at position i.
func (s *Sequence) Remove(i int) error {
	if i < 0 || i >= len(s.actions) {
		return fmt.Errorf("remove position %d out of range [0..%d)", i, len(s.actions))
	}
	s.actions = append(s.actions[:i], s.actions[i+1:]...)
	if s.cursor > i {
		s.cursor--
	}
	return nil
}

// Actions returns the underlying action list. The slice aliases the
// sequence; callers that mutate it own the consequences.
func (s *Sequence) Actions() []Action { return s.actions }

// Len returns the number of actions in the sequence.
func (s *Sequence) Len() int { return len(s.actions) }

// Status is the lifecycle state of the sequence as a container.
func (s *Sequence) Status() Status {
	if s.status == "" {
		return StatusReady
	}
	return s.status
}

// Cursor returns the current position. Meaningful while the sequence is
// running, paused or failed.
func (s *Sequence) Cursor() int { return s.cursor }

// Current returns the action the cursor rests on, or nil when the
// sequence is idle or finished.
func (s *Sequence) Current() Action {
	switch s.Status() {
	case StatusRunning, StatusPaused, StatusFailed:
		if s.cursor >= 0 && s.cursor < len(s.actions) {
			return s.actions[s.cursor]
		}
	}
	return nil
}

// Run executes the sequence in strict declaration order.
//
// If the sequence is paused or failed, execution resumes at (and
// re-executes) the action under the cursor; everything before it is
// treated as already complete. Otherwise execution starts at index 0.
// Disabled actions are skipped. The first failure stops the run, marks
// the sequence failed and propagates. Cancellation observed before or
// inside an action parks the cursor there, marks the sequence paused
// and propagates the pause upward; a pause is not a failure.
func (s *Sequence) Run(ctx context.Context, env *Environment) Outcome {
	if !s.Status().Resumable() {
		s.cursor = 0
	}
	s.status = StatusRunning

	for s.cursor < len(s.actions) {
		action := s.actions[s.cursor]
		if !action.Enabled() {
			s.cursor++
			continue
		}
		if ctx.Err() != nil {
			s.status = StatusPaused
			return Pause()
		}

		out := s.runOne(ctx, env, action)
		switch {
		case out.Paused():
			action.SetStatus(StatusPaused)
			s.status = StatusPaused
			return out
		case out.Failed():
			action.SetStatus(StatusFailed)
			s.status = StatusFailed
			return out
		default:
			action.SetStatus(StatusCompleted)
			s.cursor++
		}
	}

	s.status = StatusCompleted
	return Succeed()
}

// runOne executes a single action, translating panics into failures and
// reporting progress to the context observer.
func (s *Sequence) runOne(ctx context.Context, env *Environment, action Action) (out Outcome) {
	ctx = WithPathSegment(ctx, strconv.Itoa(s.cursor))
	hooks := observer(ctx)

	var before map[string]any
	if hooks != nil && hooks.OnVariableChanged != nil && env != nil {
		before = env.Snapshot()
	}

	defer func() {
		if r := recover(); r != nil {
			out = Fail(&PanicError{Action: action.Name(), Value: r})
		}
		if hooks != nil {
			s.emitFinished(ctx, hooks, action, out)
			if before != nil && env != nil {
				s.emitChanges(ctx, hooks, action, before, env.Snapshot())
			}
		}
	}()

	action.SetStatus(StatusRunning)
	if hooks != nil && hooks.OnActionStarted != nil {
		hooks.OnActionStarted(ctx, &ActionEvent{
			Timestamp: time.Now(),
			Type:      EventActionStarted,
			Path:      PathFrom(ctx),
			Action:    action.Name(),
			Status:    StatusRunning,
		})
	}

	return action.Run(ctx, env)
}

func (s *Sequence) emitFinished(ctx context.Context, hooks *LifecycleHooks, action Action, out Outcome) {
	if hooks.OnActionFinished == nil {
		return
	}
	ev := &ActionEvent{
		Timestamp: time.Now(),
		Type:      EventActionFinished,
		Path:      PathFrom(ctx),
		Action:    action.Name(),
		Status:    out.Status(),
		Outcome:   out.Code,
	}
	if out.Err != nil {
		ev.Error = out.Err.Error()
	}
	hooks.OnActionFinished(ctx, ev)
}

func (s *Sequence) emitChanges(ctx context.Context, hooks *LifecycleHooks, action Action, before, after map[string]any) {
	for name, value := range Changes(before, after) {
		hooks.OnVariableChanged(ctx, &VariableEvent{
			Timestamp: time.Now(),
			Type:      EventVariableChanged,
			Path:      PathFrom(ctx),
			Name:      name,
			Value:     value,
		})
	}
}

// Rewind resets the sequence and every action in it (recursively, for
// composites) back to ready, discarding cursors.
func (s *Sequence) Rewind() {
	s.cursor = 0
	s.status = StatusReady
	for _, action := range s.actions {
		Reset(action)
	}
}

// Reset returns a single action to ready, including the branches of a
// composite. The next run of its parent sequence executes it from the
// top rather than from a remembered position.
func Reset(action Action) {
	action.SetStatus(StatusReady)
	if c, ok := action.(Composite); ok {
		for _, b := range c.Branches() {
			b.Seq.Rewind()
		}
	}
}

// Seek marks the sequence paused at position i, with every action
// before it treated as complete. Used when restoring a persisted run.
func (s *Sequence) Seek(i int) error {
	if i < 0 || i >= len(s.actions) {
		return fmt.Errorf("seek position %d out of range [0..%d)", i, len(s.actions))
	}
	for j := 0; j < i; j++ {
		if s.actions[j].Enabled() {
			s.actions[j].SetStatus(StatusCompleted)
		}
	}
	s.actions[i].SetStatus(StatusPaused)
	s.cursor = i
	s.status = StatusPaused
	return nil
}
