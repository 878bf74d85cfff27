package domain

import "context"

// Action is one executable step of a flow: a leaf operation or a
// composite that owns nested child sequences.
//
// Run performs the step against the given environment and reports the
// result as a typed Outcome. The environment is passed explicitly down
// the tree on every call; there is no globally reachable variable
// store. Cancellation of ctx is the cooperative pause signal: an action
// observing it should stop at the next safe point and return Pause().
type Action interface {
	// Name is the display name of the step. It may be fixed by the
	// editor or derived from the action's own configuration.
	Name() string

	// Description is the editor facing free text for the step.
	Description() string

	// Enabled reports whether the step participates in execution.
	// Disabled steps are skipped by the run loop but still validated.
	Enabled() bool

	// Status is the current lifecycle state of the step.
	Status() Status

	// SetStatus records a lifecycle transition. Called by the run loop;
	// hosts normally only read.
	SetStatus(Status)

	Run(ctx context.Context, env *Environment) Outcome
}

// Composite is the capability implemented by actions that own ordered
// sequences of child actions. Recursion everywhere in the engine
// (validation, rewinding, snapshots, rendering) is driven exclusively
// by this capability, never by reflection over concrete types.
type Composite interface {
	Action

	// Branches returns the named child sequences in a stable order.
	// The returned pointers alias the composite's own sequences, so
	// mutating them mutates the tree.
	Branches() []Branch
}

// Branch is one named child sequence of a composite action, such as
// "Then", "Else" or "Body".
type Branch struct {
	Label string
	Seq   *Sequence
}

// Base carries the intrinsic attributes shared by every action
// implementation: display name, description, enabled flag and status.
// Embed it and override Name when the display name should be derived.
// The zero value is an enabled, ready action with no name.
type Base struct {
	name        string
	description string
	disabled    bool
	status      Status
}

// NewBase returns a Base with the given display name and description.
func NewBase(name, description string) Base {
	return Base{name: name, description: description}
}

func (b *Base) Name() string               { return b.name }
func (b *Base) SetName(name string)        { b.name = name }
func (b *Base) Description() string        { return b.description }
func (b *Base) SetDescription(desc string) { b.description = desc }

func (b *Base) Enabled() bool           { return !b.disabled }
func (b *Base) SetEnabled(enabled bool) { b.disabled = !enabled }

func (b *Base) Status() Status {
	if b.status == "" {
		return StatusReady
	}
	return b.status
}

func (b *Base) SetStatus(s Status) { b.status = s }
