package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/schema"
)

// Builder constructs a flow tree. Step methods come from the embedded
// root scope; flow-level attributes have their own methods.
type Builder struct {
	*Steps

	flow *domain.Flow
	errs []error
}

// New starts a builder for a flow with the given name.
func New(name string) *Builder {
	b := &Builder{flow: domain.NewFlow(name)}
	b.Steps = &Steps{seq: &b.flow.Body, sink: b}
	return b
}

// Describe sets the flow description.
func (b *Builder) Describe(description string) *Builder {
	b.flow.SetDescription(description)
	return b
}

// Env seeds an initial environment value.
func (b *Builder) Env(name string, value any) *Builder {
	b.flow.Env.Set(name, value)
	return b
}

// Require names environment keys the host must provide at run time.
func (b *Builder) Require(keys ...string) *Builder {
	b.flow.Requires = append(b.flow.Requires, keys...)
	return b
}

// EnvType declares the type an environment value must satisfy, by its
// declaration name ("int", "duration", "[string]").
func (b *Builder) EnvType(key, typeName string) *Builder {
	typ, err := schema.ParseType(typeName)
	if err != nil {
		b.report(fmt.Errorf("env type for %s: %w", key, err))
		return b
	}
	if b.flow.EnvTypes == nil {
		b.flow.EnvTypes = schema.Schema{}
	}
	b.flow.EnvTypes[key] = typ
	return b
}

// Flow returns the built flow. Construction mistakes accumulated along
// the way (an Else with no If before it, a Retry on a step that cannot
// retry) surface here rather than panicking mid-chain.
func (b *Builder) Flow() (*domain.Flow, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return b.flow, nil
}

// Library compiles the flow into an in-memory flow library, ready to
// hand to an engine.
func (b *Builder) Library() (*memory.Library, error) {
	flow, err := b.Flow()
	if err != nil {
		return nil, err
	}
	lib, err := memory.NewLibraryFromFlows(flow)
	if err != nil {
		return nil, fmt.Errorf("failed to build flow library: %w", err)
	}
	return lib, nil
}

func (b *Builder) report(err error) {
	b.errs = append(b.errs, err)
}
