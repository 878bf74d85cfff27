package validation

import (
	"fmt"
	"strconv"

	"github.com/aretw0/espalier/pkg/domain"
)

// DefaultMaxDepth bounds the branch walk. Trees this deep are almost
// certainly definition bugs (a flow nested into itself); the walk
// stops with a single warning instead of recursing forever.
const DefaultMaxDepth = 100

type options struct {
	nested   bool
	warnings bool
	maxDepth int
}

// Option adjusts a validation run.
type Option func(*options)

// WithoutNested restricts the walk to the top level: composite actions
// still self check, but their branches are not entered.
func WithoutNested() Option {
	return func(o *options) { o.nested = false }
}

// WithoutWarnings drops warning findings, leaving only errors and
// criticals.
func WithoutWarnings() Option {
	return func(o *options) { o.warnings = false }
}

// WithMaxDepth overrides the recursion bound.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// Validate checks a flow and returns its findings in tree order.
func Validate(f *domain.Flow, opts ...Option) []Issue {
	o := options{nested: true, warnings: true, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}

	w := &walker{opts: o}
	if f == nil {
		w.add(Crit("no flow"))
		return w.issues
	}

	if f.Name() == "" {
		w.add(Warn("flow has no name"))
	}
	if f.Env == nil {
		w.add(Err("flow has no environment"))
	}
	switch {
	case f.Body.Actions() == nil:
		w.add(Crit("flow has no action list"))
	case f.Body.Len() == 0:
		w.add(Warn("flow has no actions"))
	}

	// Hosts may inject contract keys at run time, so an unmet contract
	// is not a finding here. A declared default that contradicts its
	// own declared type is suspicious regardless.
	if f.Env != nil {
		for _, key := range f.EnvTypes.Keys() {
			value, ok := f.Env.Get(key)
			if !ok {
				continue
			}
			if err := f.EnvTypes[key].Validate(value); err != nil {
				w.add(Warn(fmt.Sprintf("env default %q fails its declared type: %v", key, err)))
			}
		}
	}

	w.sequence("", 1, &f.Body)
	return w.issues
}

type walker struct {
	opts     options
	issues   []Issue
	depthHit bool
}

func (w *walker) add(issue Issue) {
	if issue.Severity == SeverityWarning && !w.opts.warnings {
		return
	}
	w.issues = append(w.issues, issue)
}

func (w *walker) sequence(prefix string, depth int, seq *domain.Sequence) {
	if depth > w.opts.maxDepth {
		if !w.depthHit {
			w.depthHit = true
			w.add(Issue{
				Severity: SeverityWarning,
				Path:     prefix,
				Message:  "maximum nesting depth reached, deeper actions not validated",
			})
		}
		return
	}
	for i, a := range seq.Actions() {
		w.action(prefix+"/"+strconv.Itoa(i), depth, a)
	}
}

func (w *walker) action(path string, depth int, a domain.Action) {
	stamp := func(issue Issue) {
		issue.Path = path
		issue.Action = a.Name()
		w.add(issue)
	}

	if a.Name() == "" {
		stamp(Warn("action has no name"))
	}
	if a.Description() == "" {
		stamp(Warn("action has no description"))
	}

	if c, ok := a.(Checker); ok {
		for _, issue := range c.Check() {
			stamp(issue)
		}
	}

	// A nested flow runs against its own declared environment, so its
	// contract has a definite answer already.
	if nested, ok := a.(*domain.Flow); ok {
		if err := nested.CheckEnv(); err != nil {
			stamp(Err(err.Error()))
		}
	}

	if comp, ok := a.(domain.Composite); ok && w.opts.nested {
		for _, b := range comp.Branches() {
			w.sequence(path+"/"+b.Label, depth+1, b.Seq)
		}
	}
}
