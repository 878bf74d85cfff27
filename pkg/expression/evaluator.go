// Package expression evaluates the condition and value expressions of
// an action tree against a flow environment.
//
// Expressions are plain strings in expr-lang syntax. Variables resolve
// against the environment of the running flow; hosts can extend the
// language with custom functions, including context aware ones such as
// the element existence predicate desktop actions register.
package expression

import (
	"context"
	"errors"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/aretw0/espalier/pkg/domain"
)

// ErrEmptyExpression is returned for a missing or blank source string.
var ErrEmptyExpression = errors.New("empty expression")

// Evaluator compiles and runs expressions. Compiled programs are cached
// by source, so loop conditions compile once per evaluator, not once
// per iteration. Safe for use across concurrent runs.
type Evaluator struct {
	mu       sync.Mutex
	programs map[string]*vm.Program

	statics  map[string]any
	dynamics map[string]func(context.Context) any
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithFunction exposes a plain Go function to expressions under the
// given name. The function shadows any environment variable with the
// same name.
func WithFunction(name string, fn any) Option {
	return func(e *Evaluator) {
		e.statics[name] = fn
	}
}

// WithContextFunction exposes a function that is rebuilt for every
// evaluation from the run context, for helpers that perform I/O and
// must honor cancellation.
func WithContextFunction(name string, provider func(context.Context) any) Option {
	return func(e *Evaluator) {
		e.dynamics[name] = provider
	}
}

// New returns an evaluator with the given extensions.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		programs: make(map[string]*vm.Program),
		statics:  make(map[string]any),
		dynamics: make(map[string]func(context.Context) any),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var (
	defaultOnce sync.Once
	defaultEval *Evaluator
)

// Default returns the process wide evaluator used by actions that were
// built without an explicit one. It has no custom functions.
func Default() *Evaluator {
	defaultOnce.Do(func() {
		defaultEval = New()
	})
	return defaultEval
}

// OrDefault returns e, or the shared default when e is nil. Lets action
// types keep an optional Evaluator field with a safe zero value.
func OrDefault(e *Evaluator) *Evaluator {
	if e == nil {
		return Default()
	}
	return e
}

// Eval runs the expression against the environment and returns its
// value.
func (e *Evaluator) Eval(ctx context.Context, src string, env *domain.Environment) (any, error) {
	if src == "" {
		return nil, ErrEmptyExpression
	}
	program, err := e.compiled(src)
	if err != nil {
		return nil, err
	}
	return expr.Run(program, e.scope(ctx, env))
}

// EvalBool runs a condition expression. A result of any type other than
// bool, or a failed evaluation, is reported as a ConditionError; values
// are never coerced silently.
func (e *Evaluator) EvalBool(ctx context.Context, src string, env *domain.Environment) (bool, error) {
	v, err := e.Eval(ctx, src, env)
	if err != nil {
		return false, &domain.ConditionError{Expr: src, Cause: err}
	}
	b, ok := v.(bool)
	if !ok {
		return false, &domain.ConditionError{Expr: src, Value: v}
	}
	return b, nil
}

// CheckBool statically verifies that the source parses and is not
// provably non-boolean. Used by the validator; expressions whose type
// depends on runtime variables pass here and are checked when run.
func (e *Evaluator) CheckBool(src string) error {
	if src == "" {
		return ErrEmptyExpression
	}
	_, err := expr.Compile(src,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	return err
}

// Check statically verifies that the source parses.
func (e *Evaluator) Check(src string) error {
	if src == "" {
		return ErrEmptyExpression
	}
	_, err := expr.Compile(src,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	)
	return err
}

func (e *Evaluator) compiled(src string) (*vm.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.programs[src]; ok {
		return p, nil
	}
	p, err := expr.Compile(src,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, err
	}
	e.programs[src] = p
	return p, nil
}

// scope builds the evaluation environment: a detached snapshot of the
// flow variables with the registered functions layered on top.
func (e *Evaluator) scope(ctx context.Context, env *domain.Environment) map[string]any {
	var scope map[string]any
	if env != nil {
		scope = env.Snapshot()
	} else {
		scope = make(map[string]any)
	}
	for name, fn := range e.statics {
		scope[name] = fn
	}
	for name, provider := range e.dynamics {
		scope[name] = provider(ctx)
	}
	return scope
}
