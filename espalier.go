package espalier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/loam"

	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/actions/desktop"
	loamAdapter "github.com/aretw0/espalier/pkg/adapters/loam"
	"github.com/aretw0/espalier/pkg/adapters/process"
	"github.com/aretw0/espalier/pkg/codec"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/expression"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/aretw0/espalier/pkg/validation"
)

// Engine is the high-level entry point for the espalier library. It
// ties a flow library, the codec and the runtime scheduler together
// into one handle that hosts (CLI, HTTP, MCP) program against.
type Engine struct {
	runtime *runtime.Engine
	library ports.FlowLibrary
	codec   *codec.Codec
	store   ports.RunStore

	reg     *registry.Registry
	eval    *expression.Evaluator
	locator ports.Locator
	runner  ports.CommandRunner

	hooks       *domain.LifecycleHooks
	logger      *slog.Logger
	runtimeOpts []runtime.EngineOption

	Name string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLibrary injects a custom FlowLibrary, bypassing the default Loam
// initialization.
func WithLibrary(lib ports.FlowLibrary) Option {
	return func(e *Engine) { e.library = lib }
}

// WithStore persists snapshots of paused and failed runs to the given
// store, enabling Resume across processes.
func WithStore(store ports.RunStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithLifecycleHooks registers observability hooks for every run.
func WithLifecycleHooks(hooks *domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithEvaluator sets a custom expression evaluator, usually to expose
// host functions to flow conditions.
func WithEvaluator(eval *expression.Evaluator) Option {
	return func(e *Engine) { e.eval = eval }
}

// WithCommandRunner sets the runner process actions launch through.
// The default refuses every program until registered.
func WithCommandRunner(r ports.CommandRunner) Option {
	return func(e *Engine) { e.runner = r }
}

// WithLocator sets the desktop automation backend for UI actions.
// Without one, flows using desktop actions fail at run time. The
// default evaluator then also answers element_exists(kind, value) in
// condition expressions; a custom WithEvaluator must compose
// desktop.ElementExists itself.
func WithLocator(l ports.Locator) Option {
	return func(e *Engine) { e.locator = l }
}

// WithRegistry replaces the builtin action type registry, for hosts
// that define their own action vocabulary.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) { e.reg = reg }
}

// WithShallowResume makes Resume discard the nested position and
// re-run the interrupted top level action from its beginning.
func WithShallowResume() Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithResumeMode(runtime.ResumeShallow))
	}
}

// WithPreflight validates every flow before running it and refuses
// flows with critical or error issues.
func WithPreflight() Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithPreflight())
	}
}

// New initializes an espalier Engine.
// By default it reads flows from a Loam library at the given path.
// If the WithLibrary option is provided, libraryPath can be empty and
// Loam is skipped.
func New(libraryPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.library == nil {
		if libraryPath == "" {
			return nil, fmt.Errorf("libraryPath is required when no custom library is provided")
		}

		absPath, err := filepath.Abs(libraryPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}

		eng.Name = filepath.Base(absPath)

		// Strict mode keeps numeric frontmatter as json.Number so large
		// integers survive the trip into the codec. Read-only mode keeps
		// Loam from sandboxing the library in dev mode; the engine only
		// ever reads flow documents.
		repo, err := loam.Init(absPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}

		typedRepo := loam.NewTypedRepository[loamAdapter.FlowMetadata](repo)
		eng.library = loamAdapter.New(typedRepo)
	} else if libraryPath != "" {
		eng.Name = filepath.Base(libraryPath)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("library", eng.Name)
	}

	if eng.eval == nil {
		if eng.locator != nil {
			eng.eval = expression.New(desktop.ElementExists(eng.locator))
		} else {
			eng.eval = expression.New()
		}
	}
	if eng.runner == nil {
		eng.runner = process.NewRunner()
	}
	eng.codec = codec.New(eng.reg, registry.Deps{
		Eval:    eng.eval,
		Locator: eng.locator,
		Runner:  eng.runner,
	})

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	if eng.store != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithStore(eng.store))
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)

	eng.runtime = runtime.NewEngine(runtimeOpts...)

	return eng, nil
}

// LoadFlow retrieves a flow definition from the library and decodes it
// into an executable action tree. Every call builds a fresh tree; a
// flow carries run state, so concurrent runs must not share one.
func (e *Engine) LoadFlow(name string) (*domain.Flow, error) {
	data, err := e.library.GetFlow(name)
	if err != nil {
		return nil, fmt.Errorf("loading flow %s: %w", name, err)
	}
	f, err := e.codec.DecodeFlow(data)
	if err != nil {
		return nil, fmt.Errorf("decoding flow %s: %w", name, err)
	}
	return f, nil
}

// Run loads the named flow and executes it under a fresh run ID. The
// call blocks until the flow completes, fails or pauses.
func (e *Engine) Run(ctx context.Context, flowName string) (ports.RunResult, error) {
	flow, err := e.LoadFlow(flowName)
	if err != nil {
		return ports.RunResult{}, err
	}
	return e.runtime.Execute(ctx, flow)
}

// Execute runs an already built flow, for hosts that assemble trees in
// Go (the dsl package) instead of loading documents.
func (e *Engine) Execute(ctx context.Context, flow *domain.Flow) (ports.RunResult, error) {
	return e.runtime.Execute(ctx, flow)
}

// Resume restores the identified run onto a fresh copy of its flow
// definition and continues from the interrupted position.
func (e *Engine) Resume(ctx context.Context, runID string) (ports.RunResult, error) {
	if e.store == nil {
		return ports.RunResult{}, fmt.Errorf("resuming run %s: no run store configured", runID)
	}

	snap, err := e.store.Load(ctx, runID)
	if err != nil {
		return ports.RunResult{}, fmt.Errorf("loading run %s: %w", runID, err)
	}

	flow, err := e.LoadFlow(snap.Flow)
	if err != nil {
		return ports.RunResult{}, err
	}
	return e.runtime.Resume(ctx, flow, runID)
}

// Validate loads the named flow and runs static analysis over it.
func (e *Engine) Validate(flowName string) (*validation.Summary, error) {
	flow, err := e.LoadFlow(flowName)
	if err != nil {
		return nil, err
	}
	return validation.Analyze(flow), nil
}

// ListFlows returns the names of the flows available in the library.
func (e *Engine) ListFlows() ([]string, error) {
	return e.library.ListFlows()
}

// ListRuns returns the IDs of stored resumable runs. Without a run
// store it returns nothing.
func (e *Engine) ListRuns(ctx context.Context) ([]string, error) {
	if e.store == nil {
		return nil, nil
	}
	return e.store.List(ctx)
}

// Watch returns a channel that signals when the underlying library
// changes. Returns an error if the library does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.library.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current library does not support watching")
}

// Library returns the underlying FlowLibrary used by the engine.
func (e *Engine) Library() ports.FlowLibrary {
	return e.library
}

// Codec returns the codec the engine decodes flows with, so hosts can
// encode trees back to documents or extend the action registry.
func (e *Engine) Codec() *codec.Codec {
	return e.codec
}

// Store returns the run store, or nil when persistence is off.
func (e *Engine) Store() ports.RunStore {
	return e.store
}
