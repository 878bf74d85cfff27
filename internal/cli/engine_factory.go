package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/adapters/process"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/runner"
)

// NewEngine assembles the engine a command works against from the
// shared flag set: run store, process allow list, resume mode and
// debug hooks.
func NewEngine(opts RunOptions, logger *slog.Logger) (*espalier.Engine, error) {
	store, err := OpenStore(opts.LibraryPath, opts.RedisURL)
	if err != nil {
		return nil, err
	}

	engineOpts := []espalier.Option{
		espalier.WithLogger(logger),
		espalier.WithStore(store),
	}
	if opts.Debug {
		engineOpts = append(engineOpts, espalier.WithLifecycleHooks(createDebugHooks(logger)))
	}
	if opts.Preflight {
		engineOpts = append(engineOpts, espalier.WithPreflight())
	}
	if opts.Shallow {
		engineOpts = append(engineOpts, espalier.WithShallowResume())
	}

	cmdRunner, err := commandRunner(opts)
	if err != nil {
		return nil, err
	}
	if cmdRunner != nil {
		// The policy wrapper consults the per-run interceptor the host
		// attaches (interactive confirmation, headless auto-approve).
		engineOpts = append(engineOpts, espalier.WithCommandRunner(runner.NewPolicyRunner(cmdRunner)))
	}

	engine, err := espalier.New(opts.LibraryPath, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("initializing engine: %w", err)
	}
	return engine, nil
}

// commandRunner wires the run_process allow list. An explicit
// --programs path must exist; the conventional programs.yaml next to
// the flows is picked up automatically when present. Without either,
// the engine's default runner denies every launch.
func commandRunner(opts RunOptions) (ports.CommandRunner, error) {
	path := opts.Programs
	if path == "" {
		candidate := filepath.Join(opts.LibraryPath, "programs.yaml")
		if _, err := os.Stat(candidate); err != nil {
			return nil, nil
		}
		path = candidate
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("programs file: %w", err)
	}

	programs, err := process.LoadPrograms(path)
	if err != nil {
		return nil, err
	}
	return process.NewRunner(
		process.WithRegistry(programs),
		process.WithBaseDir(opts.LibraryPath),
	), nil
}
