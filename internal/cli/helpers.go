package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/espalier/internal/adapters/file"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/adapters/redis"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/session"
)

// createLogger configures the command's logger. Debug writes to stderr
// so the flow's own output on stdout stays clean; otherwise logging is
// off and the console belongs to the IO handler.
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// printSystemMessage prints a standardized host notice to stdout,
// prefixed so it cannot be mistaken for flow progress.
func printSystemMessage(format string, args ...any) {
	fmt.Printf(">>> %s\n", fmt.Sprintf(format, args...))
}

// OpenStore picks the run store for this invocation: Redis when a URL
// is given, files under the library directory otherwise. Either way
// the store is wrapped in a session manager so snapshot access is
// serialized per run ID; with Redis the manager additionally holds a
// distributed lock, since a shared store means other hosts may touch
// the same runs.
func OpenStore(libraryPath, redisURL string) (ports.RunStore, error) {
	if redisURL == "" {
		return session.NewManager(file.New(filepath.Join(libraryPath, ".espalier", "runs"))), nil
	}
	opts, err := backend.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := backend.NewClient(opts)
	return session.NewManager(
		redis.NewFromClient(client),
		session.WithLocker(redis.NewLocker(client, "espalier:")),
	), nil
}

// parseEnv merges --env-json with --env overrides into the variables a
// run starts with. The JSON object carries typed values; key=value
// pairs are strings and win on conflict.
func parseEnv(pairs []string, rawJSON string) (map[string]any, error) {
	env := map[string]any{}
	if rawJSON != "" {
		if err := json.Unmarshal([]byte(rawJSON), &env); err != nil {
			return nil, fmt.Errorf("parsing --env-json: %w", err)
		}
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --env %q, want key=value", pair)
		}
		env[key] = value
	}
	return env, nil
}

// createDebugHooks mirrors action level lifecycle events into the
// logger, so --debug shows the engine's view of the run alongside the
// handler's output.
func createDebugHooks(logger *slog.Logger) *domain.LifecycleHooks {
	return &domain.LifecycleHooks{
		OnActionStarted: func(ctx context.Context, ev *domain.ActionEvent) {
			logger.DebugContext(ctx, "action started", "path", ev.Path, "action", ev.Action)
		},
		OnActionFinished: func(ctx context.Context, ev *domain.ActionEvent) {
			logger.DebugContext(ctx, "action finished",
				"path", ev.Path, "action", ev.Action,
				"outcome", string(ev.Outcome), "error", ev.Error)
		},
		OnRetryAttempt: func(ctx context.Context, ev *domain.ActionEvent) {
			logger.DebugContext(ctx, "retry attempt",
				"path", ev.Path, "action", ev.Action,
				"attempt", ev.Attempt, "error", ev.Error)
		},
		OnVariableChanged: func(ctx context.Context, ev *domain.VariableEvent) {
			logger.DebugContext(ctx, "variable changed",
				"path", ev.Path, "name", ev.Name, "value", ev.Value)
		},
	}
}

// handleExecutionError separates deliberate stops from failures. A
// cancelled context is the operator ending the run, not a defect, so
// it maps to a clean exit.
func handleExecutionError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
