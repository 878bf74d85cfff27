package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/espalier/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write every event to the
// logger as a structured record. The event type is the message; run,
// position and result details become attributes.
func LoggingHooks(logger *slog.Logger) *domain.LifecycleHooks {
	return &domain.LifecycleHooks{
		OnFlowStarted: func(ctx context.Context, ev *domain.FlowEvent) {
			logger.InfoContext(ctx, string(ev.Type),
				"run_id", ev.RunID,
				"flow", ev.Flow,
			)
		},
		OnFlowFinished: func(ctx context.Context, ev *domain.FlowEvent) {
			attrs := []any{
				"run_id", ev.RunID,
				"flow", ev.Flow,
				"status", ev.Status.String(),
			}
			if ev.Error != "" {
				attrs = append(attrs, "err", ev.Error)
			}
			logger.InfoContext(ctx, string(ev.Type), attrs...)
		},
		OnActionStarted: func(ctx context.Context, ev *domain.ActionEvent) {
			logger.DebugContext(ctx, string(ev.Type),
				"run_id", ev.RunID,
				"path", ev.Path,
				"action", ev.Action,
			)
		},
		OnActionFinished: func(ctx context.Context, ev *domain.ActionEvent) {
			attrs := []any{
				"run_id", ev.RunID,
				"path", ev.Path,
				"action", ev.Action,
				"outcome", string(ev.Outcome),
			}
			if ev.Error != "" {
				attrs = append(attrs, "err", ev.Error)
			}
			logger.InfoContext(ctx, string(ev.Type), attrs...)
		},
		OnRetryAttempt: func(ctx context.Context, ev *domain.ActionEvent) {
			logger.WarnContext(ctx, string(ev.Type),
				"run_id", ev.RunID,
				"path", ev.Path,
				"attempt", ev.Attempt,
				"err", ev.Error,
			)
		},
		OnVariableChanged: func(ctx context.Context, ev *domain.VariableEvent) {
			logger.DebugContext(ctx, string(ev.Type),
				"run_id", ev.RunID,
				"path", ev.Path,
				"name", ev.Name,
			)
		},
	}
}
