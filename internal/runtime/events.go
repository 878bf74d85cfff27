package runtime

import (
	"context"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
)

// Run level events are the engine's to emit; the domain scheduler only
// reports action level progress. RunID stamping happens in the hook
// decorator, so events are built without identity here.

func emitFlowStarted(ctx context.Context, hooks *domain.LifecycleHooks, flow *domain.Flow) {
	if hooks == nil || hooks.OnFlowStarted == nil {
		return
	}
	hooks.OnFlowStarted(ctx, &domain.FlowEvent{
		Timestamp: time.Now(),
		Type:      domain.EventFlowStarted,
		Flow:      flow.Name(),
		Status:    domain.StatusRunning,
	})
}

func emitFlowFinished(ctx context.Context, hooks *domain.LifecycleHooks, flow *domain.Flow, out domain.Outcome) {
	if hooks == nil || hooks.OnFlowFinished == nil {
		return
	}
	ev := &domain.FlowEvent{
		Timestamp: time.Now(),
		Type:      domain.EventFlowFinished,
		Flow:      flow.Name(),
		Status:    out.Status(),
		Outcome:   out.Code,
	}
	if out.Err != nil {
		ev.Error = out.Err.Error()
	}
	hooks.OnFlowFinished(ctx, ev)
}

func outErr(out domain.Outcome) string {
	if out.Err != nil {
		return out.Err.Error()
	}
	return ""
}
