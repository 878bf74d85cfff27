package desktop

import (
	"context"
	"errors"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

var errNoLocator = errors.New("no element locator configured")

// withSession runs one attempt inside a freshly opened automation
// session, closing it on the way out.
func withSession(ctx context.Context, loc ports.Locator, fn func(context.Context, ports.Session) domain.Outcome) domain.Outcome {
	if loc == nil {
		return domain.Fail(errNoLocator)
	}
	s, err := loc.Open(ctx)
	if err != nil {
		return failOrPause(ctx, err)
	}
	defer func() { _ = s.Close() }()
	return fn(ctx, s)
}

// failOrPause classifies an automation error: if the run is being
// canceled the error is an artifact of stopping, so the action pauses;
// otherwise it is a real failure.
func failOrPause(ctx context.Context, err error) domain.Outcome {
	if ctx.Err() != nil {
		return domain.Pause()
	}
	return domain.Fail(err)
}
