package desktop

import (
	"context"

	"github.com/aretw0/espalier/pkg/expression"
	"github.com/aretw0/espalier/pkg/ports"
)

// ElementExists returns an evaluator option that exposes
//
//	element_exists(kind, value) -> bool
//
// to condition expressions, backed by the given locator. Lookup
// failures of any sort read as "not there", which is what a condition
// probing for UI readiness wants.
func ElementExists(loc ports.Locator) expression.Option {
	return expression.WithContextFunction("element_exists", func(ctx context.Context) any {
		return func(kind, value string) bool {
			if loc == nil {
				return false
			}
			s, err := loc.Open(ctx)
			if err != nil {
				return false
			}
			defer func() { _ = s.Close() }()
			_, err = s.Find(ctx, ports.Selector{Kind: ports.SelectorKind(kind), Value: value})
			return err == nil
		}
	})
}
