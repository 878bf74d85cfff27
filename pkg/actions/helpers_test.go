package actions_test

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// step is a scriptable leaf for composite tests. Each run consumes one
// outcome from the queue; an empty queue succeeds. Runs are counted and
// optionally appended to a shared trace.
type step struct {
	domain.Base
	calls int
	trace *[]string
	queue []domain.Outcome
}

func (s *step) Run(ctx context.Context, env *domain.Environment) domain.Outcome {
	s.calls++
	if s.trace != nil {
		*s.trace = append(*s.trace, s.Name())
	}
	if len(s.queue) > 0 {
		out := s.queue[0]
		s.queue = s.queue[1:]
		return out
	}
	return domain.Succeed()
}

func ok(name string) *step {
	return &step{Base: domain.NewBase(name, "")}
}

func traced(log *[]string, name string) *step {
	return &step{Base: domain.NewBase(name, ""), trace: log}
}

func scripted(name string, outcomes ...domain.Outcome) *step {
	return &step{Base: domain.NewBase(name, ""), queue: outcomes}
}
