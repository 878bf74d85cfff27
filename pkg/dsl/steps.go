package dsl

import (
	"fmt"
	"time"

	"github.com/aretw0/espalier/pkg/actions"
	"github.com/aretw0/espalier/pkg/domain"
)

// Steps appends actions to one sequence: the flow body or a composite
// branch. Methods return the same scope so calls chain; attribute
// methods like Retry and Every configure the step appended last.
type Steps struct {
	seq  *domain.Sequence
	last domain.Action
	sink *Builder
}

func (s *Steps) branch(seq *domain.Sequence) *Steps {
	return &Steps{seq: seq, sink: s.sink}
}

func (s *Steps) append(a domain.Action) *Steps {
	s.seq.Append(a)
	s.last = a
	return s
}

// Assignment names a variable update for For's init and step slots.
type Assignment struct {
	Variable string
	Value    string
}

// Let builds an assignment: Let("i", "0") reads like the header of a
// counted loop.
func Let(variable, value string) Assignment {
	return Assignment{Variable: variable, Value: value}
}

// Delay appends a fixed wait.
func (s *Steps) Delay(name string, d time.Duration) *Steps {
	return s.append(actions.NewDelay(name, d))
}

// Set appends an assignment of an expression result to a variable.
func (s *Steps) Set(variable, value string) *Steps {
	return s.append(actions.NewSetVariable(variable, value))
}

// Process appends an external program launch.
func (s *Steps) Process(name, program string, args ...string) *Steps {
	return s.append(actions.NewRunProcess(name, program, args...))
}

// WaitUntil appends a poll that blocks until the condition turns true.
func (s *Steps) WaitUntil(name, condition string) *Steps {
	return s.append(actions.NewWaitUntil(name, condition))
}

// If appends a conditional and populates its then branch.
func (s *Steps) If(name, condition string, then func(*Steps)) *Steps {
	a := actions.NewIf(name, condition)
	then(s.branch(&a.Then))
	return s.append(a)
}

// Else populates the else branch of the conditional appended last.
func (s *Steps) Else(els func(*Steps)) *Steps {
	cond, ok := s.last.(*actions.If)
	if !ok {
		s.sink.report(fmt.Errorf("dsl: Else must follow If, not %T", s.last))
		return s
	}
	cond.ShowElse = true
	els(s.branch(&cond.Else))
	return s
}

// While appends a condition-guarded loop and populates its body.
func (s *Steps) While(name, condition string, body func(*Steps)) *Steps {
	a := actions.NewWhile(name, condition)
	body(s.branch(&a.Body))
	return s.append(a)
}

// For appends a counted loop: init assignment, per-iteration
// condition, step assignment, body.
func (s *Steps) For(name string, init Assignment, condition string, step Assignment, body func(*Steps)) *Steps {
	a := actions.NewFor(name, condition)
	a.Init.Append(actions.NewSetVariable(init.Variable, init.Value))
	a.Increment.Append(actions.NewSetVariable(step.Variable, step.Value))
	body(s.branch(&a.Body))
	return s.append(a)
}

// Do appends any action, covering types the fluent methods do not.
func (s *Steps) Do(action domain.Action) *Steps {
	return s.append(action)
}

// Describe sets the description of the step appended last.
func (s *Steps) Describe(description string) *Steps {
	if base, ok := s.last.(interface{ SetDescription(string) }); ok {
		base.SetDescription(description)
	}
	return s
}

// Disable excludes the step appended last from execution. The
// scheduler skips it; validation still sees it.
func (s *Steps) Disable() *Steps {
	if base, ok := s.last.(interface{ SetEnabled(bool) }); ok {
		base.SetEnabled(false)
	}
	return s
}

// Retry bounds re-attempts of the process appended last: times extra
// attempts with delay between them.
func (s *Steps) Retry(times int, delay time.Duration) *Steps {
	proc, ok := s.last.(*actions.RunProcess)
	if !ok {
		s.sink.report(fmt.Errorf("dsl: Retry must follow Process, not %T", s.last))
		return s
	}
	proc.Retry = domain.RetryPolicy{Times: times, Delay: delay}
	return s
}

// Into stores the stdout of the process appended last in a variable.
func (s *Steps) Into(variable string) *Steps {
	proc, ok := s.last.(*actions.RunProcess)
	if !ok {
		s.sink.report(fmt.Errorf("dsl: Into must follow Process, not %T", s.last))
		return s
	}
	proc.ResultVar = variable
	return s
}

// Every sets the polling cadence of the wait appended last.
func (s *Steps) Every(interval time.Duration) *Steps {
	wait, ok := s.last.(*actions.WaitUntil)
	if !ok {
		s.sink.report(fmt.Errorf("dsl: Every must follow WaitUntil, not %T", s.last))
		return s
	}
	wait.Interval = interval
	return s
}

// Within sets the give-up timeout of the wait appended last.
func (s *Steps) Within(timeout time.Duration) *Steps {
	wait, ok := s.last.(*actions.WaitUntil)
	if !ok {
		s.sink.report(fmt.Errorf("dsl: Within must follow WaitUntil, not %T", s.last))
		return s
	}
	wait.Timeout = timeout
	return s
}
