package domain

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/schema"
)

// EnvContractError reports required environment keys a run did not
// provide.
type EnvContractError struct {
	Flow    string
	Missing []string
}

func (e *EnvContractError) Error() string {
	return fmt.Sprintf("flow %q is missing required environment keys: %v", e.Flow, e.Missing)
}

// EnvTypeError reports environment values that do not satisfy the
// flow's declared types.
type EnvTypeError struct {
	Flow string
	Err  error
}

func (e *EnvTypeError) Error() string {
	return fmt.Sprintf("flow %q environment: %v", e.Flow, e.Err)
}

func (e *EnvTypeError) Unwrap() error { return e.Err }

// CheckEnv verifies the environment against the flow's declared
// contract: every Requires key present, every EnvTypes value of its
// declared type. Missing keys are reported before type problems, all
// of a kind at once. A flow without a contract always passes.
func (f *Flow) CheckEnv() error {
	if len(f.Requires) == 0 && len(f.EnvTypes) == 0 {
		return nil
	}

	values := map[string]any{}
	if f.Env != nil {
		values = f.Env.Snapshot()
	}

	var missing []string
	for _, key := range f.Requires {
		if _, ok := values[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &EnvContractError{Flow: f.Name(), Missing: missing}
	}

	if err := schema.Validate(f.EnvTypes, values); err != nil {
		return &EnvTypeError{Flow: f.Name(), Err: err}
	}
	return nil
}
