package desktop

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/expression"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/validation"
)

// checkSelector validates one selector field of an automation action.
func checkSelector(field string, sel ports.Selector) []validation.Issue {
	var issues []validation.Issue
	if !sel.Kind.Valid() {
		issues = append(issues, validation.Err(fmt.Sprintf("%s: unknown selector kind %q", field, sel.Kind)))
	}
	if sel.Value == "" {
		issues = append(issues, validation.Err(field+": empty selector value"))
	}
	return issues
}

func (a *Click) Check() []validation.Issue {
	return checkSelector("target", a.Target)
}

func (a *SetText) Check() []validation.Issue {
	issues := checkSelector("target", a.Target)
	if a.TextFrom != "" {
		if err := expression.OrDefault(a.Eval).Check(a.TextFrom); err != nil {
			issues = append(issues, validation.Err(fmt.Sprintf("text expression %q: %v", a.TextFrom, err)))
		}
	}
	return issues
}

func (a *ReadText) Check() []validation.Issue {
	issues := checkSelector("target", a.Target)
	if a.ResultVar == "" {
		issues = append(issues, validation.Err("no result variable"))
	}
	return issues
}

func (a *WaitForElement) Check() []validation.Issue {
	return checkSelector("target", a.Target)
}

func (a *WindowTextSearch) Check() []validation.Issue {
	issues := checkSelector("window", a.Window)
	if a.Search == "" {
		issues = append(issues, validation.Warn("empty search text matches everything"))
	}
	return issues
}

var (
	_ validation.Checker = (*Click)(nil)
	_ validation.Checker = (*SetText)(nil)
	_ validation.Checker = (*ReadText)(nil)
	_ validation.Checker = (*WaitForElement)(nil)
	_ validation.Checker = (*WindowTextSearch)(nil)
)
