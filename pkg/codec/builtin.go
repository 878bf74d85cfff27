package codec

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/actions"
	"github.com/aretw0/espalier/pkg/actions/desktop"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
)

// Builtin returns a registry holding every action type shipped with
// the engine. Hosts extend the returned registry to add their own
// types.
func Builtin() *registry.Registry {
	r := registry.New()

	r.Register("set_variable", registry.Entry{Decode: decodeSetVariable, Encode: encodeSetVariable})
	r.Register("delay", registry.Entry{Decode: decodeDelay, Encode: encodeDelay})
	r.Register("wait_until", registry.Entry{Decode: decodeWaitUntil, Encode: encodeWaitUntil})
	r.Register("run_process", registry.Entry{Decode: decodeRunProcess, Encode: encodeRunProcess})

	r.Register("if", registry.Entry{Decode: decodeIf, Encode: encodeIf})
	r.Register("while", registry.Entry{Decode: decodeWhile, Encode: encodeWhile})
	r.Register("for", registry.Entry{Decode: decodeFor, Encode: encodeFor})
	r.Register("flow", registry.Entry{Decode: decodeFlowStep, Encode: encodeFlowStep})

	r.Register("click", registry.Entry{Decode: decodeClick, Encode: encodeClick})
	r.Register("set_text", registry.Entry{Decode: decodeSetText, Encode: encodeSetText})
	r.Register("read_text", registry.Entry{Decode: decodeReadText, Encode: encodeReadText})
	r.Register("wait_for_element", registry.Entry{Decode: decodeWaitForElement, Encode: encodeWaitForElement})
	r.Register("window_text_search", registry.Entry{Decode: decodeWindowTextSearch, Encode: encodeWindowTextSearch})

	return r
}

func decodeSetVariable(c registry.Codec, spec map[string]any) (domain.Action, error) {
	a := &actions.SetVariable{}
	if err := decodeSpec(spec, a); err != nil {
		return nil, err
	}
	a.Eval = c.Dependencies().Eval
	return a, nil
}

func encodeSetVariable(_ registry.Codec, a domain.Action) (map[string]any, bool, error) {
	v, ok := a.(*actions.SetVariable)
	if !ok {
		return nil, false, nil
	}
	return map[string]any{"variable": v.Variable, "value": v.Value}, true, nil
}

func decodeDelay(_ registry.Codec, spec map[string]any) (domain.Action, error) {
	a := &actions.Delay{}
	if err := decodeSpec(spec, a); err != nil {
		return nil, err
	}
	return a, nil
}

func encodeDelay(_ registry.Codec, a domain.Action) (map[string]any, bool, error) {
	v, ok := a.(*actions.Delay)
	if !ok {
		return nil, false, nil
	}
	return map[string]any{"duration": v.Duration.String()}, true, nil
}

func decodeWaitUntil(c registry.Codec, spec map[string]any) (domain.Action, error) {
	a := &actions.WaitUntil{}
	if err := decodeSpec(spec, a); err != nil {
		return nil, err
	}
	a.Eval = c.Dependencies().Eval
	return a, nil
}

func encodeWaitUntil(_ registry.Codec, a domain.Action) (map[string]any, bool, error) {
	v, ok := a.(*actions.WaitUntil)
	if !ok {
		return nil, false, nil
	}
	spec := map[string]any{"condition": v.Condition}
	if v.Interval > 0 {
		spec["interval"] = v.Interval.String()
	}
	if v.Timeout > 0 {
		spec["timeout"] = v.Timeout.String()
	}
	return spec, true, nil
}

func decodeRunProcess(c registry.Codec, spec map[string]any) (domain.Action, error) {
	a := &actions.RunProcess{}
	if err := decodeSpec(spec, a); err != nil {
		return nil, err
	}
	a.Runner = c.Dependencies().Runner
	return a, nil
}

func encodeRunProcess(_ registry.Codec, a domain.Action) (map[string]any, bool, error) {
	v, ok := a.(*actions.RunProcess)
	if !ok {
		return nil, false, nil
	}
	spec := map[string]any{"program": v.Program}
	if len(v.Args) > 0 {
		spec["args"] = v.Args
	}
	if v.ResultVar != "" {
		spec["result_var"] = v.ResultVar
	}
	putRetry(spec, v.Retry)
	return spec, true, nil
}

func decodeIf(c registry.Codec, spec map[string]any) (domain.Action, error) {
	a := &actions.If{}
	if err := decodeSpec(spec, a); err != nil {
		return nil, err
	}

	var err error
	if a.Then, err = c.SequenceOf(spec["then"]); err != nil {
		return nil, fmt.Errorf("then: %w", err)
	}
	if a.Else, err = c.SequenceOf(spec["else"]); err != nil {
		return nil, fmt.Errorf("else: %w", err)
	}
	if a.Else.Len() > 0 {
		a.ShowElse = true
	}
	a.Eval = c.Dependencies().Eval
	return a, nil
}

func encodeIf(c registry.Codec, a domain.Action) (map[string]any, bool, error) {
	v, ok := a.(*actions.If)
	if !ok {
		return nil, false, nil
	}
	spec := map[string]any{"condition": v.Condition}

	then, err := c.SpecList(v.Then)
	if err != nil {
		return nil, true, fmt.Errorf("then: %w", err)
	}
	if len(then) > 0 {
		spec["then"] = then
	}

	els, err := c.SpecList(v.Else)
	if err != nil {
		return nil, true, fmt.Errorf("else: %w", err)
	}
	if len(els) > 0 {
		spec["else"] = els
	} else if v.ShowElse {
		spec["show_else"] = true
	}
	return spec, true, nil
}

func decodeWhile(c registry.Codec, spec map[string]any) (domain.Action, error) {
	a := &actions.While{}
	if err := decodeSpec(spec, a); err != nil {
		return nil, err
	}

	var err error
	if a.Body, err = c.SequenceOf(spec["body"]); err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	a.Eval = c.Dependencies().Eval
	return a, nil
}

func encodeWhile(c registry.Codec, a domain.Action) (map[string]any, bool, error) {
	v, ok := a.(*actions.While)
	if !ok {
		return nil, false, nil
	}
	spec := map[string]any{"condition": v.Condition}

	body, err := c.SpecList(v.Body)
	if err != nil {
		return nil, true, fmt.Errorf("body: %w", err)
	}
	if len(body) > 0 {
		spec["body"] = body
	}
	return spec, true, nil
}

func decodeFor(c registry.Codec, spec map[string]any) (domain.Action, error) {
	a := &actions.For{}
	if err := decodeSpec(spec, a); err != nil {
		return nil, err
	}

	var err error
	if a.Init, err = c.SingleSequence(spec["init"]); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	if a.Body, err = c.SequenceOf(spec["body"]); err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	if a.Increment, err = c.SingleSequence(spec["increment"]); err != nil {
		return nil, fmt.Errorf("increment: %w", err)
	}
	a.Eval = c.Dependencies().Eval
	return a, nil
}

func encodeFor(c registry.Codec, a domain.Action) (map[string]any, bool, error) {
	v, ok := a.(*actions.For)
	if !ok {
		return nil, false, nil
	}
	spec := map[string]any{"condition": v.Condition}

	init, err := c.SingleSpec(v.Init)
	if err != nil {
		return nil, true, fmt.Errorf("init: %w", err)
	}
	if init != nil {
		spec["init"] = init
	}

	body, err := c.SpecList(v.Body)
	if err != nil {
		return nil, true, fmt.Errorf("body: %w", err)
	}
	if len(body) > 0 {
		spec["body"] = body
	}

	incr, err := c.SingleSpec(v.Increment)
	if err != nil {
		return nil, true, fmt.Errorf("increment: %w", err)
	}
	if incr != nil {
		spec["increment"] = incr
	}
	return spec, true, nil
}

// decodeFlowStep decodes a nested flow, which runs its body against
// its own environment rather than the parent's. Nested flows carry the
// same contract keys a top level document does.
func decodeFlowStep(c registry.Codec, spec map[string]any) (domain.Action, error) {
	f := domain.NewFlow("")
	if raw, ok := spec["requires"].([]any); ok {
		for _, v := range raw {
			key, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("requires: expected key names, got %T", v)
			}
			f.Requires = append(f.Requires, key)
		}
	}
	if raw, ok := spec["env_types"].(map[string]any); ok {
		types, err := typeSchema(raw)
		if err != nil {
			return nil, fmt.Errorf("env_types: %w", err)
		}
		f.EnvTypes = types
	}
	if env, ok := spec["env"].(map[string]any); ok {
		for k, v := range env {
			f.Env.Set(k, v)
		}
	}
	if raw, ok := spec["actions"]; ok && raw != nil {
		seq, err := c.SequenceOf(raw)
		if err != nil {
			return nil, fmt.Errorf("actions: %w", err)
		}
		f.Body = seq
	}
	return f, nil
}

func encodeFlowStep(c registry.Codec, a domain.Action) (map[string]any, bool, error) {
	v, ok := a.(*domain.Flow)
	if !ok {
		return nil, false, nil
	}
	spec := map[string]any{}
	if len(v.Requires) > 0 {
		spec["requires"] = v.Requires
	}
	if len(v.EnvTypes) > 0 {
		spec["env_types"] = typeSpec(v.EnvTypes)
	}
	if v.Env != nil && v.Env.Len() > 0 {
		spec["env"] = v.Env.Snapshot()
	}
	if v.Body.Actions() != nil {
		list, err := c.SpecList(v.Body)
		if err != nil {
			return nil, true, fmt.Errorf("actions: %w", err)
		}
		spec["actions"] = list
	}
	return spec, true, nil
}

func decodeClick(c registry.Codec, spec map[string]any) (domain.Action, error) {
	a := &desktop.Click{}
	if err := decodeSpec(spec, a); err != nil {
		return nil, err
	}
	a.Locator = c.Dependencies().Locator
	return a, nil
}

func encodeClick(_ registry.Codec, a domain.Action) (map[string]any, bool, error) {
	v, ok := a.(*desktop.Click)
	if !ok {
		return nil, false, nil
	}
	spec := map[string]any{"target": selectorSpec(v.Target)}
	putRetry(spec, v.Retry)
	return spec, true, nil
}

func decodeSetText(c registry.Codec, spec map[string]any) (domain.Action, error) {
	a := &desktop.SetText{}
	if err := decodeSpec(spec, a); err != nil {
		return nil, err
	}
	a.Locator = c.Dependencies().Locator
	a.Eval = c.Dependencies().Eval
	return a, nil
}

func encodeSetText(_ registry.Codec, a domain.Action) (map[string]any, bool, error) {
	v, ok := a.(*desktop.SetText)
	if !ok {
		return nil, false, nil
	}
	spec := map[string]any{"target": selectorSpec(v.Target)}
	if v.Text != "" {
		spec["text"] = v.Text
	}
	if v.TextFrom != "" {
		spec["text_from"] = v.TextFrom
	}
	putRetry(spec, v.Retry)
	return spec, true, nil
}

func decodeReadText(c registry.Codec, spec map[string]any) (domain.Action, error) {
	a := &desktop.ReadText{}
	if err := decodeSpec(spec, a); err != nil {
		return nil, err
	}
	a.Locator = c.Dependencies().Locator
	return a, nil
}

func encodeReadText(_ registry.Codec, a domain.Action) (map[string]any, bool, error) {
	v, ok := a.(*desktop.ReadText)
	if !ok {
		return nil, false, nil
	}
	spec := map[string]any{"target": selectorSpec(v.Target), "result_var": v.ResultVar}
	putRetry(spec, v.Retry)
	return spec, true, nil
}

func decodeWaitForElement(c registry.Codec, spec map[string]any) (domain.Action, error) {
	a := &desktop.WaitForElement{}
	if err := decodeSpec(spec, a); err != nil {
		return nil, err
	}
	a.Locator = c.Dependencies().Locator
	return a, nil
}

func encodeWaitForElement(_ registry.Codec, a domain.Action) (map[string]any, bool, error) {
	v, ok := a.(*desktop.WaitForElement)
	if !ok {
		return nil, false, nil
	}
	spec := map[string]any{"target": selectorSpec(v.Target)}
	if v.Interval > 0 {
		spec["interval"] = v.Interval.String()
	}
	if v.Timeout > 0 {
		spec["timeout"] = v.Timeout.String()
	}
	return spec, true, nil
}

func decodeWindowTextSearch(c registry.Codec, spec map[string]any) (domain.Action, error) {
	a := &desktop.WindowTextSearch{}
	if err := decodeSpec(spec, a); err != nil {
		return nil, err
	}
	a.Locator = c.Dependencies().Locator
	return a, nil
}

func encodeWindowTextSearch(_ registry.Codec, a domain.Action) (map[string]any, bool, error) {
	v, ok := a.(*desktop.WindowTextSearch)
	if !ok {
		return nil, false, nil
	}
	spec := map[string]any{"window": selectorSpec(v.Window), "search": v.Search}
	if v.ResultVar != "" {
		spec["result_var"] = v.ResultVar
	}
	putRetry(spec, v.Retry)
	return spec, true, nil
}

func selectorSpec(sel ports.Selector) map[string]any {
	return map[string]any{"kind": string(sel.Kind), "value": sel.Value}
}

func putRetry(spec map[string]any, r domain.RetryPolicy) {
	if r == (domain.RetryPolicy{}) {
		return
	}
	retry := map[string]any{"times": r.Times}
	if r.Delay > 0 {
		retry["delay"] = r.Delay.String()
	}
	spec["retry"] = retry
}
