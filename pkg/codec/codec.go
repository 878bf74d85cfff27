// Package codec translates flow documents between YAML and the domain
// action tree. Decoding is registry driven: every action names its type
// and only types present in the registry are instantiated, with the
// codec's collaborators (evaluator, locator, runner) wired into the
// decoded actions. Encoding is the inverse and produces documents that
// decode back to an equivalent tree.
package codec

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/aretw0/espalier/pkg/schema"
)

// flowDoc is the YAML envelope of a flow document. Actions stays `any`
// so a document without an action list decodes to a nil body while an
// explicit empty list decodes to an empty one.
type flowDoc struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Requires    []string       `yaml:"requires,omitempty"`
	EnvTypes    map[string]any `yaml:"env_types,omitempty"`
	Env         map[string]any `yaml:"env,omitempty"`
	Actions     any            `yaml:"actions"`
}

// header carries the attributes every action shares, regardless of
// type.
type header struct {
	Type        string `mapstructure:"type"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Disabled    bool   `mapstructure:"disabled"`
}

// headered is satisfied by actions that accept the common header
// attributes, which is every action embedding domain.Base.
type headered interface {
	SetName(string)
	SetDescription(string)
	SetEnabled(bool)
}

// Codec translates between flow documents and action trees.
type Codec struct {
	reg  *registry.Registry
	deps registry.Deps
}

var _ registry.Codec = (*Codec)(nil)

// New returns a codec over the given registry. A nil registry means
// the builtin action types.
func New(reg *registry.Registry, deps registry.Deps) *Codec {
	if reg == nil {
		reg = Builtin()
	}
	return &Codec{reg: reg, deps: deps}
}

// Dependencies exposes the collaborators wired into decoded actions.
func (c *Codec) Dependencies() registry.Deps { return c.deps }

// Registry exposes the registry the codec dispatches on, so hosts can
// list or extend the known action types.
func (c *Codec) Registry() *registry.Registry { return c.reg }

// DecodeFlow parses a YAML flow document into a flow.
//
// Top level keys are name, description, requires, env_types, env and
// actions. A document without an action list yields a flow with a nil
// body, which the validator reports as critical; an explicit empty
// list yields an empty body, which is merely suspicious.
func (c *Codec) DecodeFlow(data []byte) (*domain.Flow, error) {
	var doc flowDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing flow document: %w", err)
	}

	f := domain.NewFlow(doc.Name)
	f.SetDescription(doc.Description)
	f.Requires = doc.Requires
	types, err := typeSchema(doc.EnvTypes)
	if err != nil {
		return nil, fmt.Errorf("env_types: %w", err)
	}
	f.EnvTypes = types
	for k, v := range doc.Env {
		f.Env.Set(k, v)
	}

	if doc.Actions != nil {
		actions, err := c.ActionList(doc.Actions)
		if err != nil {
			return nil, err
		}
		f.Body = domain.NewSequence(actions...)
	}
	return f, nil
}

// EncodeFlow renders a flow back to a YAML document.
func (c *Codec) EncodeFlow(f *domain.Flow) ([]byte, error) {
	if f == nil {
		return nil, errors.New("cannot encode a nil flow")
	}

	doc := flowDoc{
		Name:        f.Name(),
		Description: f.Description(),
		Requires:    f.Requires,
		EnvTypes:    typeSpec(f.EnvTypes),
	}
	if f.Env != nil && f.Env.Len() > 0 {
		doc.Env = f.Env.Snapshot()
	}
	if f.Body.Actions() != nil {
		list, err := c.SpecList(f.Body)
		if err != nil {
			return nil, err
		}
		doc.Actions = list
	}
	return yaml.Marshal(doc)
}

// ActionList decodes a raw YAML list into actions. Nil input yields a
// nil slice; an empty list yields an empty, non nil one.
func (c *Codec) ActionList(v any) ([]domain.Action, error) {
	specs, err := asSpecList(v)
	if err != nil {
		return nil, err
	}
	if specs == nil {
		return nil, nil
	}

	actions := make([]domain.Action, 0, len(specs))
	for i, spec := range specs {
		a, err := c.decodeAction(spec)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// SequenceOf decodes a raw YAML list into a sequence.
func (c *Codec) SequenceOf(v any) (domain.Sequence, error) {
	actions, err := c.ActionList(v)
	if err != nil {
		return domain.Sequence{}, err
	}
	return domain.NewSequence(actions...), nil
}

// SingleSequence decodes a value holding either one action mapping or
// a list of them into a sequence.
func (c *Codec) SingleSequence(v any) (domain.Sequence, error) {
	if spec, ok := v.(map[string]any); ok {
		a, err := c.decodeAction(spec)
		if err != nil {
			return domain.Sequence{}, err
		}
		return domain.NewSequence(a), nil
	}
	return c.SequenceOf(v)
}

// SpecList encodes a sequence to a list of spec maps, nil for a zero
// sequence.
func (c *Codec) SpecList(seq domain.Sequence) ([]map[string]any, error) {
	src := seq.Actions()
	if src == nil {
		return nil, nil
	}

	specs := make([]map[string]any, 0, len(src))
	for i, a := range src {
		spec, err := c.encodeAction(a)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// SingleSpec encodes a sequence as one spec map when it holds a single
// action, as a list otherwise, and as nil when empty.
func (c *Codec) SingleSpec(seq domain.Sequence) (any, error) {
	switch seq.Len() {
	case 0:
		return nil, nil
	case 1:
		return c.encodeAction(seq.Actions()[0])
	default:
		return c.SpecList(seq)
	}
}

func (c *Codec) decodeAction(spec map[string]any) (domain.Action, error) {
	var h header
	if err := decodeSpec(spec, &h); err != nil {
		return nil, err
	}
	if h.Type == "" {
		return nil, errors.New("action is missing a type")
	}

	entry, err := c.reg.Lookup(h.Type)
	if err != nil {
		return nil, err
	}
	if entry.Decode == nil {
		return nil, fmt.Errorf("action type %s cannot be decoded", h.Type)
	}

	a, err := entry.Decode(c, spec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.Type, err)
	}
	if hd, ok := a.(headered); ok {
		hd.SetName(h.Name)
		hd.SetDescription(h.Description)
		hd.SetEnabled(!h.Disabled)
	}
	return a, nil
}

func (c *Codec) encodeAction(a domain.Action) (map[string]any, error) {
	for name, entry := range c.reg.Entries() {
		if entry.Encode == nil {
			continue
		}
		body, ok, err := entry.Encode(c, a)
		if !ok {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		spec := map[string]any{"type": name}
		if a.Name() != "" {
			spec["name"] = a.Name()
		}
		if a.Description() != "" {
			spec["description"] = a.Description()
		}
		if !a.Enabled() {
			spec["disabled"] = true
		}
		for k, v := range body {
			spec[k] = v
		}
		return spec, nil
	}
	return nil, fmt.Errorf("no registered type encodes %T", a)
}

// asSpecList normalizes the raw shapes yaml.v3 produces for an action
// list into spec maps.
func asSpecList(v any) ([]map[string]any, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []map[string]any:
		return list, nil
	case []any:
		specs := make([]map[string]any, 0, len(list))
		for i, item := range list {
			spec, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("action %d: expected a mapping, got %T", i, item)
			}
			specs = append(specs, spec)
		}
		return specs, nil
	default:
		return nil, fmt.Errorf("expected an action list, got %T", v)
	}
}

// decodeSpec maps a raw spec onto a typed struct, parsing duration
// strings such as "250ms" along the way.
func decodeSpec(spec map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(spec)
}

// typeSchema parses an env_types mapping into a schema. Values are
// type names ("int", "duration"); a one element list is sugar for the
// slice type, so `tags: [string]` reads naturally in YAML.
func typeSchema(raw map[string]any) (schema.Schema, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	names := make(map[string]string, len(raw))
	for key, value := range raw {
		name, err := typeName(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		names[key] = name
	}
	return schema.ParseTypeMap(names)
}

func typeName(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []any:
		if len(v) != 1 {
			return "", errors.New("slice types take exactly one element type")
		}
		inner, err := typeName(v[0])
		if err != nil {
			return "", err
		}
		return "[" + inner + "]", nil
	default:
		return "", fmt.Errorf("expected a type name or one element list, got %T", value)
	}
}

// typeSpec is the encode side inverse: declaration strings keyed by
// environment key, nil when there is no schema.
func typeSpec(s schema.Schema) map[string]any {
	if len(s) == 0 {
		return nil
	}
	spec := make(map[string]any, len(s))
	for key, name := range s.Strings() {
		spec[key] = name
	}
	return spec
}
