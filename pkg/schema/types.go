package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Type checks one environment value against one declared type.
type Type interface {
	// Name is the declaration spelling of the type ("int", "[string]").
	Name() string

	// Validate reports why value does not conform, nil when it does.
	Validate(value any) error
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		// JSON has no integers; whole numbers arrive as float64.
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got fractional number %v", v)
	case json.Number:
		if _, err := v.Int64(); err != nil {
			return fmt.Errorf("expected int, got number %s", v)
		}
		return nil
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

type floatType struct{}

func (floatType) Name() string { return "float" }

func (floatType) Validate(value any) error {
	switch v := value.(type) {
	case float32, float64, int, int8, int16, int32, int64:
		return nil
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return fmt.Errorf("expected float, got number %s", v)
		}
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

type boolType struct{}

func (boolType) Name() string { return "bool" }

func (boolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// durationType accepts time.Duration values and strings in Go duration
// syntax ("30s", "1m30s"). Bare numbers are rejected: a unitless 30
// would silently mean nanoseconds.
type durationType struct{}

func (durationType) Name() string { return "duration" }

func (durationType) Validate(value any) error {
	switch v := value.(type) {
	case time.Duration:
		return nil
	case string:
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("expected duration, cannot parse %q", v)
		}
		return nil
	default:
		return fmt.Errorf("expected duration, got %T", value)
	}
}

type sliceType struct {
	elem Type
}

func (t sliceType) Name() string {
	return "[" + t.elem.Name() + "]"
}

func (t sliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected %s, got %T", t.Name(), value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type customType struct {
	name  string
	check func(any) error
}

func (t customType) Name() string { return t.name }

func (t customType) Validate(value any) error { return t.check(value) }

// String matches string values.
func String() Type { return stringType{} }

// Int matches integer values, including whole float64 and json.Number
// values the way decoders deliver them.
func Int() Type { return intType{} }

// Float matches numeric values.
func Float() Type { return floatType{} }

// Bool matches boolean values.
func Bool() Type { return boolType{} }

// Duration matches time.Duration values and duration strings.
func Duration() Type { return durationType{} }

// Slice matches slices whose every element satisfies elem.
func Slice(elem Type) Type { return sliceType{elem: elem} }

// Custom builds a Type from a name and a predicate.
func Custom(name string, check func(any) error) Type {
	return customType{name: name, check: check}
}

// ParseType resolves a declaration string to a Type. Built-in names are
// string, int, float, bool and duration; wrapping a name in brackets
// declares a slice of it, nested to any depth.
func ParseType(s string) (Type, error) {
	if len(s) > 2 && strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		elem, err := ParseType(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}

	switch s {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "duration":
		return Duration(), nil
	default:
		return nil, fmt.Errorf("unknown type %q", s)
	}
}

// ParseTypeMap resolves a map of declaration strings into a Schema.
func ParseTypeMap(names map[string]string) (Schema, error) {
	s := make(Schema, len(names))
	for key, name := range names {
		typ, err := ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", key, err)
		}
		s[key] = typ
	}
	return s, nil
}
