package schema

import "sort"

// Schema maps environment keys to the type each value must satisfy.
type Schema map[string]Type

// Keys returns the declared keys in lexical order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks data against the schema. Every key the schema names
// must be present and conform; keys outside the schema pass untouched.
// Failures come back together in one AggregateError, ordered by key.
func Validate(s Schema, data map[string]any) error {
	if len(s) == 0 {
		return nil
	}

	var errs []error
	for _, key := range s.Keys() {
		errs = check(errs, s, data, key)
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateFields checks only the named keys. Naming a key the schema
// does not declare is itself a failure.
func ValidateFields(s Schema, data map[string]any, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	var errs []error
	for _, key := range fields {
		if _, ok := s[key]; !ok {
			errs = append(errs, &ValidationError{Key: key, Reason: "not declared"})
			continue
		}
		errs = check(errs, s, data, key)
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func check(errs []error, s Schema, data map[string]any, key string) []error {
	value, ok := data[key]
	if !ok {
		return append(errs, &ValidationError{Key: key, Reason: "required"})
	}
	if err := s[key].Validate(value); err != nil {
		return append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
	}
	return errs
}
