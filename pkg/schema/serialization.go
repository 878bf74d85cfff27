package schema

import (
	"encoding/json"
	"fmt"
)

// Strings renders the schema as declaration strings, the inverse of
// ParseTypeMap. Nil types are skipped; a nil schema yields nil.
func (s Schema) Strings() map[string]string {
	if s == nil {
		return nil
	}
	out := make(map[string]string, len(s))
	for key, typ := range s {
		if typ == nil {
			continue
		}
		out[key] = typ.Name()
	}
	return out
}

// MarshalJSON encodes the schema as a map of declaration strings.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal(s.Strings())
}

// UnmarshalJSON decodes a map of declaration strings into a parsed
// schema. Custom types have no declaration syntax and do not survive a
// round trip.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("schema must map keys to type names: %w", err)
	}

	parsed, err := ParseTypeMap(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
