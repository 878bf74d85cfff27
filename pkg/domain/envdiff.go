package domain

import "reflect"

// Changes computes the delta between two environment snapshots: keys
// added or modified map to their new value, deleted keys map to nil.
// The result is nil when nothing changed, so callers can skip emitting.
func Changes(before, after map[string]any) map[string]any {
	delta := make(map[string]any)

	for k, newVal := range after {
		oldVal, exists := before[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}
	for k := range before {
		if _, exists := after[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}
