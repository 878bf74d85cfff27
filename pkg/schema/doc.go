// Package schema types the values of a flow environment.
//
// A Schema maps environment keys to the Type each value must satisfy.
// Flows declare one to turn "this flow needs an api_key and an integer
// retry budget" from a comment into a contract the engine enforces
// before the first action runs.
//
//	contract := schema.Schema{
//	    "api_key": schema.String(),
//	    "retries": schema.Int(),
//	    "grace":   schema.Duration(),
//	    "tags":    schema.Slice(schema.String()),
//	}
//
//	if err := schema.Validate(contract, env.Snapshot()); err != nil {
//	    // every offending key, reported together
//	}
//
// Schemas are usually not built in Go; flow documents declare them as
// type names, which ParseTypeMap turns into the real thing:
//
//	types, err := schema.ParseTypeMap(map[string]string{
//	    "api_key": "string",
//	    "tags":    "[string]",
//	})
//
// Validation is tolerant of how decoders hand numbers over: YAML and
// JSON both deliver whole numbers as float64 (or json.Number under
// strict decoding), and Int accepts those. Custom builds a Type from
// any predicate for checks the built-ins cannot express.
//
// The package depends on nothing outside the standard library, so the
// domain layer can carry a Schema without dragging decoding machinery
// along.
package schema
