/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing flow trees.

It allows developers to define flows using a type-safe, fluent builder pattern
instead of relying on external YAML files. This is particularly useful for dynamic flow
generation, unit testing, and leveraging IDE autocompletion/type-checking.

Example usage:

	package main

	import (
		"time"

		"github.com/aretw0/espalier/pkg/dsl"
	)

	func main() {
		b := dsl.New("nightly-sync").
			Describe("Drain the upload queue in batches.").
			Env("batch", 10)

		b.Set("i", "0")
		b.While("drain", "i < batch", func(body *dsl.Steps) {
			body.Process("sync-one", "rsync", "--partial").
				Retry(3, 2*time.Second)
			body.Set("i", "i + 1")
		})
		b.Delay("cooldown", time.Second)

		// The resulting library satisfies ports.FlowLibrary
		lib, err := b.Library()
		_ = lib
		_ = err
		// ... pass the library to espalier.New(...)
	}
*/
package dsl
