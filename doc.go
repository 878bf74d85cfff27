/*
Package espalier is a strictly sequential execution engine for
hierarchical action trees, designed for building resumable automation
flows: batch jobs, desktop automation, operational runbooks.

It separates the flow definition (an action tree decoded from YAML or
built in Go) from the run state (cursor and environment), so an
interrupted run can be snapshotted, stored and resumed later, on the
same machine or another one.

# Concept

A flow is a named tree of actions: leaves perform work (set a
variable, wait for a condition, launch a process, drive a UI element)
and composites (if, while, for, nested flows) arrange them. The engine
executes the tree depth first, one action at a time, never in
parallel. When a run is canceled it parks at the next safe point and
reports a pause instead of an error; the resulting snapshot pinpoints
the interrupted action through the tree.

This hexagonal layout keeps the scheduler free of I/O: flow storage,
run persistence, process launching and desktop automation are ports,
and hosts choose the adapters (Loam libraries, Redis stores, local
processes) or bring their own.

# Key Features

  - Sequential determinism: one action at a time, in declaration
    order, with failures stopping the run at the faulty step.
  - Durable runs: pause and failure snapshots capture position and
    variables; Resume continues exactly there, even after edits, as
    long as the structure still matches.
  - Static validation: trees are analyzed before running, so broken
    conditions and empty branches surface as reports, not mid-run
    surprises.
  - Extensible vocabulary: action types live in a registry; hosts add
    their own leaves and composites without forking the codec.

# Usage

Initialize the engine with a flow library and run a flow by name. The
default library reads Markdown documents with YAML frontmatter from a
directory (via Loam); WithLibrary injects any other source.

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/espalier"
	)

	func main() {
		// Reads flow documents from ./flows
		eng, err := espalier.New("./flows")
		if err != nil {
			log.Fatal(err)
		}

		runner := espalier.NewRunner(os.Stdout)
		res, err := runner.Run(context.Background(), eng, "nightly-sync")
		if err != nil {
			log.Fatal(err)
		}

		if res.Outcome.Paused() {
			log.Printf("interrupted; resume later with ID %s", res.RunID)
		}
	}

Pair the engine with a run store (see pkg/adapters/redis or
pkg/adapters/memory) to resume interrupted runs:

	eng, err := espalier.New("./flows", espalier.WithStore(store))
	// ...
	res, err = eng.Resume(ctx, runID)
*/
package espalier
