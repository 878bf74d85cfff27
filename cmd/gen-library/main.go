package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/loam"

	adapter "github.com/aretw0/espalier/pkg/adapters/loam"
)

func main() {
	targetDir := "examples/starter"
	if len(os.Args) > 1 {
		targetDir = os.Args[1]
	}

	// Ensure dir exists
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		panic(err)
	}

	fmt.Printf("Generating starter library in: %s\n", targetDir)

	// Init Loam (No Versioning = pure file generation)
	// This writes plain flow documents to disk.
	repo, err := loam.Init(targetDir, loam.WithVersioning(false))
	if err != nil {
		panic(err)
	}

	typedRepo := loam.NewTypedRepository[adapter.FlowMetadata](repo)
	ctx := context.TODO()

	// 1. Welcome (Clean)
	err = typedRepo.Save(ctx, &loam.DocumentModel[adapter.FlowMetadata]{
		ID: "welcome",
		Data: adapter.FlowMetadata{
			Name:        "welcome",
			Description: "A first flow: compose a value, branch on it, take a beat.",
			Env:         map[string]any{"audience": "world"},
		},
		Content: `- type: set_variable
  name: compose
  variable: message
  value: '"hello " + audience'
- type: if
  name: long greeting
  condition: len(message) > 5
  then:
    - type: delay
      name: beat
      duration: 100ms
`,
	})
	check(err)

	// 2. Checklist (With Trailing Newlines/Noise)
	// Injecting noise (trailing newlines and spaces) to verify the body
	// trim logic.
	err = typedRepo.Save(ctx, &loam.DocumentModel[adapter.FlowMetadata]{
		ID: "checklist",
		Data: adapter.FlowMetadata{
			Name:        "checklist",
			Description: "Counted repetition with a for loop.",
		},
		Content: `- type: for
  name: three times
  init:
    type: set_variable
    variable: i
    value: "0"
  condition: i < 3
  increment:
    type: set_variable
    variable: i
    value: i + 1
  body:
    - type: delay
      name: tick
      duration: 10ms
` + "\n\n\n   ",
	})
	check(err)

	// 3. Deploy (Environment Contract)
	err = typedRepo.Save(ctx, &loam.DocumentModel[adapter.FlowMetadata]{
		ID: "deploy",
		Data: adapter.FlowMetadata{
			Name:        "deploy",
			Description: "Declares required and typed environment keys the host must inject.",
			Requires:    []string{"target", "replicas"},
			EnvTypes:    map[string]any{"replicas": "int"},
		},
		Content: `- type: set_variable
  name: plan
  variable: plan
  value: 'target + " x " + string(replicas)'
- type: wait_until
  name: capacity
  condition: replicas > 0
  interval: 50ms
  timeout: 1s
`,
	})
	check(err)

	fmt.Println("Done. Verify contents in", targetDir)
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
