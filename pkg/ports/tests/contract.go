package tests

import (
	"testing"

	"github.com/aretw0/espalier/pkg/ports"
)

// FlowLibraryContractTest is a reusable test suite that verifies if an
// adapter complies with ports.FlowLibrary.
func FlowLibraryContractTest(t *testing.T, lib ports.FlowLibrary, setupData map[string][]byte) {
	t.Helper()

	// 1. Test GetFlow (Success)
	t.Run("GetFlow_Success", func(t *testing.T) {
		for name, expectedContent := range setupData {
			content, err := lib.GetFlow(name)
			if err != nil {
				t.Fatalf("unexpected error getting flow %s: %v", name, err)
			}
			if string(content) != string(expectedContent) {
				t.Errorf("content mismatch for %s. got %q, want %q", name, content, expectedContent)
			}
		}
	})

	// 2. Test GetFlow (NotFound)
	t.Run("GetFlow_NotFound", func(t *testing.T) {
		_, err := lib.GetFlow("non-existent-flow")
		if err == nil {
			t.Error("expected error for non-existent flow, got nil")
		}
	})

	// 3. Test ListFlows
	t.Run("ListFlows", func(t *testing.T) {
		flows, err := lib.ListFlows()
		if err != nil {
			t.Fatalf("unexpected error listing flows: %v", err)
		}

		if len(flows) != len(setupData) {
			t.Errorf("expected %d flows, got %d", len(setupData), len(flows))
		}

		// Verify all expected names are present
		lookup := make(map[string]bool)
		for _, name := range flows {
			lookup[name] = true
		}

		for name := range setupData {
			if !lookup[name] {
				t.Errorf("flow %s missing from list", name)
			}
		}
	})
}
