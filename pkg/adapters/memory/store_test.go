package memory_test

import (
	"testing"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/ports"
	porttests "github.com/aretw0/espalier/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStoreContract(t, store)
}

func TestMemoryLibrary_Contract(t *testing.T) {
	lib := memory.NewLibrary()
	data := map[string][]byte{
		"hello-world": []byte("name: hello-world\nactions: []\n"),
		"pause-demo":  []byte("name: pause-demo\nactions: []\n"),
	}
	for name, doc := range data {
		lib.AddFlow(name, doc)
	}
	porttests.FlowLibraryContractTest(t, lib, data)
}

func TestLibraryCopiesDocuments(t *testing.T) {
	lib := memory.NewLibrary()
	doc := []byte("name: original\n")
	lib.AddFlow("flow", doc)

	doc[6] = 'X'

	got, err := lib.GetFlow("flow")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "name: original\n" {
		t.Errorf("stored document was mutated through the caller's slice: %q", got)
	}
}
