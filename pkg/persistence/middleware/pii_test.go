package middleware_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	// Mask keys containing "password" or "ssn"
	mw := middleware.NewPIIMiddleware([]string{"password", "ssn"})
	secureStore := mw(underlying)

	ctx := context.Background()
	snap := &domain.RunSnapshot{
		ID:      "run-pii",
		Flow:    "onboarding",
		Status:  domain.StatusPaused,
		Cursor:  []string{"1"},
		SavedAt: time.Now().UTC(),
		Env: map[string]any{
			"username":      "jdoe",
			"user_password": "secret123",
			"details": map[string]any{
				"address":    "123 St",
				"ssn_number": "999-99-9999",
			},
			"safe_data": "public",
		},
	}

	// 1. Save
	if err := secureStore.Save(ctx, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The in-memory snapshot the engine keeps working with is untouched
	if snap.Env["user_password"] != "secret123" {
		t.Error("Middleware modified the original snapshot in memory!")
	}
	nested := snap.Env["details"].(map[string]any)
	if nested["ssn_number"] != "999-99-9999" {
		t.Error("Middleware modified the original nested env in memory!")
	}

	// 2. Load from the underlying store (should be masked)
	stored, err := underlying.Load(ctx, "run-pii")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}

	if stored.Env["username"] != "jdoe" {
		t.Error("Username shouldn't be masked")
	}
	if stored.Env["user_password"] != "***" {
		t.Errorf("Password should be masked, got: %v", stored.Env["user_password"])
	}

	details := stored.Env["details"].(map[string]any)
	if details["ssn_number"] != "***" {
		t.Errorf("Nested SSN should be masked, got: %v", details["ssn_number"])
	}
	if details["address"] != "123 St" {
		t.Errorf("Unmatched nested keys should survive, got: %v", details["address"])
	}
	if stored.Cursor[0] != "1" {
		t.Errorf("Cursor should pass through untouched, got: %v", stored.Cursor)
	}
}

func TestMiddleware_Chain(t *testing.T) {
	underlying := memory.NewStore()
	encrypt := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	mask := middleware.NewPIIMiddleware([]string{"token"})

	// Masking runs first, so the ciphertext never contains the raw value.
	secureStore := mask(encrypt(underlying))

	ctx := context.Background()
	snap := pausedSnapshot("run-chain")
	snap.Env["api_token"] = "tk-123"

	if err := secureStore.Save(ctx, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stored, err := underlying.Load(ctx, "run-chain")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if _, ok := stored.Env["__encrypted__"]; !ok {
		t.Fatal("Expected the chained store to persist an envelope")
	}

	loaded, err := secureStore.Load(ctx, "run-chain")
	if err != nil {
		t.Fatalf("Load via chain failed: %v", err)
	}
	if loaded.Env["api_token"] != "***" {
		t.Errorf("Expected the persisted token to be masked, got: %v", loaded.Env["api_token"])
	}
	if loaded.Env["secret"] != "my-secret-sauce" {
		t.Errorf("Expected unmatched keys to decrypt intact, got: %v", loaded.Env["secret"])
	}
}
