package credential

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	sqlStore, err := OpenSQLStore(filepath.Join(t.TempDir(), "sketcher.db"))
	if err != nil {
		t.Fatalf("Failed to open sql store: %v", err)
	}
	t.Cleanup(func() { _ = sqlStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sql":    sqlStore,
	}
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := store.Get(ctx); err != nil || ok {
				t.Fatalf("Expected absent credential, got ok=%v err=%v", ok, err)
			}

			var notified []bool
			store.Subscribe(func(present bool) { notified = append(notified, present) })

			if err := store.Set(ctx, "  secret-token \n"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			token, ok, err := store.Get(ctx)
			if err != nil || !ok || token != "secret-token" {
				t.Errorf("Expected trimmed token, got %q ok=%v err=%v", token, ok, err)
			}

			if err := store.Set(ctx, "rotated"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if token, _, _ := store.Get(ctx); token != "rotated" {
				t.Errorf("Expected rotated token, got %q", token)
			}

			if err := store.Clear(ctx); err != nil {
				t.Fatalf("Clear failed: %v", err)
			}
			if _, ok, _ := store.Get(ctx); ok {
				t.Error("Expected credential to be absent after Clear")
			}

			want := []bool{true, true, false}
			if len(notified) != len(want) {
				t.Fatalf("Expected %d notifications, got %v", len(want), notified)
			}
			for i := range want {
				if notified[i] != want[i] {
					t.Errorf("Notification %d: expected %v, got %v", i, want[i], notified[i])
				}
			}
		})
	}
}

func TestSetRejectsBlankToken(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			called := false
			store.Subscribe(func(bool) { called = true })

			for _, input := range []string{"", "   ", "\t\n"} {
				if err := store.Set(ctx, input); !errors.Is(err, ErrInvalidCredential) {
					t.Errorf("Expected ErrInvalidCredential for %q, got %v", input, err)
				}
			}
			if called {
				t.Error("Subscribers must not be notified on rejected input")
			}
			if _, ok, _ := store.Get(ctx); ok {
				t.Error("Rejected input must not be persisted")
			}
		})
	}
}

func TestUnsubscribe(t *testing.T) {
	store := NewMemoryStore()
	calls := 0
	unsubscribe := store.Subscribe(func(bool) { calls++ })

	_ = store.Set(context.Background(), "a")
	unsubscribe()
	_ = store.Set(context.Background(), "b")

	if calls != 1 {
		t.Errorf("Expected 1 notification before unsubscribe, got %d", calls)
	}
}

func TestSQLStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sketcher.db")

	first, err := OpenSQLStore(path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if err := first.Set(ctx, "persisted"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	_ = first.Close()

	second, err := OpenSQLStore(path)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer second.Close()

	token, ok, err := second.Get(ctx)
	if err != nil || !ok || token != "persisted" {
		t.Errorf("Expected persisted token, got %q ok=%v err=%v", token, ok, err)
	}
}
