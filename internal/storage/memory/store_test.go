package memory

import (
	"context"
	"testing"

	"github.com/sgpatel/ai-chat-api-assistant/internal/flow"
)

func TestMemoryStore_SaveAndLoad(t *testing.T) {
	store := New()

	st := flow.NewState("user-1")
	st.SetTarget("/tasks", "POST", []string{"title"})
	st.Collect("title", "Buy milk")

	if err := store.Save(context.Background(), st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("Load() = nil, want stored state")
	}
	if loaded.CollectedParameters["title"] != "Buy milk" {
		t.Errorf("CollectedParameters[title] = %v, want %q", loaded.CollectedParameters["title"], "Buy milk")
	}
}

func TestMemoryStore_LoadMissing(t *testing.T) {
	store := New()

	loaded, err := store.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != nil {
		t.Errorf("Load() = %+v, want nil for absent user", loaded)
	}
}

func TestMemoryStore_LoadIsolatesCallers(t *testing.T) {
	store := New()

	st := flow.NewState("user-1")
	st.SetTarget("/tasks", "POST", []string{"title"})
	if err := store.Save(context.Background(), st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	first, err := store.Load(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	first.Collect("title", "mutated")

	second, err := store.Load(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := second.CollectedParameters["title"]; ok {
		t.Error("mutating a loaded state leaked into the store")
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := New()

	st := flow.NewState("user-1")
	if err := store.Save(context.Background(), st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := store.Delete(context.Background(), "user-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	loaded, err := store.Load(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Load() after delete error = %v", err)
	}
	if loaded != nil {
		t.Errorf("Load() after delete = %+v, want nil", loaded)
	}

	if err := store.Delete(context.Background(), "user-1"); err != nil {
		t.Errorf("Delete() on absent state error = %v", err)
	}
}
