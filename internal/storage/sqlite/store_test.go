package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sgpatel/ai-chat-api-assistant/internal/flow"
)

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	// Use in-memory SQLite with shared cache for testing
	store, err := New("file:memdb1?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer store.Close()

	st := flow.NewState("user-1")
	st.SetTarget("/tasks", "POST", []string{"title", "due_date"})
	st.Collect("title", "Buy milk")
	st.LastAssistantMessage = "Please provide the due date:"

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

	if loaded.TargetPath != "/tasks" || loaded.TargetMethod != "POST" {
		t.Errorf("target = %s %s, want POST /tasks", loaded.TargetMethod, loaded.TargetPath)
	}
	if !reflect.DeepEqual(loaded.RequiredParameters, []string{"title", "due_date"}) {
		t.Errorf("RequiredParameters = %v, want [title due_date]", loaded.RequiredParameters)
	}
	if loaded.CollectedParameters["title"] != "Buy milk" {
		t.Errorf("CollectedParameters[title] = %v, want %q", loaded.CollectedParameters["title"], "Buy milk")
	}
	if loaded.NextParameterName != "due_date" {
		t.Errorf("NextParameterName = %q, want %q", loaded.NextParameterName, "due_date")
	}
	if loaded.LastAssistantMessage != st.LastAssistantMessage {
		t.Errorf("LastAssistantMessage = %q, want %q", loaded.LastAssistantMessage, st.LastAssistantMessage)
	}
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	store, err := New("file:memdb2?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer store.Close()

	st := flow.NewState("user-1")
	st.SetTarget("/tasks", "POST", []string{"title"})
	if err := store.Save(context.Background(), st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	st.Collect("title", "Buy milk")
	if err := store.Save(context.Background(), st); err != nil {
		t.Fatalf("Save() second write error = %v", err)
	}

	loaded, err := store.Load(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.CollectedParameters["title"] != "Buy milk" {
		t.Errorf("CollectedParameters[title] = %v, want updated value", loaded.CollectedParameters["title"])
	}
}

func TestSQLiteStore_LoadMissing(t *testing.T) {
	store, err := New("file:memdb3?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer store.Close()

	loaded, err := store.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != nil {
		t.Errorf("Load() = %+v, want nil for absent user", loaded)
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	store, err := New("file:memdb4?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer store.Close()

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

	// Deleting again is a no-op, not an error.
	if err := store.Delete(context.Background(), "user-1"); err != nil {
		t.Errorf("Delete() on absent state error = %v", err)
	}
}

func TestSQLiteStore_SaveRejectsAnonymousState(t *testing.T) {
	store, err := New("file:memdb5?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer store.Close()

	if err := store.Save(context.Background(), &flow.State{}); err == nil {
		t.Error("Save() with empty UserID succeeded, want error")
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "states.db")

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	st := flow.NewState("user-1")
	st.SetTarget("/tasks/{id}", "GET", []string{"id"})
	if err := store.Save(context.Background(), st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.Load(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Load() after reopen error = %v", err)
	}
	if loaded == nil || loaded.TargetPath != "/tasks/{id}" {
		t.Errorf("Load() after reopen = %+v, want stored target", loaded)
	}
}
