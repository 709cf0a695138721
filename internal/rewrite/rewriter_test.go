package rewrite

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sgpatel/ai-chat-api-assistant/internal/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRewrite_Replay(t *testing.T) {
	rec := testutil.NewVCRRecorder(t, "rewrite_title_prompt")

	rw := New("https://llm.example.com/v1", "test-key",
		WithHTTPClient(testutil.VCRHTTPClient(rec)),
		WithLogger(testLogger()))

	got, err := rw.Rewrite(context.Background(), "Please provide the title:", "title")
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if got != "What would you like to call this task?" {
		t.Errorf("Rewrite() = %q, want recorded completion", got)
	}
}

func TestRewrite_RequestShape(t *testing.T) {
	var captured struct {
		auth string
		body chatCompletionRequest
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured.body); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"When is it due?"}}]}`)
	}))
	defer srv.Close()

	rw := New(srv.URL, "secret", WithModel("gpt-4o"), WithLogger(testLogger()))

	got, err := rw.Rewrite(context.Background(), "Please provide the due date:", "due_date")
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if got != "When is it due?" {
		t.Errorf("Rewrite() = %q, want server completion", got)
	}
	if captured.auth != "Bearer secret" {
		t.Errorf("Authorization = %q, want bearer key", captured.auth)
	}
	if captured.body.Model != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", captured.body.Model)
	}
	if len(captured.body.Messages) != 2 || captured.body.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v, want system+user pair", captured.body.Messages)
	}
	if !strings.Contains(captured.body.Messages[1].Content, "due_date") {
		t.Errorf("user content = %q, want parameter name included", captured.body.Messages[1].Content)
	}
}

func TestRewrite_BudgetSkipsCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.WriteString(w, `{"choices":[{"message":{"content":"nope"}}]}`)
	}))
	defer srv.Close()

	rw := New(srv.URL, "", WithMaxPromptTokens(1), WithLogger(testLogger()))

	got, err := rw.Rewrite(context.Background(), "Please provide the title:", "title")
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if got != "Please provide the title:" {
		t.Errorf("Rewrite() = %q, want template kept", got)
	}
	if calls != 0 {
		t.Errorf("upstream called %d times, want 0", calls)
	}
}

func TestRewrite_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"overloaded"}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`},
		{"malformed body", http.StatusOK, `{"choices":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.payload)
			}))
			defer srv.Close()

			rw := New(srv.URL, "", WithLogger(testLogger()))
			if _, err := rw.Rewrite(context.Background(), "Please provide the title:", "title"); err == nil {
				t.Error("Rewrite() error = nil, want upstream failure surfaced")
			}
		})
	}
}
