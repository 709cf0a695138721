package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sgpatel/ai-chat-api-assistant/internal/apiclient"
	"github.com/sgpatel/ai-chat-api-assistant/internal/flow"
	"github.com/sgpatel/ai-chat-api-assistant/internal/openapi"
	"github.com/sgpatel/ai-chat-api-assistant/internal/storage/memory"
)

const taskDoc = `
openapi: 3.0.3
info:
  title: Task API
  version: 1.0.0
paths:
  /tasks:
    post:
      operationId: createTask
      summary: Create a task
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [title, due_date]
              properties:
                title:
                  type: string
                due_date:
                  type: string
                  format: date
      responses:
        "201":
          description: Created
    get:
      operationId: listTasks
      summary: List tasks
      responses:
        "200":
          description: OK
`

type stubCaller struct {
	res   *apiclient.Result
	err   error
	calls []map[string]any
}

func (c *stubCaller) Call(_ context.Context, _, _ string, params map[string]any) (*apiclient.Result, error) {
	c.calls = append(c.calls, params)
	if c.err != nil {
		return nil, c.err
	}
	return c.res, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, caller *stubCaller) (*Server, *memory.Store) {
	t.Helper()
	doc, err := openapi.Parse([]byte(taskDoc), "tasks.yaml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	logger := testLogger()
	catalog := openapi.NewCatalog(doc, logger)
	engine := flow.NewEngine(catalog, caller, logger)
	store := memory.New()
	return New(":0", catalog, engine, store, logger), store
}

func postJSON(t *testing.T, srv *Server, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)
	return rec
}

func decodePayload(t *testing.T, rec *httptest.ResponseRecorder) flow.Payload {
	t.Helper()
	var p flow.Payload
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decoding payload: %v (body %s)", err, rec.Body.String())
	}
	return p
}

func TestChatMessageFullConversation(t *testing.T) {
	caller := &stubCaller{res: &apiclient.Result{
		StatusCode: 201,
		Body:       map[string]any{"message": "Task created"},
		RawBody:    []byte(`{"message":"Task created"}`),
	}}
	srv, store := newTestServer(t, caller)

	rec := postJSON(t, srv, "/api/v1/chat/message",
		`{"user_id":"u1","message_type":"intent","intent_text":"create a task","target_path":"/tasks","target_method":"POST"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("intent status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	p := decodePayload(t, rec)
	if p.Type != flow.PayloadUIInstruction || !strings.Contains(p.Prompt, "title") {
		t.Fatalf("intent payload = %+v, want title prompt", p)
	}

	rec = postJSON(t, srv, "/api/v1/chat/message",
		`{"user_id":"u1","message_type":"parameter_response","parameter_name":"title","parameter_value":"Buy milk"}`)
	p = decodePayload(t, rec)
	if p.Type != flow.PayloadUIInstruction || !strings.Contains(p.Prompt, "due date") {
		t.Fatalf("first answer payload = %+v, want due date prompt", p)
	}

	rec = postJSON(t, srv, "/api/v1/chat/message",
		`{"user_id":"u1","message_type":"parameter_response","parameter_name":"due_date","parameter_value":"2024-05-01"}`)
	p = decodePayload(t, rec)
	if p.Type != flow.PayloadFinalMessage {
		t.Fatalf("closing payload = %+v, want final_message", p)
	}

	if len(caller.calls) != 1 {
		t.Fatalf("outbound calls = %d, want 1", len(caller.calls))
	}
	if caller.calls[0]["title"] != "Buy milk" || caller.calls[0]["due_date"] != "2024-05-01" {
		t.Errorf("call params = %v, want collected values", caller.calls[0])
	}

	// State survives the conversation.
	st, err := store.Load(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st == nil || st.NextParameterName != "" {
		t.Errorf("stored state = %+v, want completed conversation", st)
	}
}

func TestChatMessageValidation(t *testing.T) {
	srv, _ := newTestServer(t, &stubCaller{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"user_id": `},
		{"missing user id", `{"message_type":"intent","target_path":"/tasks","target_method":"POST"}`},
		{"blank user id", `{"user_id":"  ","message_type":"intent"}`},
		{"unknown message type", `{"user_id":"u1","message_type":"smalltalk"}`},
		{"parameter response without name", `{"user_id":"u1","message_type":"parameter_response","parameter_value":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, srv, "/api/v1/chat/message", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			p := decodePayload(t, rec)
			if p.Type != flow.PayloadErrorMessage || p.Text == "" {
				t.Errorf("payload = %+v, want error_message with text", p)
			}
		})
	}
}

func TestChatMessageFailedTurnPersistsState(t *testing.T) {
	srv, store := newTestServer(t, &stubCaller{})

	rec := postJSON(t, srv, "/api/v1/chat/message",
		`{"user_id":"u1","message_type":"intent","intent_text":"?","target_path":"/missing","target_method":"GET"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for an in-conversation failure", rec.Code)
	}
	p := decodePayload(t, rec)
	if p.Type != flow.PayloadErrorMessage {
		t.Fatalf("payload = %+v, want error_message", p)
	}

	st, err := store.Load(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st == nil {
		t.Fatal("state not persisted after failed turn")
	}
	if st.ErrorMessage == "" {
		t.Error("ErrorMessage not recorded on persisted state")
	}
}

func TestListOperations(t *testing.T) {
	srv, _ := newTestServer(t, &stubCaller{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/operations", nil)
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var ops []openapi.OperationRef
	if err := json.Unmarshal(rec.Body.Bytes(), &ops); err != nil {
		t.Fatalf("decoding operations: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("operations = %d, want 2", len(ops))
	}
	if ops[0].ID != "listTasks" || ops[1].ID != "createTask" {
		t.Errorf("operation ids = [%s %s], want [listTasks createTask]", ops[0].ID, ops[1].ID)
	}
}

func TestOperationDetail(t *testing.T) {
	srv, _ := newTestServer(t, &stubCaller{})

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/operations/detail?path=/tasks&method=post", nil)
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var info openapi.EndpointInfo
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("decoding detail: %v", err)
		}
		if info.OperationID != "createTask" || len(info.Parameters) != 2 {
			t.Errorf("detail = %+v, want createTask with 2 parameters", info)
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/operations/detail?path=/missing&method=GET", nil)
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("missing query params", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/operations/detail?path=/tasks", nil)
		rec := httptest.NewRecorder()
		srv.Router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestResetState(t *testing.T) {
	srv, store := newTestServer(t, &stubCaller{})

	st := flow.NewState("u1")
	st.SetTarget("/tasks", "POST", []string{"title"})
	if err := store.Save(context.Background(), st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/chat/state/u1", nil)
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	loaded, err := store.Load(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != nil {
		t.Errorf("state still present after reset: %+v", loaded)
	}

	// Resetting an absent state is still a 204.
	rec = httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/chat/state/u1", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("repeat reset status = %d, want 204", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubCaller{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s, want status ok", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing from response")
	}
}
