package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/getdrafty/drafty-go-sdk/core"
	"github.com/getdrafty/drafty-go-sdk/memory"
	"github.com/getdrafty/drafty-go-sdk/oracle"
	"github.com/getdrafty/drafty-go-sdk/orchestrator"
	"github.com/getdrafty/drafty-go-sdk/server"
)

type fakeStore struct {
	records map[string]interface{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]interface{})}
}

func (s *fakeStore) Put(ctx context.Context, ns memory.Namespace, key string, value interface{}) error {
	s.records[ns.String()+"|"+key] = value
	return nil
}

func (s *fakeStore) Get(ctx context.Context, ns memory.Namespace, key string) (interface{}, error) {
	value, ok := s.records[ns.String()+"|"+key]
	if !ok {
		return nil, memory.ErrNotFound
	}
	return value, nil
}

func (s *fakeStore) Search(ctx context.Context, ns memory.Namespace, query string, limit int) ([]memory.Record, error) {
	return nil, nil
}

func (s *fakeStore) Close() error { return nil }

type fakeOracle struct {
	label core.Classification
}

func (o *fakeOracle) Classify(ctx context.Context, prompt string) (*oracle.ClassifyResult, error) {
	return &oracle.ClassifyResult{Label: o.label, Rationale: "scripted"}, nil
}

func (o *fakeOracle) Converse(ctx context.Context, systemPrompt string, history []core.Message, tools []oracle.ToolSpec) (*oracle.Turn, error) {
	return &oracle.Turn{Reply: "done"}, nil
}

func (o *fakeOracle) Optimize(ctx context.Context, prompts map[string]string, trajectories []oracle.Trajectory) (map[string]string, error) {
	return nil, errors.New("not implemented")
}

type noopExecutor struct{}

func (e *noopExecutor) Execute(ctx context.Context, req *core.ExecuteRequest) (*core.ToolResult, error) {
	return &core.ToolResult{Success: true, Data: "ok"}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	orch := orchestrator.New(store, &fakeOracle{label: core.ClassifyIgnore}, &noopExecutor{})
	srv := server.New(orch, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, frame *server.Frame) *server.Response {
	t.Helper()
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	var response server.Response
	if err := conn.ReadJSON(&response); err != nil {
		t.Fatalf("read response: %v", err)
	}
	return &response
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q", body["status"])
	}
}

func TestEmailFrame(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	response := roundTrip(t, conn, &server.Frame{
		Type:   "email",
		UserID: "user1",
		Email: &core.Email{
			From:    "deals@mart.example",
			Subject: "SALE",
			Body:    "buy now",
		},
	})

	if response.Type != "result" {
		t.Fatalf("Type = %q, error = %q", response.Type, response.Error)
	}
	if response.Classification != "ignore" {
		t.Errorf("Classification = %q", response.Classification)
	}
	if response.RunID == "" {
		t.Error("missing run ID")
	}
}

func TestExampleFrame(t *testing.T) {
	ts, store := newTestServer(t)
	conn := dial(t, ts)

	response := roundTrip(t, conn, &server.Frame{
		Type:   "example",
		UserID: "user1",
		Email:  &core.Email{From: "jim@corp.example", Subject: "Sync", Body: "Thursday?"},
		Label:  "respond",
	})

	if response.Type != "example_stored" {
		t.Fatalf("Type = %q, error = %q", response.Type, response.Error)
	}
	if response.Key == "" {
		t.Fatal("missing example key")
	}
	wantKey := memory.ExamplesNamespace("user1").String() + "|" + response.Key
	if _, ok := store.records[wantKey]; !ok {
		t.Errorf("example not stored; records = %v", store.records)
	}
}

func TestExampleFrame_InvalidLabel(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	response := roundTrip(t, conn, &server.Frame{
		Type:   "example",
		UserID: "user1",
		Email:  &core.Email{From: "a@x"},
		Label:  "archive",
	})
	if response.Type != "error" {
		t.Fatalf("Type = %q, want error", response.Type)
	}
}

func TestFeedbackFrame(t *testing.T) {
	ts, store := newTestServer(t)
	conn := dial(t, ts)

	response := roundTrip(t, conn, &server.Frame{
		Type:     "feedback",
		UserID:   "user1",
		Feedback: "never reply before checking the calendar",
	})
	if response.Type != "prompts_updated" {
		t.Fatalf("Type = %q, error = %q", response.Type, response.Error)
	}

	promptsNS := memory.PromptsNamespace("user1").String()
	stored := 0
	for key := range store.records {
		if strings.HasPrefix(key, promptsNS+"|") {
			stored++
		}
	}
	if stored != 2 {
		t.Errorf("stored %d prompts, want 2", stored)
	}
}

func TestUnknownFrameType(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	response := roundTrip(t, conn, &server.Frame{Type: "bogus", UserID: "user1"})
	if response.Type != "error" {
		t.Fatalf("Type = %q, want error", response.Type)
	}

	// The session survives a bad frame.
	response = roundTrip(t, conn, &server.Frame{
		Type:   "email",
		UserID: "user1",
		Email:  &core.Email{From: "a@x", Subject: "s", Body: "b"},
	})
	if response.Type != "result" {
		t.Errorf("session closed after bad frame: %q", response.Type)
	}
}

func TestMissingUserID(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	response := roundTrip(t, conn, &server.Frame{Type: "email"})
	if response.Type != "error" {
		t.Fatalf("Type = %q, want error", response.Type)
	}
}
