package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/qualbot/qualbot/internal/category"
	"github.com/qualbot/qualbot/internal/chunker"
	"github.com/qualbot/qualbot/internal/config"
	"github.com/qualbot/qualbot/internal/db"
	"github.com/qualbot/qualbot/internal/engine"
	"github.com/qualbot/qualbot/internal/fallback"
	"github.com/qualbot/qualbot/internal/loader"
	"github.com/qualbot/qualbot/internal/session"
	"github.com/qualbot/qualbot/internal/vectordb"
)

// emptyStore always reports an empty index, so every answer resolves
// through the fallback table.
type emptyStore struct{}

func (emptyStore) Rebuild(context.Context, category.Category, []chunker.Passage) error { return nil }
func (emptyStore) Query(context.Context, category.Category, []float32, int) ([]vectordb.Result, error) {
	return nil, vectordb.ErrEmptyIndex
}
func (emptyStore) Count(category.Category) int { return 0 }
func (emptyStore) Load(context.Context) error  { return nil }

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}
func (stubEmbedder) Dimensions() int { return 1 }
func (stubEmbedder) Name() string    { return "stub" }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Categories = []string{"faq", "framework"}

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	matcher := fallback.NewMatcher(&fallback.Table{Categories: map[string]fallback.CategoryTable{
		"faq": {
			Default: "Please contact the agency.",
			Entries: []fallback.Entry{{Question: "What is MQF?", Answer: "The qualifications framework."}},
		},
	}}, 0.8)

	eng := engine.New(cfg, cfg.Registry(), loader.New(nil, nil), emptyStore{},
		stubEmbedder{}, nil, matcher, session.NewManager(database, 50))

	return New(Config{Port: 0}, eng)
}

func postJSON(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleAsk_AnswersWithFallback(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv, "/api/ask", askRequest{Category: "faq", Message: "what is mqf"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp askResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Answer != "The qualifications framework." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.Source != string(session.SourceFallbackMatched) {
		t.Errorf("source = %q", resp.Source)
	}
	if resp.SessionID == "" {
		t.Error("server should mint a session id when none is given")
	}
}

func TestHandleAsk_KeepsClientSessionID(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv, "/api/ask", askRequest{
		SessionID: "client-session", Category: "faq", Message: "anything at all",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp askResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID != "client-session" {
		t.Errorf("session id = %q", resp.SessionID)
	}
}

func TestHandleAsk_InvalidInput(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv, "/api/ask", askRequest{Category: "astrology", Message: "hi"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown category: status = %d, want 400", rec.Code)
	}

	rec = postJSON(t, srv, "/api/ask", askRequest{Category: "faq", Message: "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank message: status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader([]byte("{not json")))
	rec2 := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec2.Code)
	}
}

func TestHandleCategories(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Categories []string `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Categories) != 2 || resp.Categories[0] != "faq" {
		t.Errorf("categories = %v", resp.Categories)
	}
}

func TestHandleHistory(t *testing.T) {
	srv := newTestServer(t)

	// Unknown session returns an empty list, not null.
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/unknown/history", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		SessionID string         `json:"session_id"`
		Turns     []session.Turn `json:"turns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Turns == nil || len(resp.Turns) != 0 {
		t.Errorf("turns = %v, want empty list", resp.Turns)
	}

	// After asking, history shows the turn.
	postJSON(t, srv, "/api/ask", askRequest{SessionID: "h1", Category: "faq", Message: "what is mqf"})

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/h1/history", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Turns) != 1 || resp.Turns[0].Query != "what is mqf" {
		t.Errorf("turns = %+v", resp.Turns)
	}
}

func TestHandleIngest_ValidatesInput(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv, "/api/ingest", ingestRequest{Category: "faq"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing source: status = %d, want 400", rec.Code)
	}

	rec = postJSON(t, srv, "/api/ingest", ingestRequest{Category: "astrology", Source: t.TempDir()})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown category: status = %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
