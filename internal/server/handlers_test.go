package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/qsim/internal/config"
	"github.com/hyperjump/qsim/internal/dataset"
	"github.com/hyperjump/qsim/internal/embedding"
	"github.com/hyperjump/qsim/internal/models"
	"github.com/hyperjump/qsim/internal/scan"
	"github.com/hyperjump/qsim/internal/storage"
	"go.uber.org/zap"
)

type testEnv struct {
	srv   *Server
	store *storage.SQLiteStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"python_dataset/a.txt": "Topic: Errors\nQuestion: how to fix a syntax error\n",
		"python_dataset/b.txt": "Topic: Loops\nQuestion: what is a while loop\n",
		"sql_dataset/c.txt":    "Topic: Errors\nQuestion: how to fix a syntax error\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := &config.Config{
		Datasets:  config.DatasetsConfig{Root: root, Folders: []string{"python_dataset", "sql_dataset", "missing"}},
		Embedding: config.EmbeddingConfig{Provider: "mock", Dimensions: 32},
		Storage:   config.StorageConfig{CachePath: filepath.Join(root, "cache.db")},
	}
	config.ApplyDefaults(cfg)

	store, err := storage.NewSQLiteStorage(cfg.Storage.CachePath)
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	embedder := embedding.NewCachedEmbedder(embedding.NewMockEmbedder(32), 100, embedding.WithStore(store))
	scanner := dataset.NewScanner(&cfg.Datasets)
	engine, err := scan.NewEngine(scanner, embedder, cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return &testEnv{
		srv:   NewServer(engine, scanner, store, cfg, zap.NewNop()),
		store: store,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, r)
	return w
}

func TestHandleRank(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/rank", []byte(`{"query":"how to fix a syntax error","top_k":2}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", w.Code, w.Body.String())
	}
	var report models.Report
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if len(report.Items) != 2 || report.Items[0].ID != "a.txt" || report.Items[1].ID != "c.txt" {
		t.Errorf("items = %+v", report.Items)
	}
	if report.Processed != 3 {
		t.Errorf("processed = %d", report.Processed)
	}
	if report.TotalDuplicates() != 1 || len(report.Duplicates["sql_dataset"]) != 1 {
		t.Errorf("duplicates = %+v", report.Duplicates)
	}

	// Every question plus the query went through the persistent cache.
	n, err := env.store.CountEmbeddings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("cached embeddings = %d, want 2 distinct texts", n)
	}
}

func TestHandleRank_badRequest(t *testing.T) {
	env := newTestEnv(t)
	tests := map[string]string{
		"invalid json": `{"query":`,
		"empty query":  `{"query":"   "}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/rank", []byte(body))
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d", w.Code)
			}
			var out map[string]string
			if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
				t.Fatal(err)
			}
			if out["error"] == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestHandleRank_negativeTopKKeepsAll(t *testing.T) {
	env := newTestEnv(t)
	env.srv.config.Ranking.TopK = 1

	w := env.do(t, http.MethodPost, "/api/v1/rank", []byte(`{"query":"syntax error","top_k":-1}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", w.Code, w.Body.String())
	}
	var report models.Report
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if len(report.Items) != 3 {
		t.Errorf("got %d items, want all 3 (configured top_k is 1)", len(report.Items))
	}

	w = env.do(t, http.MethodPost, "/api/v1/rank", []byte(`{"query":"syntax error"}`))
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if len(report.Items) != 1 {
		t.Errorf("omitted top_k: got %d items, want configured 1", len(report.Items))
	}
}

// recordingRanker remembers the topK it was asked for.
type recordingRanker struct {
	topK int
}

func (r *recordingRanker) Run(_ context.Context, query string, topK int) (*models.Report, error) {
	r.topK = topK
	return &models.Report{Query: query, TopK: topK}, nil
}

func TestHandleRank_topKPassedToRanker(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	tests := map[string]int{
		`{"query":"x","top_k":-1}`:  models.AllResults,
		`{"query":"x","top_k":-50}`: models.AllResults,
		`{"query":"x","top_k":0}`:   cfg.Ranking.TopK,
		`{"query":"x","top_k":4}`:   4,
	}
	for body, want := range tests {
		t.Run(body, func(t *testing.T) {
			ranker := &recordingRanker{}
			srv := NewServer(ranker, dataset.NewScanner(&cfg.Datasets), nil, cfg, nil)
			w := httptest.NewRecorder()
			srv.handleRank(w, httptest.NewRequest(http.MethodPost, "/api/v1/rank", bytes.NewReader([]byte(body))))
			if w.Code != http.StatusOK {
				t.Fatalf("status: got %d", w.Code)
			}
			if ranker.topK != want {
				t.Errorf("ranker got topK=%d, want %d", ranker.topK, want)
			}
		})
	}
}

type failingRanker struct{}

func (failingRanker) Run(context.Context, string, int) (*models.Report, error) {
	return nil, errors.New("model unavailable")
}

func TestHandleRank_engineError(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	srv := NewServer(failingRanker{}, dataset.NewScanner(&cfg.Datasets), nil, cfg, nil)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/rank", bytes.NewReader([]byte(`{"query":"q"}`)))
	w := httptest.NewRecorder()
	srv.handleRank(w, r)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/rank", []byte(`{"query":"loop"}`))

	w := env.do(t, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Folders          []dataset.FolderStatus `json:"folders"`
		CachedEmbeddings int64                  `json:"cached_embeddings"`
		CachedByModel    map[string]int64       `json:"cached_by_model"`
		Config           map[string]any         `json:"config"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Folders) != 3 || out.Folders[0].Files != 2 || out.Folders[2].Exists {
		t.Errorf("folders = %+v", out.Folders)
	}
	if out.CachedEmbeddings != 3 {
		t.Errorf("cached_embeddings = %d, want 3", out.CachedEmbeddings)
	}
	if out.CachedByModel["mock-32"] != 3 {
		t.Errorf("cached_by_model = %v", out.CachedByModel)
	}
	if out.Config["dedup_key"] != "topic_question" {
		t.Errorf("config = %v", out.Config)
	}
}

func TestHandleStatus_noStore(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Datasets.Root = t.TempDir()
	srv := NewServer(failingRanker{}, dataset.NewScanner(&cfg.Datasets), nil, cfg, nil)
	w := httptest.NewRecorder()
	srv.handleStatus(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out map[string]any
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if _, ok := out["cached_embeddings"]; ok {
		t.Error("cached_embeddings reported without a store")
	}
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}
