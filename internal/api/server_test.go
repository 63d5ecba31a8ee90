package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ingestd/internal/config"
	"ingestd/internal/pipeline"
	"ingestd/internal/store"
)

const testAPIKey = "test-key"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open("", true)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Config{
		Port:             "0",
		APIKey:           testAPIKey,
		WorkerCount:      2,
		MaxUploadBytes:   1 << 20,
		DefaultChunkSize: 2048,
		DefaultBatchSize: 5,
		JobTTL:           time.Hour,
	}
	orch, err := pipeline.NewOrchestrator(cfg, st, nil, slog.Default())
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	t.Cleanup(orch.Stop)

	return NewServer(orch, slog.Default(), cfg)
}

func multipartBody(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func doRequest(srv *Server, method, path, contentType string, body *bytes.Buffer, authed bool) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealth_NoAuthRequired(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, http.MethodGet, "/health", "", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestIngest_RequiresAuth(t *testing.T) {
	srv := newTestServer(t)
	body, ct := multipartBody(t, map[string]string{"namespace_id": "ns"}, "a.md", "# hi")
	rec := doRequest(srv, http.MethodPost, "/api/ingest", ct, body, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_JSONErrorBodies(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/namespaces/ns/documents", "", nil, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("auth failures must return JSON bodies: %v (%s)", err, rec.Body.String())
	}
	if body["error"] != "missing authorization" {
		t.Errorf("unexpected error body: %v", body)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/namespaces/ns/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	wrong := httptest.NewRecorder()
	srv.ServeHTTP(wrong, req)
	if wrong.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", wrong.Code)
	}
	body = nil
	if err := json.Unmarshal(wrong.Body.Bytes(), &body); err != nil {
		t.Fatalf("auth failures must return JSON bodies: %v", err)
	}
	if body["error"] != "invalid api key" {
		t.Errorf("unexpected error body: %v", body)
	}
}

func TestIngest_RequiresNamespace(t *testing.T) {
	srv := newTestServer(t)
	body, ct := multipartBody(t, nil, "a.md", "# hi")
	rec := doRequest(srv, http.MethodPost, "/api/ingest", ct, body, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestIngest_UnsupportedFileType(t *testing.T) {
	srv := newTestServer(t)
	body, ct := multipartBody(t, map[string]string{"namespace_id": "ns"}, "a.zip", "junk")
	rec := doRequest(srv, http.MethodPost, "/api/ingest", ct, body, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestIngest_InvalidLanguage(t *testing.T) {
	srv := newTestServer(t)
	body, ct := multipartBody(t, map[string]string{
		"namespace_id":  "ns",
		"language_code": "tlh",
	}, "a.md", "# hi")
	rec := doRequest(srv, http.MethodPost, "/api/ingest", ct, body, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestIngest_FileToCompletion(t *testing.T) {
	srv := newTestServer(t)

	body, ct := multipartBody(t, map[string]string{
		"namespace_id": "ns",
		"document_id":  "doc-1",
	}, "notes.md", "# Title\n\nSome prose worth keeping around.\n")
	rec := doRequest(srv, http.MethodPost, "/api/ingest", ct, body, true)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var accepted struct {
		JobID      string `json:"job_id"`
		DocumentID string `json:"document_id"`
		PollURL    string `json:"poll_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if accepted.JobID == "" || accepted.DocumentID != "doc-1" {
		t.Fatalf("unexpected accept payload: %+v", accepted)
	}

	// Poll until the job finishes.
	var status struct {
		Status string             `json:"status"`
		Result pipeline.JobResult `json:"result"`
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec := doRequest(srv, http.MethodGet, accepted.PollURL, "", nil, true)
		if rec.Code != http.StatusOK {
			t.Fatalf("status request failed: %d", rec.Code)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		if status.Status == "completed" || status.Status == "failed" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, last status %q", status.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status.Status != "completed" {
		t.Fatalf("expected completed, got %q", status.Status)
	}
	if status.Result.TotalChunks != 1 || status.Result.ResultsID == "" {
		t.Fatalf("unexpected result: %+v", status.Result)
	}

	// The stored batch is retrievable through the API.
	batchPath := fmt.Sprintf("/api/batches/%s/0", status.Result.ResultsID)
	rec = doRequest(srv, http.MethodGet, batchPath, "", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for batch, got %d: %s", rec.Code, rec.Body.String())
	}

	// So is the flattened document.
	rec = doRequest(srv, http.MethodGet, "/api/namespaces/ns/documents/doc-1", "", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for document, got %d: %s", rec.Code, rec.Body.String())
	}
	var doc store.ChunkDocument
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.TotalChunks != 1 {
		t.Errorf("expected 1 chunk in document, got %d", doc.TotalChunks)
	}

	// Listing shows the document, deleting removes it.
	rec = doRequest(srv, http.MethodGet, "/api/namespaces/ns/documents", "", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for list, got %d", rec.Code)
	}
	var list struct {
		Documents []string `json:"documents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Documents) != 1 || list.Documents[0] != "doc-1" {
		t.Fatalf("unexpected document list: %v", list.Documents)
	}

	rec = doRequest(srv, http.MethodDelete, "/api/namespaces/ns/documents/doc-1", "", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for delete, got %d", rec.Code)
	}
	rec = doRequest(srv, http.MethodGet, "/api/namespaces/ns/documents/doc-1", "", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestIngest_InlineText(t *testing.T) {
	srv := newTestServer(t)

	body, ct := multipartBody(t, map[string]string{
		"namespace_id": "ns",
		"text":         "Just a short inline note.",
	}, "", "")
	rec := doRequest(srv, http.MethodPost, "/api/ingest", ct, body, true)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetBatch_Missing(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, http.MethodGet, "/api/batches/nope/0", "", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"report.pdf":       "report.pdf",
		"../../etc/passwd": "passwd",
		"dir/inner/doc.md": "doc.md",
		"we..ird.md":       "we_ird.md",
		"":                 "unnamed",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
