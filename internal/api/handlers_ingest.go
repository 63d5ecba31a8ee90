package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ingestd/internal/chunker"
	"ingestd/internal/parser"
	"ingestd/internal/pipeline"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	namespaceID := r.FormValue("namespace_id")
	if namespaceID == "" {
		jsonError(w, "namespace_id is required", http.StatusBadRequest)
		return
	}

	// The payload is either an uploaded file or inline text.
	var (
		data     []byte
		filename string
	)
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()

		filename = sanitizeFilename(header.Filename)
		if !parser.IsSupportedExtension(filename) {
			jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
			return
		}
		data, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
		if err != nil {
			jsonError(w, "failed to read file", http.StatusInternalServerError)
			return
		}
	} else if text := r.FormValue("text"); text != "" {
		// Inline text is treated as markdown.
		data = []byte(text)
		filename = "inline.md"
	} else {
		jsonError(w, "file or text is required", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("payload exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	contentHash := pipeline.ContentHashHex(data)
	documentID := r.FormValue("document_id")
	if documentID == "" {
		documentID = contentHash[:16]
	}

	// Optional chunking overrides.
	chunkSize := s.cfg.DefaultChunkSize
	if v := r.FormValue("chunk_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			chunkSize = n
		}
	}
	batchSize := s.cfg.DefaultBatchSize
	if v := r.FormValue("batch_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			batchSize = n
		}
	}
	languageCode := r.FormValue("language_code")
	if languageCode != "" && !chunker.IsSupportedLanguage(languageCode) {
		jsonError(w, fmt.Sprintf("unsupported language code: %s", languageCode), http.StatusBadRequest)
		return
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:           pipeline.ContentHashHex([]byte(fmt.Sprintf("%s-%s-%d", namespaceID, filename, now.UnixNano())))[:20],
		NamespaceID:  namespaceID,
		DocumentID:   documentID,
		Status:       pipeline.StatusQueued,
		Phase:        "queued",
		Filename:     filename,
		ChunkSize:    chunkSize,
		LanguageCode: languageCode,
		BatchSize:    batchSize,
		ContentHash:  contentHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	job.SetFileData(data)

	if tokenID := r.FormValue("waitpoint_token_id"); tokenID != "" {
		job.SetWaitpoint(tokenID, r.FormValue("waitpoint_access_token"))
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":      job.ID,
		"document_id": job.DocumentID,
		"status":      job.Status,
		"poll_url":    fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":      snap.ID,
		"document_id": snap.DocumentID,
		"status":      snap.Status,
		"phase":       snap.Phase,
		"result":      snap.Result,
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
