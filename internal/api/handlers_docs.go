package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ingestd/internal/store"
)

// handleGetBatch returns one stored batch of chunks by results ID and index.
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	resultsID := chi.URLParam(r, "resultsID")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		jsonError(w, "index must be a non-negative integer", http.StatusBadRequest)
		return
	}

	batch, err := s.orchestrator.Store().GetBatch(resultsID, index)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "batch not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to read batch: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"results_id": resultsID,
		"index":      index,
		"chunks":     batch,
	})
}

// handleListDocuments lists document IDs stored under a namespace.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	namespaceID := chi.URLParam(r, "namespaceID")

	docs, err := s.orchestrator.Store().ListDocuments(namespaceID)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"namespace_id": namespaceID,
		"documents":    docs,
	})
}

// handleGetDocument returns the flattened chunk payload for a document.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	namespaceID := chi.URLParam(r, "namespaceID")
	documentID := chi.URLParam(r, "documentID")

	doc, err := s.orchestrator.Store().GetChunkDocument(namespaceID, documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to read document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// handleDeleteDocument removes a stored chunk document.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	namespaceID := chi.URLParam(r, "namespaceID")
	documentID := chi.URLParam(r, "documentID")

	if err := s.orchestrator.Store().DeleteDocument(namespaceID, documentID); err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"namespace_id": namespaceID,
		"document_id":  documentID,
		"deleted":      true,
	})
}
