package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health endpoints

// handleHealth reports service liveness plus AI provider reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}

	if s.provider != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		resp["provider"] = s.provider.HealthCheck(ctx)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleReady reports whether the storage and queue backends are reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	ready := true

	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			checks["database"] = err.Error()
			ready = false
		} else {
			checks["database"] = "ok"
		}
	}
	if s.queue != nil {
		if err := s.queue.Ping(r.Context()); err != nil {
			checks["queue"] = err.Error()
			ready = false
		} else {
			checks["queue"] = "ok"
		}
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": checks})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// handleDetailedHealth runs every dependency check and rolls them up
// into an overall status. A dead database makes the service unhealthy;
// anything else failing only degrades it.
func (s *Server) handleDetailedHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status := "healthy"

	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			checks["database"] = err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	}
	if s.queue != nil {
		if err := s.queue.Ping(r.Context()); err != nil {
			checks["queue"] = err.Error()
			if status == "healthy" {
				status = "degraded"
			}
		} else {
			checks["queue"] = "ok"
		}
	}
	if s.provider != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		health := s.provider.HealthCheck(ctx)
		checks["provider"] = health.Status
		if health.Status != "healthy" && status == "healthy" {
			status = "degraded"
		}
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

// handleMetrics reports corpus totals and the active embedding
// configuration, mainly for dashboards and capacity checks.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ingestService.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to collect metrics")
		return
	}

	resp := map[string]any{
		"documents": stats.Documents,
		"chunks":    stats.Chunks,
	}
	if s.provider != nil {
		resp["provider"] = s.provider.Name()
		resp["embedding_dimensions"] = s.provider.Dimensions()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Auth endpoints

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.Authenticate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "password is required")
		default:
			writeError(w, http.StatusInternalServerError, "authentication failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Document endpoints

// handleUpload accepts a multipart upload and runs the synchronous part
// of ingestion: staging, version resolution and job enqueue. The response
// carries a job ID to poll when background processing was started.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	part, cleanup, err := firstFilePart(r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	result, err := s.ingestService.Upload(r.Context(), part.FileName(), part.Header.Get("Content-Type"), part)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// batchUploadItem is the per-file outcome of a batch upload.
type batchUploadItem struct {
	Filename string               `json:"filename"`
	Result   *domain.UploadResult `json:"result,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// handleBatchUpload processes each file part sequentially through the
// single-upload flow. One failing file does not abort the rest.
func (s *Server) handleBatchUpload(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form data")
		return
	}

	var items []batchUploadItem
	succeeded := 0

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed multipart body")
			return
		}
		if part.FormName() != "files" || part.FileName() == "" {
			part.Close()
			continue
		}

		item := batchUploadItem{Filename: part.FileName()}
		result, err := s.ingestService.Upload(r.Context(), part.FileName(), part.Header.Get("Content-Type"), part)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Result = result
			succeeded++
		}
		part.Close()
		items = append(items, item)
	}

	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results":   items,
		"total":     len(items),
		"succeeded": succeeded,
		"failed":    len(items) - succeeded,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	docs, err := s.ingestService.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	if docs == nil {
		docs = []*domain.DocumentInfo{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ingestService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get document")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	err := s.ingestService.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Retrieval endpoints

// searchRequest uses pointer fields so absent values fall back to the
// default search options rather than zeroing them.
type searchRequest struct {
	Query               string   `json:"query"`
	TopK                *int     `json:"top_k"`
	UseRecencyBoost     *bool    `json:"use_recency_boost"`
	RecencyWeight       *float64 `json:"recency_weight"`
	SimilarityThreshold *float64 `json:"similarity_threshold"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := domain.DefaultSearchOptions()
	if req.TopK != nil {
		opts.TopK = *req.TopK
	}
	if req.UseRecencyBoost != nil {
		opts.UseRecencyBoost = *req.UseRecencyBoost
	}
	if req.RecencyWeight != nil {
		opts.RecencyWeight = *req.RecencyWeight
	}
	if req.SimilarityThreshold != nil {
		opts.SimilarityThreshold = *req.SimilarityThreshold
	}

	results, err := s.searchService.Search(r.Context(), req.Query, opts)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if results == nil {
		results = []*domain.SearchResult{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

type filteredSearchRequest struct {
	Query   string               `json:"query"`
	TopK    int                  `json:"top_k"`
	Filters domain.SearchFilters `json:"filters"`
}

func (s *Server) handleSearchFiltered(w http.ResponseWriter, r *http.Request) {
	var req filteredSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := s.searchService.SearchFiltered(r.Context(), req.Query, req.TopK, req.Filters)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if results == nil {
		results = []*domain.SearchResult{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

type qaRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

func (s *Server) handleQA(w http.ResponseWriter, r *http.Request) {
	var req qaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.qaService.Answer(r.Context(), req.Question, req.TopK)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "question is required")
		case errors.Is(err, domain.ErrCompletionUnsupported):
			writeError(w, http.StatusNotImplemented, "completion provider not configured")
		default:
			writeError(w, http.StatusInternalServerError, "question answering failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

type completenessRequest struct {
	Requirements []string `json:"requirements"`
}

func (s *Server) handleCompleteness(w http.ResponseWriter, r *http.Request) {
	var req completenessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := s.completenessService.Check(r.Context(), req.Requirements)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "requirements are required")
			return
		}
		writeError(w, http.StatusInternalServerError, "completeness check failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Job endpoints

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.jobService.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get job status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Helpers

// firstFilePart streams to the first file part with the given form name.
// The caller must invoke cleanup when done with the part.
func firstFilePart(r *http.Request, name string) (*multipart.Part, func(), error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil, fmt.Errorf("expected multipart form data")
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, nil, fmt.Errorf("missing %q file field", name)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("malformed multipart body")
		}
		if part.FormName() == name && part.FileName() != "" {
			return part, func() { part.Close() }, nil
		}
		part.Close()
	}
}

func writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFileType):
		writeError(w, http.StatusBadRequest, "unsupported file type: only pdf, docx and txt are accepted")
	case errors.Is(err, domain.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
	case errors.Is(err, domain.ErrUploadStalled):
		writeError(w, http.StatusRequestTimeout, "upload stalled")
	case errors.Is(err, domain.ErrVersionConflict):
		writeError(w, http.StatusConflict, "a concurrent upload of this filename is in progress")
	default:
		writeError(w, http.StatusInternalServerError, "upload failed")
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
