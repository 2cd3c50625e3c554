package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
)

// Service stubs

type stubAuthService struct{}

func (s *stubAuthService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if req.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	if req.Password != "secret" {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.LoginResponse{Token: "issued-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *stubAuthService) ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error) {
	switch token {
	case "good-token":
		now := time.Now()
		return &domain.TokenClaims{Subject: "admin", IssuedAt: now.Unix(), ExpiresAt: now.Add(time.Hour).Unix()}, nil
	case "expired-token":
		return nil, domain.ErrTokenExpired
	default:
		return nil, domain.ErrTokenInvalid
	}
}

type stubIngestService struct {
	uploads   []string
	uploadErr error
	documents []*domain.DocumentInfo
	deleted   []string
	stats     domain.CorpusStats
	statsErr  error
}

func (s *stubIngestService) Upload(ctx context.Context, filename, contentType string, r io.Reader) (*domain.UploadResult, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	s.uploads = append(s.uploads, filename)
	return &domain.UploadResult{
		Status:     domain.UploadStatusNew,
		Message:    "Document uploaded successfully. Processing in background.",
		DocumentID: "doc-1",
		Version:    1,
		JobID:      "job-1",
	}, nil
}

func (s *stubIngestService) List(ctx context.Context, limit, offset int) ([]*domain.DocumentInfo, error) {
	return s.documents, nil
}

func (s *stubIngestService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if id != "doc-1" {
		return nil, domain.ErrNotFound
	}
	return &domain.Document{ID: "doc-1", Filename: "report.pdf", Version: 2, IsActive: true}, nil
}

func (s *stubIngestService) Delete(ctx context.Context, id string) error {
	if id != "doc-1" {
		return domain.ErrNotFound
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubIngestService) Stats(ctx context.Context) (*domain.CorpusStats, error) {
	if s.statsErr != nil {
		return nil, s.statsErr
	}
	stats := s.stats
	return &stats, nil
}

// stubPinger reports the configured error from Ping.
type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(ctx context.Context) error {
	return p.err
}

// stubProvider is a minimal AIProvider for the health and metrics handlers.
type stubProvider struct {
	status string
}

func (p *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("not implemented")
}

func (p *stubProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func (p *stubProvider) Complete(ctx context.Context, messages []driven.Message, temperature float64, maxTokens int) (string, error) {
	return "", errors.New("not implemented")
}

func (p *stubProvider) HealthCheck(ctx context.Context) driven.ProviderHealth {
	return driven.ProviderHealth{Status: p.status, Provider: p.Name()}
}

func (p *stubProvider) Name() string { return "openai" }

func (p *stubProvider) Dimensions() int { return 1536 }

type stubSearchService struct {
	lastQuery   string
	lastOpts    domain.SearchOptions
	lastTopK    int
	lastFilters domain.SearchFilters
	results     []*domain.SearchResult
}

func (s *stubSearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]*domain.SearchResult, error) {
	if query == "" {
		return nil, domain.ErrInvalidInput
	}
	s.lastQuery = query
	s.lastOpts = opts
	return s.results, nil
}

func (s *stubSearchService) SearchFiltered(ctx context.Context, query string, topK int, filters domain.SearchFilters) ([]*domain.SearchResult, error) {
	if query == "" {
		return nil, domain.ErrInvalidInput
	}
	s.lastQuery = query
	s.lastTopK = topK
	s.lastFilters = filters
	return s.results, nil
}

func (s *stubSearchService) InvalidateCache() {}

type stubQAService struct {
	err error
}

func (s *stubQAService) Answer(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	if s.err != nil {
		return nil, s.err
	}
	if question == "" {
		return nil, domain.ErrInvalidInput
	}
	return &domain.Answer{
		Answer:   "Payment is due in 30 days.",
		Sources:  []domain.AnswerSource{{Filename: "contract.pdf", ChunkIndex: 2, Similarity: 0.91}},
		Provider: "openai",
	}, nil
}

type stubCompletenessService struct{}

func (s *stubCompletenessService) Check(ctx context.Context, requirements []string) (*domain.CompletenessReport, error) {
	if len(requirements) == 0 {
		return nil, domain.ErrInvalidInput
	}
	return &domain.CompletenessReport{
		CompletenessPercentage: 50,
		TotalRequirements:      len(requirements),
		CoveredCount:           1,
		Gaps:                   []string{"refund policy"},
	}, nil
}

type stubJobService struct{}

func (s *stubJobService) Status(ctx context.Context, jobID string) (*domain.JobStatus, error) {
	if jobID != "job-1" {
		return nil, domain.ErrNotFound
	}
	return &domain.JobStatus{
		JobID:    "job-1",
		State:    domain.JobStateRunning,
		Progress: &domain.Progress{Step: domain.StepGeneratingEmbeddings, Percent: 50},
	}, nil
}

type testFixture struct {
	server *Server
	ingest *stubIngestService
	search *stubSearchService
	qa     *stubQAService
}

func newTestServer(t *testing.T) *testFixture {
	return newTestServerWithInfra(t, nil, nil, nil)
}

func newTestServerWithInfra(t *testing.T, provider driven.AIProvider, db, queue Pinger) *testFixture {
	t.Helper()

	f := &testFixture{
		ingest: &stubIngestService{},
		search: &stubSearchService{},
		qa:     &stubQAService{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.server = NewServer(
		DefaultConfig(),
		&stubAuthService{},
		f.ingest,
		f.search,
		f.qa,
		&stubCompletenessService{},
		&stubJobService{},
		provider, db, queue,
		logger,
	)
	return f
}

func doRequest(t *testing.T, s *Server, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, s *Server, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return doRequest(t, s, method, path, token, bytes.NewReader(body), "application/json")
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func multipartBody(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// Tests

func TestHandleHealth(t *testing.T) {
	f := newTestServer(t)

	rec := doRequest(t, f.server, "GET", "/health", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	decodeBody(t, rec, &resp)
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %v", resp["status"])
	}
}

func TestHandleReady_NoBackends(t *testing.T) {
	f := newTestServer(t)

	rec := doRequest(t, f.server, "GET", "/ready", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandleDetailedHealth_AllChecksPass(t *testing.T) {
	f := newTestServerWithInfra(t, &stubProvider{status: "healthy"}, &stubPinger{}, &stubPinger{})

	rec := doRequest(t, f.server, "GET", "/health/detailed", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decodeBody(t, rec, &resp)
	if resp.Status != "healthy" {
		t.Errorf("expected healthy, got %q", resp.Status)
	}
	if resp.Checks["database"] != "ok" || resp.Checks["queue"] != "ok" || resp.Checks["provider"] != "healthy" {
		t.Errorf("unexpected checks: %+v", resp.Checks)
	}
}

func TestHandleDetailedHealth_ProviderDownDegrades(t *testing.T) {
	f := newTestServerWithInfra(t, &stubProvider{status: "unhealthy"}, &stubPinger{}, &stubPinger{})

	rec := doRequest(t, f.server, "GET", "/health/detailed", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Status string `json:"status"`
	}
	decodeBody(t, rec, &resp)
	if resp.Status != "degraded" {
		t.Errorf("expected degraded, got %q", resp.Status)
	}
}

func TestHandleDetailedHealth_DatabaseDownIsUnhealthy(t *testing.T) {
	f := newTestServerWithInfra(t, &stubProvider{status: "healthy"}, &stubPinger{err: errors.New("connection refused")}, &stubPinger{})

	rec := doRequest(t, f.server, "GET", "/health/detailed", "", nil, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var resp struct {
		Status string `json:"status"`
	}
	decodeBody(t, rec, &resp)
	if resp.Status != "unhealthy" {
		t.Errorf("expected unhealthy, got %q", resp.Status)
	}
}

func TestHandleMetrics(t *testing.T) {
	f := newTestServerWithInfra(t, &stubProvider{status: "healthy"}, nil, nil)
	f.ingest.stats = domain.CorpusStats{Documents: 4, Chunks: 87}

	rec := doRequest(t, f.server, "GET", "/metrics", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Documents  int    `json:"documents"`
		Chunks     int    `json:"chunks"`
		Provider   string `json:"provider"`
		Dimensions int    `json:"embedding_dimensions"`
	}
	decodeBody(t, rec, &resp)
	if resp.Documents != 4 || resp.Chunks != 87 {
		t.Errorf("unexpected totals: %+v", resp)
	}
	if resp.Provider != "openai" || resp.Dimensions != 1536 {
		t.Errorf("unexpected provider info: %+v", resp)
	}
}

func TestHandleMetrics_StoreError(t *testing.T) {
	f := newTestServer(t)
	f.ingest.statsErr = errors.New("boom")

	rec := doRequest(t, f.server, "GET", "/metrics", "", nil, "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestHandleLogin(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.server, "POST", "/api/v1/auth/login", "", domain.LoginRequest{Password: "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.LoginResponse
	decodeBody(t, rec, &resp)
	if resp.Token != "issued-token" {
		t.Errorf("expected issued token, got %q", resp.Token)
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.server, "POST", "/api/v1/auth/login", "", domain.LoginRequest{Password: "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandleLogin_EmptyPassword(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.server, "POST", "/api/v1/auth/login", "", domain.LoginRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAuthentication_MissingToken(t *testing.T) {
	f := newTestServer(t)

	rec := doRequest(t, f.server, "GET", "/api/v1/documents", "", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthentication_ExpiredToken(t *testing.T) {
	f := newTestServer(t)

	rec := doRequest(t, f.server, "GET", "/api/v1/documents", "expired-token", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	if resp.Error != "token expired" {
		t.Errorf("expected token expired message, got %q", resp.Error)
	}
}

func TestAuthentication_InvalidToken(t *testing.T) {
	f := newTestServer(t)

	rec := doRequest(t, f.server, "GET", "/api/v1/documents", "bogus", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandleUpload(t *testing.T) {
	f := newTestServer(t)

	body, contentType := multipartBody(t, "file", map[string]string{"invoice.txt": "Total due: $5,000"})
	rec := doRequest(t, f.server, "POST", "/api/v1/documents/upload", "good-token", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result domain.UploadResult
	decodeBody(t, rec, &result)
	if result.JobID != "job-1" {
		t.Errorf("expected job ID in response, got %q", result.JobID)
	}
	if len(f.ingest.uploads) != 1 || f.ingest.uploads[0] != "invoice.txt" {
		t.Errorf("expected upload of invoice.txt, got %v", f.ingest.uploads)
	}
}

func TestHandleUpload_MissingFile(t *testing.T) {
	f := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("note", "no file here")
	_ = mw.Close()

	rec := doRequest(t, f.server, "POST", "/api/v1/documents/upload", "good-token", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleUpload_ErrorMapping(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"unsupported_type", domain.ErrUnsupportedFileType, http.StatusBadRequest},
		{"too_large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"stalled", domain.ErrUploadStalled, http.StatusRequestTimeout},
		{"version_conflict", domain.ErrVersionConflict, http.StatusConflict},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newTestServer(t)
			f.ingest.uploadErr = tc.err

			body, contentType := multipartBody(t, "file", map[string]string{"doc.pdf": "data"})
			rec := doRequest(t, f.server, "POST", "/api/v1/documents/upload", "good-token", body, contentType)
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestHandleBatchUpload(t *testing.T) {
	f := newTestServer(t)

	body, contentType := multipartBody(t, "files", map[string]string{
		"a.txt": "first",
		"b.txt": "second",
	})
	rec := doRequest(t, f.server, "POST", "/api/v1/documents/batch-upload", "good-token", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Total     int `json:"total"`
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
	}
	decodeBody(t, rec, &resp)
	if resp.Total != 2 || resp.Succeeded != 2 || resp.Failed != 0 {
		t.Errorf("unexpected batch summary: %+v", resp)
	}
	if len(f.ingest.uploads) != 2 {
		t.Errorf("expected 2 uploads, got %d", len(f.ingest.uploads))
	}
}

func TestHandleBatchUpload_PartialFailure(t *testing.T) {
	f := newTestServer(t)
	f.ingest.uploadErr = domain.ErrUnsupportedFileType

	body, contentType := multipartBody(t, "files", map[string]string{"a.png": "img"})
	rec := doRequest(t, f.server, "POST", "/api/v1/documents/batch-upload", "good-token", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Results []batchUploadItem `json:"results"`
		Failed  int               `json:"failed"`
	}
	decodeBody(t, rec, &resp)
	if resp.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", resp.Failed)
	}
	if len(resp.Results) != 1 || resp.Results[0].Error == "" {
		t.Errorf("expected per-file error, got %+v", resp.Results)
	}
}

func TestHandleBatchUpload_NoFiles(t *testing.T) {
	f := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.Close()

	rec := doRequest(t, f.server, "POST", "/api/v1/documents/batch-upload", "good-token", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleListDocuments(t *testing.T) {
	f := newTestServer(t)
	f.ingest.documents = []*domain.DocumentInfo{
		{ID: "doc-1", Filename: "report.pdf", Version: 2, IsActive: true, ChunkCount: 12},
	}

	rec := doRequest(t, f.server, "GET", "/api/v1/documents", "good-token", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Documents []*domain.DocumentInfo `json:"documents"`
		Count     int                    `json:"count"`
	}
	decodeBody(t, rec, &resp)
	if resp.Count != 1 || resp.Documents[0].ChunkCount != 12 {
		t.Errorf("unexpected listing: %+v", resp)
	}
}

func TestHandleGetDocument_NotFound(t *testing.T) {
	f := newTestServer(t)

	rec := doRequest(t, f.server, "GET", "/api/v1/documents/missing", "good-token", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleDeleteDocument(t *testing.T) {
	f := newTestServer(t)

	rec := doRequest(t, f.server, "DELETE", "/api/v1/documents/doc-1", "good-token", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(f.ingest.deleted) != 1 {
		t.Errorf("expected delete call, got %v", f.ingest.deleted)
	}

	rec = doRequest(t, f.server, "DELETE", "/api/v1/documents/missing", "good-token", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleSearch_DefaultOptions(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.server, "POST", "/api/v1/search", "good-token", map[string]any{"query": "payment terms"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	want := domain.DefaultSearchOptions()
	if f.search.lastOpts != want {
		t.Errorf("expected default options %+v, got %+v", want, f.search.lastOpts)
	}
}

func TestHandleSearch_ExplicitOptions(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.server, "POST", "/api/v1/search", "good-token", map[string]any{
		"query":             "payment terms",
		"top_k":             5,
		"use_recency_boost": false,
		"recency_weight":    0.5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if f.search.lastOpts.TopK != 5 {
		t.Errorf("expected topK 5, got %d", f.search.lastOpts.TopK)
	}
	if f.search.lastOpts.UseRecencyBoost {
		t.Error("expected recency boost disabled")
	}
	if f.search.lastOpts.RecencyWeight != 0.5 {
		t.Errorf("expected recency weight 0.5, got %v", f.search.lastOpts.RecencyWeight)
	}
}

func TestHandleSearch_EmptyQuery(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.server, "POST", "/api/v1/search", "good-token", map[string]any{"query": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleSearchFiltered(t *testing.T) {
	f := newTestServer(t)

	minRecency := 0.7
	rec := doJSON(t, f.server, "POST", "/api/v1/search/filtered", "good-token", filteredSearchRequest{
		Query: "invoices",
		TopK:  5,
		Filters: domain.SearchFilters{
			DataTypes:       []string{"financial"},
			EntityIDs:       []string{"INV-2024-001"},
			MinRecencyScore: &minRecency,
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if f.search.lastTopK != 5 {
		t.Errorf("expected topK 5, got %d", f.search.lastTopK)
	}
	if len(f.search.lastFilters.DataTypes) != 1 || f.search.lastFilters.DataTypes[0] != "financial" {
		t.Errorf("filters not forwarded: %+v", f.search.lastFilters)
	}
	if f.search.lastFilters.MinRecencyScore == nil || *f.search.lastFilters.MinRecencyScore != 0.7 {
		t.Errorf("recency floor not forwarded: %+v", f.search.lastFilters)
	}
}

func TestHandleQA(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.server, "POST", "/api/v1/qa", "good-token", qaRequest{Question: "When is payment due?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var answer domain.Answer
	decodeBody(t, rec, &answer)
	if !strings.Contains(answer.Answer, "30 days") {
		t.Errorf("unexpected answer: %q", answer.Answer)
	}
	if len(answer.Sources) != 1 {
		t.Errorf("expected 1 source, got %d", len(answer.Sources))
	}
}

func TestHandleQA_CompletionUnsupported(t *testing.T) {
	f := newTestServer(t)
	f.qa.err = domain.ErrCompletionUnsupported

	rec := doJSON(t, f.server, "POST", "/api/v1/qa", "good-token", qaRequest{Question: "anything"})
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("expected 501, got %d", rec.Code)
	}
}

func TestHandleCompleteness(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.server, "POST", "/api/v1/completeness", "good-token", completenessRequest{
		Requirements: []string{"payment terms", "refund policy"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var report domain.CompletenessReport
	decodeBody(t, rec, &report)
	if report.TotalRequirements != 2 {
		t.Errorf("expected 2 requirements, got %d", report.TotalRequirements)
	}
}

func TestHandleCompleteness_Empty(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.server, "POST", "/api/v1/completeness", "good-token", completenessRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleJobStatus(t *testing.T) {
	f := newTestServer(t)

	rec := doRequest(t, f.server, "GET", "/api/v1/jobs/job-1", "good-token", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var status domain.JobStatus
	decodeBody(t, rec, &status)
	if status.State != domain.JobStateRunning {
		t.Errorf("expected running state, got %s", status.State)
	}
	if status.Progress == nil || status.Progress.Percent != 50 {
		t.Errorf("expected progress 50, got %+v", status.Progress)
	}
}

func TestHandleJobStatus_NotFound(t *testing.T) {
	f := newTestServer(t)

	rec := doRequest(t, f.server, "GET", "/api/v1/jobs/missing", "good-token", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
