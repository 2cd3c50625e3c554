package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
)

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider("", "text-embedding-3-small", "gpt-4o-mini", "")
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	p, err := NewOpenAIProvider("sk-test", "", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.embeddingModel != "text-embedding-3-small" {
		t.Errorf("expected default embedding model, got %s", p.embeddingModel)
	}
	if p.chatModel != "gpt-4o-mini" {
		t.Errorf("expected default chat model, got %s", p.chatModel)
	}
	if p.baseURL != "https://api.openai.com/v1" {
		t.Errorf("expected default base URL, got %s", p.baseURL)
	}
	if p.Name() != "openai" {
		t.Errorf("expected provider name openai, got %s", p.Name())
	}
}

func TestOpenAIProvider_Dimensions(t *testing.T) {
	testCases := []struct {
		model      string
		dimensions int
	}{
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"text-embedding-ada-002", 1536},
		{"unknown-model", 1536}, // defaults to 1536
	}

	for _, tc := range testCases {
		t.Run(tc.model, func(t *testing.T) {
			p, err := NewOpenAIProvider("sk-test", tc.model, "", "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if p.Dimensions() != tc.dimensions {
				t.Errorf("expected dimensions %d, got %d", tc.dimensions, p.Dimensions())
			}
		})
	}
}

func TestOpenAIProvider_EmbedBatch(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Input) != 2 {
			t.Errorf("expected 2 inputs, got %d", len(req.Input))
		}

		// Return out of order to verify index-based reassembly
		resp := map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0.3, 0.4}},
				{"index": 0, "embedding": []float32{0.1, 0.2}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p, err := NewOpenAIProvider("sk-test", "text-embedding-3-small", "", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	embeddings, err := p.EmbedBatch(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if len(embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(embeddings))
	}
	if embeddings[0][0] != 0.1 || embeddings[1][0] != 0.3 {
		t.Errorf("embeddings not reordered by index: %v", embeddings)
	}
}

func TestOpenAIProvider_EmbedBatch_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"message": "invalid api key",
				"type":    "invalid_request_error",
				"code":    "invalid_api_key",
			},
		})
	}))
	defer server.Close()

	p, err := NewOpenAIProvider("sk-bad", "text-embedding-3-small", "", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = p.EmbedBatch(context.Background(), []string{"text"})
	if err == nil {
		t.Error("expected API error")
	}
}

func TestOpenAIProvider_EmbedBatch_Empty(t *testing.T) {
	p, err := NewOpenAIProvider("sk-test", "", "", "http://unusedatest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	embeddings, err := p.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embeddings != nil {
		t.Errorf("expected nil embeddings for empty input, got %v", embeddings)
	}
}

func TestOpenAIProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Temperature != 0.7 {
			t.Errorf("expected temperature 0.7, got %v", req.Temperature)
		}
		if req.MaxTokens != 500 {
			t.Errorf("expected max_tokens 500, got %d", req.MaxTokens)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "The answer is 42."}},
			},
		})
	}))
	defer server.Close()

	p, err := NewOpenAIProvider("sk-test", "", "gpt-4o-mini", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	messages := []driven.Message{
		{Role: "system", Content: "You are helpful."},
		{Role: "user", Content: "What is the answer?"},
	}
	answer, err := p.Complete(context.Background(), messages, 0.7, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "The answer is 42." {
		t.Errorf("unexpected completion: %q", answer)
	}
}

func TestOpenAIProvider_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	p, err := NewOpenAIProvider("sk-test", "", "", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = p.Complete(context.Background(), []driven.Message{{Role: "user", Content: "hi"}}, 0.7, 100)
	if err == nil {
		t.Error("expected error for empty choices")
	}
}
