package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driving"
)

const (
	qaDefaultTopK    = 5
	qaTemperature    = 0.7
	qaMaxTokens      = 500
	qaNoContextReply = "I couldn't find relevant information to answer this question."

	qaSystemPrompt = "You are a helpful assistant that answers questions based on provided context. Always cite your sources."
)

// Ensure qaService implements QAService
var _ driving.QAService = (*qaService)(nil)

// qaService answers questions by retrieving relevant chunks and handing
// them to the completion provider as context.
type qaService struct {
	search   driving.SearchService
	provider driven.AIProvider
	logger   *slog.Logger
}

// NewQAService creates a new QAService.
func NewQAService(search driving.SearchService, provider driven.AIProvider, logger *slog.Logger) driving.QAService {
	return &qaService{
		search:   search,
		provider: provider,
		logger:   logger.With("service", "qa"),
	}
}

// Answer retrieves context for the question and composes an answer.
func (s *qaService) Answer(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	if question == "" {
		return nil, domain.ErrInvalidInput
	}
	if topK <= 0 {
		topK = qaDefaultTopK
	}

	opts := domain.DefaultSearchOptions()
	opts.TopK = topK
	results, err := s.search.Search(ctx, question, opts)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	if len(results) == 0 {
		return &domain.Answer{
			Answer:   qaNoContextReply,
			Sources:  []domain.AnswerSource{},
			Provider: s.provider.Name(),
		}, nil
	}

	var contextParts []string
	for i, result := range results {
		contextParts = append(contextParts, fmt.Sprintf("[Source %d - %s]:\n%s", i+1, result.Filename, result.Text))
	}

	prompt := fmt.Sprintf(`Based on the following context from our knowledge base, please answer the question.
If the answer is not in the context, say so.

Context:
%s

Question: %s

Answer:`, strings.Join(contextParts, "\n\n"), question)

	messages := []driven.Message{
		{Role: "system", Content: qaSystemPrompt},
		{Role: "user", Content: prompt},
	}

	answer, err := s.provider.Complete(ctx, messages, qaTemperature, qaMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	sources := make([]domain.AnswerSource, len(results))
	for i, result := range results {
		sources[i] = domain.AnswerSource{
			Filename:   result.Filename,
			ChunkIndex: result.ChunkIndex,
			Similarity: result.Similarity,
		}
	}

	s.logger.Info("question answered", "sources", len(sources), "provider", s.provider.Name())

	return &domain.Answer{
		Answer:   answer,
		Sources:  sources,
		Provider: s.provider.Name(),
	}, nil
}
