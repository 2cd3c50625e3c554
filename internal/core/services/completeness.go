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
	// completenessTopK is how many chunks are inspected per requirement.
	completenessTopK = 3

	// coveredSimilarityThreshold is the best-match similarity above which
	// a requirement counts as covered.
	coveredSimilarityThreshold = 0.7

	completenessTemperature  = 0.2
	completenessMaxTokens    = 500
	completenessSystemPrompt = "You are an expert at analyzing documentation completeness."
)

// Ensure completenessService implements CompletenessService
var _ driving.CompletenessService = (*completenessService)(nil)

// completenessService audits how well the knowledge base covers a list of
// required topics. Coverage is decided by retrieval similarity; the LLM
// only supplies the human-readable rationale.
type completenessService struct {
	search   driving.SearchService
	provider driven.AIProvider
	logger   *slog.Logger
}

// NewCompletenessService creates a new CompletenessService.
func NewCompletenessService(search driving.SearchService, provider driven.AIProvider, logger *slog.Logger) driving.CompletenessService {
	return &completenessService{
		search:   search,
		provider: provider,
		logger:   logger.With("service", "completeness"),
	}
}

// Check searches for each requirement and classifies its coverage.
func (s *completenessService) Check(ctx context.Context, requirements []string) (*domain.CompletenessReport, error) {
	if len(requirements) == 0 {
		return nil, domain.ErrInvalidInput
	}

	analysis := make([]domain.RequirementAnalysis, 0, len(requirements))
	for _, requirement := range requirements {
		entry, err := s.analyzeRequirement(ctx, requirement)
		if err != nil {
			return nil, err
		}
		analysis = append(analysis, entry)
	}

	covered := 0
	var gaps []string
	for _, entry := range analysis {
		if entry.Covered {
			covered++
		} else {
			gaps = append(gaps, entry.Requirement)
		}
	}

	report := &domain.CompletenessReport{
		CompletenessPercentage: float64(covered) / float64(len(requirements)) * 100,
		TotalRequirements:      len(requirements),
		CoveredCount:           covered,
		Gaps:                   gaps,
		DetailedAnalysis:       analysis,
	}

	s.logger.Info("completeness check done",
		"requirements", len(requirements),
		"covered", covered,
		"percentage", report.CompletenessPercentage)
	return report, nil
}

func (s *completenessService) analyzeRequirement(ctx context.Context, requirement string) (domain.RequirementAnalysis, error) {
	opts := domain.DefaultSearchOptions()
	opts.TopK = completenessTopK
	results, err := s.search.Search(ctx, requirement, opts)
	if err != nil {
		return domain.RequirementAnalysis{}, fmt.Errorf("search requirement %q: %w", requirement, err)
	}

	if len(results) == 0 {
		return domain.RequirementAnalysis{
			Requirement: requirement,
			Covered:     false,
			Confidence:  0,
			Summary:     "No relevant information found",
			Sources:     []domain.AnswerSource{},
		}, nil
	}

	bestSimilarity := results[0].Similarity

	var texts []string
	sources := make([]domain.AnswerSource, len(results))
	for i, result := range results {
		texts = append(texts, result.Text)
		sources[i] = domain.AnswerSource{
			Filename:   result.Filename,
			ChunkIndex: result.ChunkIndex,
			Similarity: result.Similarity,
		}
	}

	prompt := fmt.Sprintf(`Analyze if the following content adequately covers the topic: %q

Content:
%s

Does this content cover the topic? Provide:
1. Yes/No
2. Brief explanation (2-3 sentences)
3. What's missing (if anything)`, requirement, strings.Join(texts, "\n\n"))

	messages := []driven.Message{
		{Role: "system", Content: completenessSystemPrompt},
		{Role: "user", Content: prompt},
	}

	summary, err := s.provider.Complete(ctx, messages, completenessTemperature, completenessMaxTokens)
	if err != nil {
		// The similarity verdict stands alone; a completion outage only
		// loses the prose rationale.
		s.logger.Warn("coverage rationale unavailable", "requirement", requirement, "error", err)
		summary = fmt.Sprintf("Coverage analysis unavailable (best similarity %.2f)", bestSimilarity)
	}

	return domain.RequirementAnalysis{
		Requirement: requirement,
		Covered:     bestSimilarity > coveredSimilarityThreshold,
		Confidence:  bestSimilarity,
		Summary:     summary,
		Sources:     sources,
	}, nil
}
