package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/domain"
)

// DefaultSuggestLimit is the number of suggestions returned when no limit is configured.
const DefaultSuggestLimit = 3

// SuggestTasksQuery asks for the best next tasks of a batch.
type SuggestTasksQuery struct {
	Tasks    []domain.TaskPayload
	Strategy string
	// Limit overrides the handler's limit when positive.
	Limit int
	Today time.Time
}

// SuggestTasksResult holds the top ranked tasks.
type SuggestTasksResult struct {
	Strategy    domain.Strategy
	EvaluatedOn string
	Suggestions []domain.ScoredTask
	// Total is the size of the ranked batch before truncation.
	Total int
}

// SuggestTasksHandler ranks a batch and keeps its head.
type SuggestTasksHandler struct {
	analyze *commands.AnalyzeTasksHandler
	limit   int
}

// NewSuggestTasksHandler creates a new SuggestTasksHandler.
func NewSuggestTasksHandler(analyze *commands.AnalyzeTasksHandler, limit int) *SuggestTasksHandler {
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	return &SuggestTasksHandler{analyze: analyze, limit: limit}
}

// Handle executes the SuggestTasksQuery.
func (h *SuggestTasksHandler) Handle(ctx context.Context, query SuggestTasksQuery) (*SuggestTasksResult, error) {
	analysis, err := h.analyze.Handle(ctx, commands.AnalyzeTasksCommand{
		Tasks:    query.Tasks,
		Strategy: query.Strategy,
		Today:    query.Today,
	})
	if err != nil {
		return nil, err
	}

	limit := h.limit
	if query.Limit > 0 {
		limit = query.Limit
	}

	return &SuggestTasksResult{
		Strategy:    analysis.Strategy,
		EvaluatedOn: analysis.EvaluatedOn,
		Suggestions: analysis.Ranked[:min(limit, len(analysis.Ranked))],
		Total:       len(analysis.Ranked),
	}, nil
}
