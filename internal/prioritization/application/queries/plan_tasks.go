package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/services"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/domain"
)

// PlanTasksQuery asks for a dependency respecting execution order.
type PlanTasksQuery struct {
	Tasks    []domain.TaskPayload
	Strategy string
	Today    time.Time
}

// PlanTasksResult pairs the ranking with the derived order.
type PlanTasksResult struct {
	Strategy    domain.Strategy
	EvaluatedOn string
	Ranked      []domain.ScoredTask
	Plan        services.ExecutionPlan
}

// PlanTasksHandler ranks a batch and orders it for execution.
type PlanTasksHandler struct {
	analyze *commands.AnalyzeTasksHandler
}

// NewPlanTasksHandler creates a new PlanTasksHandler.
func NewPlanTasksHandler(analyze *commands.AnalyzeTasksHandler) *PlanTasksHandler {
	return &PlanTasksHandler{analyze: analyze}
}

// Handle executes the PlanTasksQuery.
func (h *PlanTasksHandler) Handle(ctx context.Context, query PlanTasksQuery) (*PlanTasksResult, error) {
	analysis, err := h.analyze.Handle(ctx, commands.AnalyzeTasksCommand{
		Tasks:    query.Tasks,
		Strategy: query.Strategy,
		Today:    query.Today,
	})
	if err != nil {
		return nil, err
	}

	plan, err := services.PlanExecution(analysis.Tasks, analysis.Ranked)
	if err != nil {
		return nil, err
	}

	return &PlanTasksResult{
		Strategy:    analysis.Strategy,
		EvaluatedOn: analysis.EvaluatedOn,
		Ranked:      analysis.Ranked,
		Plan:        plan,
	}, nil
}
