package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/queries"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/domain"
)

// ToolDependencies provides handlers for MCP tools.
type ToolDependencies struct {
	Analyze    *commands.AnalyzeTasksHandler
	Suggest    *queries.SuggestTasksHandler
	Plan       *queries.PlanTasksHandler
	Strategies *queries.ListStrategiesHandler
}

type batchInput struct {
	Tasks    []map[string]any `json:"tasks" jsonschema:"required"`
	Strategy string           `json:"strategy,omitempty"`
	Today    string           `json:"today,omitempty"`
}

type suggestInput struct {
	Tasks    []map[string]any `json:"tasks" jsonschema:"required"`
	Strategy string           `json:"strategy,omitempty"`
	Today    string           `json:"today,omitempty"`
	Limit    int              `json:"limit,omitempty"`
}

type emptyInput struct{}

type analyzeOutput struct {
	AnalysisID  string              `json:"analysis_id"`
	Strategy    domain.Strategy     `json:"strategy"`
	EvaluatedOn string              `json:"evaluated_on"`
	Cached      bool                `json:"cached"`
	CycleIDs    []string            `json:"cycle_ids"`
	Tasks       []domain.ScoredTask `json:"tasks"`
}

type suggestOutput struct {
	Strategy    domain.Strategy     `json:"strategy"`
	EvaluatedOn string              `json:"evaluated_on"`
	Total       int                 `json:"total"`
	Suggestions []domain.ScoredTask `json:"suggestions"`
}

type planOutput struct {
	Strategy      domain.Strategy     `json:"strategy"`
	EvaluatedOn   string              `json:"evaluated_on"`
	Order         []string            `json:"order"`
	Unschedulable []string            `json:"unschedulable"`
	Tasks         []domain.ScoredTask `json:"tasks"`
}

// RegisterTools registers the ranking tools.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.Analyze == nil {
		return errors.New("analyze handler is required")
	}

	tools := newToolHandlers(deps)

	srv.Tool("tasks.analyze").
		Description("Rank a batch of tasks by priority score under a strategy (smart_balance, fastest_wins, high_impact, deadline_driven)").
		Handler(tools.analyze)

	srv.Tool("tasks.suggest").
		Description("Return the top ranked tasks of a batch, three by default").
		Handler(tools.suggest)

	srv.Tool("tasks.plan").
		Description("Order a batch so that dependencies come first; tasks in dependency cycles are reported as unschedulable").
		Handler(tools.plan)

	srv.Tool("strategies.list").
		Description("List ranking strategies with their weights").
		Handler(tools.strategies)

	return nil
}

type toolHandlers struct {
	deps ToolDependencies
}

// newToolHandlers derives the missing query handlers from the analyze handler.
func newToolHandlers(deps ToolDependencies) toolHandlers {
	if deps.Suggest == nil {
		deps.Suggest = queries.NewSuggestTasksHandler(deps.Analyze, 0)
	}
	if deps.Plan == nil {
		deps.Plan = queries.NewPlanTasksHandler(deps.Analyze)
	}
	if deps.Strategies == nil {
		deps.Strategies = queries.NewListStrategiesHandler()
	}
	return toolHandlers{deps: deps}
}

func (t toolHandlers) analyze(ctx context.Context, input batchInput) (*analyzeOutput, error) {
	payloads, today, err := input.decode()
	if err != nil {
		return nil, err
	}

	result, err := t.deps.Analyze.Handle(ctx, commands.AnalyzeTasksCommand{
		Tasks:    payloads,
		Strategy: input.Strategy,
		Today:    today,
	})
	if err != nil {
		return nil, err
	}

	return &analyzeOutput{
		AnalysisID:  result.AnalysisID.String(),
		Strategy:    result.Strategy,
		EvaluatedOn: result.EvaluatedOn,
		Cached:      result.Cached,
		CycleIDs:    nonNil(result.CycleIDs),
		Tasks:       result.Ranked,
	}, nil
}

func (t toolHandlers) suggest(ctx context.Context, input suggestInput) (*suggestOutput, error) {
	payloads, today, err := batchInput{Tasks: input.Tasks, Today: input.Today}.decode()
	if err != nil {
		return nil, err
	}

	result, err := t.deps.Suggest.Handle(ctx, queries.SuggestTasksQuery{
		Tasks:    payloads,
		Strategy: input.Strategy,
		Limit:    input.Limit,
		Today:    today,
	})
	if err != nil {
		return nil, err
	}

	return &suggestOutput{
		Strategy:    result.Strategy,
		EvaluatedOn: result.EvaluatedOn,
		Total:       result.Total,
		Suggestions: result.Suggestions,
	}, nil
}

func (t toolHandlers) plan(ctx context.Context, input batchInput) (*planOutput, error) {
	payloads, today, err := input.decode()
	if err != nil {
		return nil, err
	}

	result, err := t.deps.Plan.Handle(ctx, queries.PlanTasksQuery{
		Tasks:    payloads,
		Strategy: input.Strategy,
		Today:    today,
	})
	if err != nil {
		return nil, err
	}

	return &planOutput{
		Strategy:      result.Strategy,
		EvaluatedOn:   result.EvaluatedOn,
		Order:         nonNil(result.Plan.Order),
		Unschedulable: nonNil(result.Plan.Unschedulable),
		Tasks:         result.Ranked,
	}, nil
}

func (t toolHandlers) strategies(ctx context.Context, _ emptyInput) ([]queries.StrategyDTO, error) {
	return t.deps.Strategies.Handle(ctx), nil
}
