package queries

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/domain"
	"github.com/felixgeelhaar/taskrank/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evalDay = time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

func newAnalyzeHandler() *commands.AnalyzeTasksHandler {
	return commands.NewAnalyzeTasksHandler(commands.AnalyzeTasksHandlerConfig{
		Logger: observability.NewDiscardLogger(),
		Now:    func() time.Time { return evalDay },
	})
}

func payloads(t *testing.T, raw string) []domain.TaskPayload {
	t.Helper()
	list, err := domain.DecodeTaskList(json.RawMessage(raw))
	require.NoError(t, err)
	return list
}

const fiveTasks = `[
	{"id": "t1", "title": "One", "importance": 1, "estimated_hours": 5},
	{"id": "t2", "title": "Two", "importance": 10, "estimated_hours": 1, "due_date": "2025-06-10"},
	{"id": "t3", "title": "Three", "importance": 7, "estimated_hours": 2},
	{"id": "t4", "title": "Four", "importance": 4, "estimated_hours": 2, "dependencies": ["t3"]},
	{"id": "t5", "title": "Five", "importance": 9, "estimated_hours": 8, "due_date": "2025-06-15"}
]`

func TestSuggestTasksHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the top three by default", func(t *testing.T) {
		h := NewSuggestTasksHandler(newAnalyzeHandler(), 0)

		result, err := h.Handle(ctx, SuggestTasksQuery{Tasks: payloads(t, fiveTasks)})
		require.NoError(t, err)

		require.Len(t, result.Suggestions, 3)
		assert.Equal(t, 5, result.Total)
		assert.Equal(t, "t2", result.Suggestions[0].ID)

		full, err := newAnalyzeHandler().Handle(ctx, commands.AnalyzeTasksCommand{Tasks: payloads(t, fiveTasks)})
		require.NoError(t, err)
		assert.Equal(t, full.Ranked[:3], result.Suggestions, "suggestions are the head of the full ranking")
	})

	t.Run("query limit overrides handler limit", func(t *testing.T) {
		h := NewSuggestTasksHandler(newAnalyzeHandler(), 2)

		result, err := h.Handle(ctx, SuggestTasksQuery{Tasks: payloads(t, fiveTasks)})
		require.NoError(t, err)
		assert.Len(t, result.Suggestions, 2)

		result, err = h.Handle(ctx, SuggestTasksQuery{Tasks: payloads(t, fiveTasks), Limit: 4})
		require.NoError(t, err)
		assert.Len(t, result.Suggestions, 4)
	})

	t.Run("short batches are returned whole", func(t *testing.T) {
		h := NewSuggestTasksHandler(newAnalyzeHandler(), 3)

		result, err := h.Handle(ctx, SuggestTasksQuery{Tasks: payloads(t, `[{"title": "only", "importance": 5, "estimated_hours": 1}]`)})
		require.NoError(t, err)
		require.Len(t, result.Suggestions, 1)
		assert.Equal(t, "task_0", result.Suggestions[0].ID)
	})

	t.Run("propagates rejections", func(t *testing.T) {
		h := NewSuggestTasksHandler(newAnalyzeHandler(), 3)

		_, err := h.Handle(ctx, SuggestTasksQuery{Tasks: payloads(t, fiveTasks), Strategy: "nope"})
		assert.ErrorIs(t, err, domain.ErrUnknownStrategy)
	})
}

func TestPlanTasksHandler(t *testing.T) {
	h := NewPlanTasksHandler(newAnalyzeHandler())

	result, err := h.Handle(context.Background(), PlanTasksQuery{
		Tasks: payloads(t, `[
			{"id": "ship", "title": "Ship", "importance": 10, "estimated_hours": 1, "dependencies": ["build"]},
			{"id": "build", "title": "Build", "importance": 2, "estimated_hours": 4},
			{"id": "loop1", "title": "L1", "importance": 5, "estimated_hours": 1, "dependencies": ["loop2"]},
			{"id": "loop2", "title": "L2", "importance": 5, "estimated_hours": 1, "dependencies": ["loop1"]}
		]`),
		Strategy: "high_impact",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StrategyHighImpact, result.Strategy)
	assert.Len(t, result.Ranked, 4)
	assert.Equal(t, []string{"build", "ship"}, result.Plan.Order)
	assert.ElementsMatch(t, []string{"loop1", "loop2"}, result.Plan.Unschedulable)
}

func TestListStrategiesHandler(t *testing.T) {
	dtos := NewListStrategiesHandler().Handle(context.Background())

	require.Len(t, dtos, 4)
	assert.Equal(t, "smart_balance", dtos[0].Name)
	assert.True(t, dtos[0].Default)
	for _, dto := range dtos[1:] {
		assert.False(t, dto.Default)
		assert.NotEmpty(t, dto.Description)
	}
	assert.Equal(t, domain.Weights{QuickWin: 1}, dtos[1].Weights)
}
