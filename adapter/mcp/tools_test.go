package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/queries"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/domain"
	"github.com/felixgeelhaar/taskrank/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalyzeHandler() *commands.AnalyzeTasksHandler {
	return commands.NewAnalyzeTasksHandler(commands.AnalyzeTasksHandlerConfig{
		Logger: observability.NewDiscardLogger(),
		Now:    func() time.Time { return time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC) },
	})
}

var sampleTasks = []map[string]any{
	{"id": "a", "title": "Write report", "importance": 8, "estimated_hours": 3, "due_date": "2025-06-14"},
	{"id": "b", "title": "Reply to email", "importance": 3, "estimated_hours": 0.5},
	{"id": "c", "title": "Refactor", "importance": 6, "estimated_hours": 6, "dependencies": []any{"a"}},
	{"id": "d", "title": "Review", "importance": 5, "estimated_hours": 1, "dependencies": []any{"d"}},
}

func TestRegisterTools_ListTools(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools: true,
		},
	})

	require.NoError(t, RegisterTools(srv, ToolDependencies{Analyze: newAnalyzeHandler()}))

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	names := make([]any, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool["name"])
	}
	assert.ElementsMatch(t, []any{"tasks.analyze", "tasks.suggest", "tasks.plan", "strategies.list"}, names)
}

func TestRegisterTools_RequiresDependencies(t *testing.T) {
	assert.Error(t, RegisterTools(nil, ToolDependencies{Analyze: newAnalyzeHandler()}))

	srv := mcp.NewServer(mcp.ServerInfo{Name: "test", Version: "1.0.0"})
	assert.Error(t, RegisterTools(srv, ToolDependencies{}))
}

func TestToolHandlers(t *testing.T) {
	ctx := context.Background()
	tools := newToolHandlers(ToolDependencies{Analyze: newAnalyzeHandler()})

	t.Run("analyze", func(t *testing.T) {
		out, err := tools.analyze(ctx, batchInput{Tasks: sampleTasks, Strategy: "deadline_driven"})
		require.NoError(t, err)

		assert.Equal(t, domain.StrategyDeadlineDriven, out.Strategy)
		assert.Equal(t, "2025-06-15", out.EvaluatedOn)
		require.Len(t, out.Tasks, 4)
		assert.Equal(t, "a", out.Tasks[0].ID)
		assert.Equal(t, []string{"d"}, out.CycleIDs)
		assert.NotEmpty(t, out.AnalysisID)
	})

	t.Run("analyze with explicit date", func(t *testing.T) {
		out, err := tools.analyze(ctx, batchInput{Tasks: sampleTasks, Today: "2025-01-01"})
		require.NoError(t, err)
		assert.Equal(t, "2025-01-01", out.EvaluatedOn)
	})

	t.Run("analyze rejects bad input", func(t *testing.T) {
		_, err := tools.analyze(ctx, batchInput{Tasks: sampleTasks, Strategy: "nope"})
		assert.ErrorIs(t, err, domain.ErrUnknownStrategy)

		_, err = tools.analyze(ctx, batchInput{Tasks: sampleTasks, Today: "15/06/2025"})
		assert.Error(t, err)

		_, err = tools.analyze(ctx, batchInput{Tasks: []map[string]any{{"title": "x"}}})
		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Contains(t, validation.Fields, "importance")
	})

	t.Run("analyze empty batch", func(t *testing.T) {
		out, err := tools.analyze(ctx, batchInput{})
		require.NoError(t, err)
		assert.Empty(t, out.Tasks)
		assert.NotNil(t, out.CycleIDs)
	})

	t.Run("suggest", func(t *testing.T) {
		out, err := tools.suggest(ctx, suggestInput{Tasks: sampleTasks, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, out.Suggestions, 2)
		assert.Equal(t, 4, out.Total)
		assert.Equal(t, domain.StrategySmartBalance, out.Strategy)
	})

	t.Run("plan", func(t *testing.T) {
		out, err := tools.plan(ctx, batchInput{Tasks: sampleTasks})
		require.NoError(t, err)
		assert.Equal(t, []string{"d"}, out.Unschedulable)
		assert.Len(t, out.Order, 3)
		assert.Less(t, indexOf(out.Order, "a"), indexOf(out.Order, "c"))
	})

	t.Run("strategies", func(t *testing.T) {
		out, err := tools.strategies(ctx, emptyInput{})
		require.NoError(t, err)
		assert.Len(t, out, 4)
	})
}

func TestRegisterResourcesAndPrompts(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Resources: true,
			Prompts:   true,
		},
	})
	deps := ToolDependencies{Analyze: newAnalyzeHandler()}

	require.NoError(t, RegisterResources(srv, deps))
	require.NoError(t, RegisterPrompts(srv, deps))
	assert.Error(t, RegisterResources(nil, deps))
	assert.Error(t, RegisterPrompts(nil, deps))
}

func TestStrategiesContent(t *testing.T) {
	content, err := strategiesContent(context.Background(), queries.NewListStrategiesHandler(), StrategiesURI)
	require.NoError(t, err)

	assert.Equal(t, StrategiesURI, content.URI)
	assert.Equal(t, "application/json", content.MimeType)
	assert.Contains(t, content.Text, `"smart_balance"`)
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
