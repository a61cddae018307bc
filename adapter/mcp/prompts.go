package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common ranking workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("prioritize_tasks").
		Description("Pick the next tasks to work on from a list, choosing a strategy that fits the situation.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Task Prioritization", `Help me decide what to work on next. Please:

1. Read the available strategies from the `+StrategiesURI+` resource
2. Ask me which fits best if it is unclear: deadlines, quick wins or impact
3. Call tasks.suggest with my tasks and the chosen strategy

For each suggestion, explain the score in plain words using its explanation
and factors. Mention any task flagged with a circular dependency.`), nil
		})

	srv.Prompt("untangle_dependencies").
		Description("Find an execution order for dependent tasks and resolve dependency cycles.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Dependency Review", `Help me sequence my tasks. Please:

1. Call tasks.plan with my tasks
2. Present the order as a numbered list
3. For every unschedulable task, show the cycle it belongs to and suggest
   which dependency to drop to break it`), nil
		})

	return nil
}

func userPrompt(description, text string) *mcp.PromptResult {
	return &mcp.PromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: string(mcp.RoleUser),
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		},
	}
}
