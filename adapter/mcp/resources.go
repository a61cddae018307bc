package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/queries"
)

// StrategiesURI is the resource listing the ranking strategies.
const StrategiesURI = "taskrank://strategies"

// RegisterResources registers MCP resources that describe the ranking model.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	strategies := deps.Strategies
	if strategies == nil {
		strategies = queries.NewListStrategiesHandler()
	}

	srv.Resource(StrategiesURI).
		Name("Strategies").
		Description("Ranking strategies with their factor weights").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return strategiesContent(ctx, strategies, uri)
		})

	return nil
}

func strategiesContent(ctx context.Context, strategies *queries.ListStrategiesHandler, uri string) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(strategies.Handle(ctx), "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
