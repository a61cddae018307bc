// Package mcp runs the Model Context Protocol server.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"
	mcplocal "github.com/felixgeelhaar/taskrank/adapter/mcp"
	"github.com/felixgeelhaar/taskrank/pkg/config"
)

const (
	// ServerName identifies the server to MCP clients.
	ServerName = "taskrank-mcp"
	// ServerVersion is reported during initialization.
	ServerVersion = "1.0.0"
)

// NewServer builds an MCP server with the ranking tools, the strategies
// resource and the ranking prompts registered.
func NewServer(deps mcplocal.ToolDependencies) (*mcpgo.Server, error) {
	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:    ServerName,
		Version: ServerVersion,
		Capabilities: mcpgo.Capabilities{
			Tools:     true,
			Resources: true,
			Prompts:   true,
		},
	})

	steps := []struct {
		name     string
		register func(*mcpgo.Server, mcplocal.ToolDependencies) error
	}{
		{"tools", mcplocal.RegisterTools},
		{"resources", mcplocal.RegisterResources},
		{"prompts", mcplocal.RegisterPrompts},
	}
	for _, step := range steps {
		if err := step.register(srv, deps); err != nil {
			return nil, fmt.Errorf("register %s: %w", step.name, err)
		}
	}
	return srv, nil
}

// Serve runs the server on cfg.MCPAddr until ctx is canceled.
func Serve(ctx context.Context, cfg *config.Config, deps mcplocal.ToolDependencies, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := NewServer(deps)
	if err != nil {
		return err
	}

	if cfg.MCPAuthToken == "" {
		logger.Warn("mcp auth token not set, accepting unauthenticated requests", "addr", cfg.MCPAddr)
	}

	logger.Info("mcp server listening", "addr", cfg.MCPAddr)
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil,
		mcpgo.WithMiddleware(requestStack(cfg.MCPAuthToken, slogFields{logger: logger})...))
}

// requestStack returns the default middleware, preceded by bearer
// authentication when a token is configured.
func requestStack(token string, log slogFields) []middleware.Middleware {
	stack := middleware.DefaultStack(log)
	if token == "" {
		return stack
	}

	tokens := middleware.StaticTokens(map[string]*middleware.Identity{
		token: {ID: "taskrank", Name: "taskrank"},
	})
	auth := middleware.Auth(middleware.BearerTokenAuthenticator(tokens), middleware.WithAuthLogger(log))
	return append([]middleware.Middleware{auth}, stack...)
}

// slogFields forwards middleware log lines to slog.
type slogFields struct {
	logger *slog.Logger
}

func (l slogFields) Debug(msg string, fields ...middleware.Field) { l.logger.Debug(msg, args(fields)...) }
func (l slogFields) Info(msg string, fields ...middleware.Field)  { l.logger.Info(msg, args(fields)...) }
func (l slogFields) Warn(msg string, fields ...middleware.Field)  { l.logger.Warn(msg, args(fields)...) }
func (l slogFields) Error(msg string, fields ...middleware.Field) { l.logger.Error(msg, args(fields)...) }

func args(fields []middleware.Field) []any {
	out := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}
