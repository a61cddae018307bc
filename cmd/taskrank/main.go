package main

import (
	"log/slog"

	"github.com/felixgeelhaar/taskrank/adapter/cli"
	"github.com/felixgeelhaar/taskrank/internal/app"
	"github.com/felixgeelhaar/taskrank/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	logger := cli.NewLogger(cfg)
	slog.SetDefault(logger)
	cli.SetLogger(logger)

	// Offline commands rank with an in-process container; serve builds its own.
	container := app.NewLocalContainer(cfg, logger)
	defer container.Close()
	cli.SetApp(cli.NewApp(container))

	cli.Execute()
}
