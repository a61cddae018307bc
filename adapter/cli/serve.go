package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/taskrank/adapter/api"
	mcplocal "github.com/felixgeelhaar/taskrank/adapter/mcp"
	internalApp "github.com/felixgeelhaar/taskrank/internal/app"
	mcpserver "github.com/felixgeelhaar/taskrank/internal/mcp"
	"github.com/felixgeelhaar/taskrank/pkg/config"
	"github.com/felixgeelhaar/taskrank/pkg/observability"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddr string
	serveMCP  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the ranking HTTP API and, when MCP is enabled, the MCP server.

Redis and RabbitMQ are used when REDIS_URL and RABBITMQ_URL are set.

Examples:
  taskrank serve
  taskrank serve --addr :9000
  taskrank serve --mcp`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.HTTPAddr = serveAddr
		}
		if serveMCP {
			cfg.MCPEnabled = true
		}

		serveLogger := NewLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		container, err := internalApp.NewContainer(ctx, cfg, serveLogger)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer container.Close()

		return runServers(ctx, cfg, container, serveLogger)
	},
}

// runServers runs the API server and the optional MCP server until ctx is
// canceled or one of them fails.
func runServers(ctx context.Context, cfg *config.Config, c *internalApp.Container, logger *slog.Logger) error {
	tasks := api.NewTasksHandler(api.TasksHandlerConfig{
		Analyze:    c.AnalyzeTasksHandler,
		Suggest:    c.SuggestTasksHandler,
		Plan:       c.PlanTasksHandler,
		Strategies: c.ListStrategiesHandler,
		Logger:     logger,
	})
	server := api.NewServer(api.ServerConfig{
		Addr:         cfg.HTTPAddr,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}, api.ServerDeps{
		Tasks:   tasks,
		Health:  c.Health,
		Metrics: c.Metrics,
		Logger:  logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.MCPEnabled {
		g.Go(func() error {
			err := mcpserver.Serve(gctx, cfg, mcplocal.ToolDependencies{
				Analyze:    c.AnalyzeTasksHandler,
				Suggest:    c.SuggestTasksHandler,
				Plan:       c.PlanTasksHandler,
				Strategies: c.ListStrategiesHandler,
			}, logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// LoadConfig loads the --config file when given and the environment otherwise.
func LoadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	return config.Load()
}

// NewLogger builds the process logger from cfg. --verbose forces debug output.
func NewLogger(cfg *config.Config) *slog.Logger {
	logCfg := observability.DefaultLogConfig()
	logCfg.Level = observability.LogLevel(cfg.LogLevel)
	logCfg.Format = observability.LogFormat(cfg.LogFormat)
	logCfg.Version = Version
	if verbose {
		logCfg.Level = observability.LogLevelDebug
	}
	return observability.NewLogger(logCfg)
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also run the MCP server (overrides MCP_ENABLED)")
	rootCmd.AddCommand(serveCmd)
}
