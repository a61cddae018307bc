// Package app wires the taskrank components together.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/queries"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/domain"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/infrastructure/cache"
	"github.com/felixgeelhaar/taskrank/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskrank/pkg/config"
	"github.com/felixgeelhaar/taskrank/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Redis, nil when the ranking cache is disabled
	RedisClient  *redis.Client
	RankingCache domain.RankingCache

	EventPublisher eventbus.Publisher

	// Command Handlers
	AnalyzeTasksHandler *commands.AnalyzeTasksHandler

	// Query Handlers
	SuggestTasksHandler   *queries.SuggestTasksHandler
	PlanTasksHandler      *queries.PlanTasksHandler
	ListStrategiesHandler *queries.ListStrategiesHandler
}

// NewContainer creates a container and connects the configured backends.
// In development an unreachable backend is skipped with a warning; in
// production it fails the startup.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := newContainer(cfg, logger)

	if cfg.CacheEnabled() {
		if err := c.connectRedis(ctx); err != nil {
			if !cfg.IsDevelopment() {
				c.Close()
				return nil, err
			}
			logger.Warn("Redis not available, rankings will not be cached", "error", err)
		}
	}

	if cfg.EventsEnabled() {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				c.Close()
				return nil, err
			}
			logger.Warn("RabbitMQ not available, using in-process event bus", "error", err)
		} else {
			c.EventPublisher = publisher
			c.Health.Register("rabbitmq", observability.DependencyHealthChecker("rabbitmq", observability.HealthStatusDegraded, publisher.Ping))
			logger.Info("connected to RabbitMQ", "exchange", eventbus.ExchangeName)
		}
	}

	c.wireHandlers()
	return c, nil
}

// NewLocalContainer creates a container that uses no external services.
func NewLocalContainer(cfg *config.Config, logger *slog.Logger) *Container {
	c := newContainer(cfg, logger)
	c.wireHandlers()
	return c
}

func newContainer(cfg *config.Config, logger *slog.Logger) *Container {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	bus := eventbus.NewInProcessBus(logger)
	bus.Subscribe("taskrank.#", func(ctx context.Context, routingKey string, payload []byte) error {
		logger.DebugContext(ctx, "event published", "routing_key", routingKey, "payload", string(payload))
		return nil
	})

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Metrics:        observability.NewInMemoryMetrics(),
		Health:         observability.NewHealthRegistry(),
		RankingCache:   cache.NoopCache{},
		EventPublisher: bus,
	}
}

func (c *Container) connectRedis(ctx context.Context) error {
	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	redisCache := cache.NewRedisCache(client, c.Config.CacheTTL)
	c.RedisClient = client
	c.RankingCache = cache.NewBreakerCache(redisCache, cache.BreakerConfig{
		FailureThreshold: c.Config.CacheBreakerFailures,
		Timeout:          c.Config.CacheBreakerTimeout,
	}, c.Logger, c.Metrics)
	c.Health.Register("redis", observability.DependencyHealthChecker("redis", observability.HealthStatusDegraded, redisCache.Ping))

	c.Logger.Info("connected to Redis", "ttl", c.Config.CacheTTL)
	return nil
}

func (c *Container) wireHandlers() {
	c.AnalyzeTasksHandler = commands.NewAnalyzeTasksHandler(commands.AnalyzeTasksHandlerConfig{
		Cache:     c.RankingCache,
		Publisher: c.EventPublisher,
		Metrics:   c.Metrics,
		Logger:    c.Logger,
		MaxTasks:  c.Config.MaxTasks,
	})
	c.SuggestTasksHandler = queries.NewSuggestTasksHandler(c.AnalyzeTasksHandler, c.Config.SuggestLimit)
	c.PlanTasksHandler = queries.NewPlanTasksHandler(c.AnalyzeTasksHandler)
	c.ListStrategiesHandler = queries.NewListStrategiesHandler()
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}
}
