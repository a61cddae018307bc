package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/taskrank/internal/prioritization/domain"
	"github.com/felixgeelhaar/taskrank/pkg/observability"
	"github.com/sony/gobreaker/v2"
)

// ErrCacheUnavailable is returned while the breaker rejects calls.
var ErrCacheUnavailable = errors.New("ranking cache unavailable")

// BreakerConfig configures the circuit breaker around a cache.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
}

// DefaultBreakerConfig returns the defaults used by the server.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}

// BreakerCache guards a cache with a circuit breaker so an unreachable
// backend is skipped instead of slowing every request. Misses count as
// successful calls.
type BreakerCache struct {
	next    domain.RankingCache
	breaker *gobreaker.CircuitBreaker[[]domain.ScoredTask]
}

// NewBreakerCache wraps next.
func NewBreakerCache(next domain.RankingCache, cfg BreakerConfig, logger *slog.Logger, metrics observability.Metrics) *BreakerCache {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}

	settings := gobreaker.Settings{
		Name:        "ranking-cache",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrCacheMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.Gauge(observability.MetricBreakerState, float64(to))
		},
	}

	return &BreakerCache{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[[]domain.ScoredTask](settings),
	}
}

// Get reads through the breaker.
func (c *BreakerCache) Get(ctx context.Context, key string) ([]domain.ScoredTask, error) {
	ranked, err := c.breaker.Execute(func() ([]domain.ScoredTask, error) {
		return c.next.Get(ctx, key)
	})
	return ranked, translateBreakerError(err)
}

// Set writes through the breaker.
func (c *BreakerCache) Set(ctx context.Context, key string, ranked []domain.ScoredTask) error {
	_, err := c.breaker.Execute(func() ([]domain.ScoredTask, error) {
		return nil, c.next.Set(ctx, key, ranked)
	})
	return translateBreakerError(err)
}

// State returns the current breaker state.
func (c *BreakerCache) State() gobreaker.State {
	return c.breaker.State()
}

// Ping reports the breaker as a health error while it is open.
func (c *BreakerCache) Ping(context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return ErrCacheUnavailable
	}
	return nil
}

func translateBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}
	return err
}
