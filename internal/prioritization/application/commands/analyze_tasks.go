package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/services"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/domain"
	shared "github.com/felixgeelhaar/taskrank/internal/shared/domain"
	"github.com/felixgeelhaar/taskrank/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskrank/pkg/observability"
	"github.com/google/uuid"
)

// AnalyzeTasksCommand contains a batch to rank.
type AnalyzeTasksCommand struct {
	Tasks []domain.TaskPayload
	// Strategy is a strategy name; empty selects the default.
	Strategy string
	// Today overrides the evaluation date. Zero means the handler's clock.
	Today time.Time
}

// AnalyzeTasksResult is a ranked batch.
type AnalyzeTasksResult struct {
	AnalysisID  uuid.UUID
	Strategy    domain.Strategy
	EvaluatedOn string
	// Ranked holds every task, highest score first.
	Ranked []domain.ScoredTask
	// Tasks is the validated input in batch order.
	Tasks    []domain.Task
	CycleIDs []string
	Cached   bool
}

// AnalyzeTasksHandlerConfig wires optional collaborators. Nil fields fall
// back to no-op implementations.
type AnalyzeTasksHandlerConfig struct {
	Cache     domain.RankingCache
	Publisher eventbus.Publisher
	Metrics   observability.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
	// MaxTasks bounds the batch size. Zero disables the bound.
	MaxTasks int
}

// AnalyzeTasksHandler validates and ranks task batches.
type AnalyzeTasksHandler struct {
	cache     domain.RankingCache
	publisher eventbus.Publisher
	metrics   observability.Metrics
	logger    *slog.Logger
	now       func() time.Time
	maxTasks  int
}

// NewAnalyzeTasksHandler creates a new AnalyzeTasksHandler.
func NewAnalyzeTasksHandler(cfg AnalyzeTasksHandlerConfig) *AnalyzeTasksHandler {
	h := &AnalyzeTasksHandler{
		cache:     cfg.Cache,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       cfg.Now,
		maxTasks:  cfg.MaxTasks,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.cache == nil {
		h.cache = noopCache{}
	}
	if h.publisher == nil {
		h.publisher = eventbus.NewNoopPublisher(h.logger)
	}
	if h.metrics == nil {
		h.metrics = observability.NoopMetrics{}
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Handle executes the AnalyzeTasksCommand. The batch is rejected as a whole
// if the strategy is unknown, the batch is too large or any task is invalid.
func (h *AnalyzeTasksHandler) Handle(ctx context.Context, cmd AnalyzeTasksCommand) (*AnalyzeTasksResult, error) {
	strategy, err := domain.ParseStrategy(cmd.Strategy)
	if err != nil {
		h.metrics.Counter(observability.MetricRejected, 1, observability.T("reason", "strategy"))
		return nil, fmt.Errorf("%w: %q", err, cmd.Strategy)
	}

	if h.maxTasks > 0 && len(cmd.Tasks) > h.maxTasks {
		h.metrics.Counter(observability.MetricRejected, 1, observability.T("reason", "size"))
		return nil, fmt.Errorf("%w: %d tasks exceed the limit of %d", domain.ErrBatchTooLarge, len(cmd.Tasks), h.maxTasks)
	}

	tasks, err := domain.ValidateBatch(cmd.Tasks)
	if err != nil {
		h.metrics.Counter(observability.MetricRejected, 1, observability.T("reason", "validation"))
		return nil, err
	}

	today := cmd.Today
	if today.IsZero() {
		today = h.now()
	}

	timer := observability.StartTimer("tasks.analyze").
		WithLogger(h.logger).
		WithMetrics(h.metrics).
		WithTags(observability.T("strategy", strategy.String()))

	key := domain.RankingKey(strategy, today, tasks)
	ranked, cached := h.lookup(ctx, key)
	if !cached {
		ranked = services.ComputeScores(tasks, strategy, today)
		h.store(ctx, key, ranked)
	}

	result := &AnalyzeTasksResult{
		AnalysisID:  uuid.New(),
		Strategy:    strategy,
		EvaluatedOn: today.Format(domain.DateLayout),
		Ranked:      ranked,
		Tasks:       tasks,
		CycleIDs:    cycleIDs(ranked),
		Cached:      cached,
	}

	h.publish(ctx, result)
	h.record(result)
	timer.Stop(ctx)

	h.logger.InfoContext(ctx, "tasks analyzed",
		"analysis_id", result.AnalysisID,
		"strategy", strategy,
		"tasks", len(ranked),
		"cycles", len(result.CycleIDs),
		"cached", cached,
	)

	return result, nil
}

func (h *AnalyzeTasksHandler) lookup(ctx context.Context, key string) ([]domain.ScoredTask, bool) {
	ranked, err := h.cache.Get(ctx, key)
	switch {
	case err == nil:
		h.metrics.Counter(observability.MetricCacheHits, 1)
		return ranked, true
	case errors.Is(err, domain.ErrCacheMiss):
		h.metrics.Counter(observability.MetricCacheMisses, 1)
	default:
		h.metrics.Counter(observability.MetricCacheErrors, 1, observability.T("op", "get"))
		h.logger.WarnContext(ctx, "ranking cache lookup failed", "error", err)
	}
	return nil, false
}

func (h *AnalyzeTasksHandler) store(ctx context.Context, key string, ranked []domain.ScoredTask) {
	if err := h.cache.Set(ctx, key, ranked); err != nil {
		h.metrics.Counter(observability.MetricCacheErrors, 1, observability.T("op", "set"))
		h.logger.WarnContext(ctx, "ranking cache store failed", "error", err)
	}
}

func (h *AnalyzeTasksHandler) publish(ctx context.Context, result *AnalyzeTasksResult) {
	event := domain.TasksAnalyzed{
		EventMetadata: shared.NewEventMetadata(
			domain.RoutingKeyTasksAnalyzed,
			observability.CorrelationIDFromContext(ctx),
			h.now(),
		),
		AnalysisID:  result.AnalysisID,
		Strategy:    result.Strategy,
		EvaluatedOn: result.EvaluatedOn,
		TaskCount:   len(result.Ranked),
		CycleIDs:    result.CycleIDs,
		Cached:      result.Cached,
	}
	if len(result.Ranked) > 0 {
		event.TopTaskID = result.Ranked[0].ID
		event.TopScore = result.Ranked[0].Score
	}

	if err := eventbus.PublishJSON(ctx, h.publisher, domain.RoutingKeyTasksAnalyzed, event); err != nil {
		h.metrics.Counter(observability.MetricEventsFailed, 1)
		h.logger.WarnContext(ctx, "failed to publish analysis event",
			"analysis_id", result.AnalysisID,
			"error", err,
		)
		return
	}
	h.metrics.Counter(observability.MetricEventsPublish, 1)
}

func (h *AnalyzeTasksHandler) record(result *AnalyzeTasksResult) {
	strategy := observability.T("strategy", result.Strategy.String())
	h.metrics.Counter(observability.MetricAnalyses, 1, strategy)
	h.metrics.Counter(observability.MetricTasksScored, int64(len(result.Ranked)))
	h.metrics.Counter(observability.MetricCycleTasks, int64(len(result.CycleIDs)))
	h.metrics.Histogram(observability.MetricBatchSize, float64(len(result.Ranked)))
}

func cycleIDs(ranked []domain.ScoredTask) []string {
	ids := []string{}
	for _, st := range ranked {
		if st.Factors.InCycle {
			ids = append(ids, st.ID)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]domain.ScoredTask, error) {
	return nil, domain.ErrCacheMiss
}

func (noopCache) Set(context.Context, string, []domain.ScoredTask) error { return nil }
