package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/queries"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/domain"
)

// DefaultMaxBodyBytes bounds request bodies of the batch endpoints.
const DefaultMaxBodyBytes = 4 << 20

const (
	// AnalysisIDHeader carries the identifier of the analysis behind a ranking.
	AnalysisIDHeader = "X-Analysis-Id"
	// CacheHeader reports whether a ranking was served from the cache.
	CacheHeader = "X-Cache"
)

// TasksHandler handles the ranking API requests.
type TasksHandler struct {
	analyze      *commands.AnalyzeTasksHandler
	suggest      *queries.SuggestTasksHandler
	plan         *queries.PlanTasksHandler
	strategies   *queries.ListStrategiesHandler
	maxBodyBytes int64
	logger       *slog.Logger
}

// TasksHandlerConfig holds dependencies for the tasks handler.
type TasksHandlerConfig struct {
	Analyze    *commands.AnalyzeTasksHandler
	Suggest    *queries.SuggestTasksHandler
	Plan       *queries.PlanTasksHandler
	Strategies *queries.ListStrategiesHandler
	// MaxBodyBytes defaults to DefaultMaxBodyBytes when zero.
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// NewTasksHandler creates a new tasks handler.
func NewTasksHandler(cfg TasksHandlerConfig) *TasksHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Strategies == nil {
		cfg.Strategies = queries.NewListStrategiesHandler()
	}
	return &TasksHandler{
		analyze:      cfg.Analyze,
		suggest:      cfg.Suggest,
		plan:         cfg.Plan,
		strategies:   cfg.Strategies,
		maxBodyBytes: cfg.MaxBodyBytes,
		logger:       cfg.Logger,
	}
}

// batchRequest is a decoded analyze or plan body.
type batchRequest struct {
	tasks    []domain.TaskPayload
	strategy string
}

// Analyze handles POST /api/tasks/analyze/
func (h *TasksHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readBatch(w, r)
	if !ok {
		return
	}

	result, err := h.analyze.Handle(r.Context(), commands.AnalyzeTasksCommand{
		Tasks:    req.tasks,
		Strategy: req.strategy,
	})
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	w.Header().Set(AnalysisIDHeader, result.AnalysisID.String())
	if result.Cached {
		w.Header().Set(CacheHeader, "HIT")
	} else {
		w.Header().Set(CacheHeader, "MISS")
	}
	writeJSON(w, http.StatusOK, result.Ranked)
}

// Suggest handles GET /api/tasks/suggest/?strategy=...&tasks=...
func (h *TasksHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	raw := params.Get("tasks")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Missing 'tasks' query parameter")
		return
	}

	strategy := params.Get("strategy")
	if params.Has("strategy") && !domain.Strategy(strategy).IsValid() {
		writeError(w, http.StatusBadRequest, "Invalid strategy")
		return
	}

	// Clients sometimes encode the value twice.
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	if !json.Valid([]byte(decoded)) {
		writeError(w, http.StatusBadRequest, "Invalid tasks JSON")
		return
	}

	payloads, err := domain.DecodeTaskList(json.RawMessage(decoded))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	result, err := h.suggest.Handle(r.Context(), queries.SuggestTasksQuery{
		Tasks:    payloads,
		Strategy: strategy,
		Limit:    parseIntParam(r, "limit", 0),
	})
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result.Suggestions)
}

type planResponse struct {
	Strategy      domain.Strategy     `json:"strategy"`
	EvaluatedOn   string              `json:"evaluated_on"`
	Order         []string            `json:"order"`
	Unschedulable []string            `json:"unschedulable"`
	Tasks         []domain.ScoredTask `json:"tasks"`
}

// Plan handles POST /api/tasks/plan/
func (h *TasksHandler) Plan(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readBatch(w, r)
	if !ok {
		return
	}

	result, err := h.plan.Handle(r.Context(), queries.PlanTasksQuery{
		Tasks:    req.tasks,
		Strategy: req.strategy,
	})
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, planResponse{
		Strategy:      result.Strategy,
		EvaluatedOn:   result.EvaluatedOn,
		Order:         result.Plan.Order,
		Unschedulable: result.Plan.Unschedulable,
		Tasks:         result.Ranked,
	})
}

// ListStrategies handles GET /api/strategies/
func (h *TasksHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.strategies.Handle(r.Context()))
}

// readBatch decodes a {"tasks": [...], "strategy": "..."} body. A missing
// tasks key is an empty batch and a missing strategy selects the default.
// It writes the error response itself and reports false on failure.
func (h *TasksHandler) readBatch(w http.ResponseWriter, r *http.Request) (batchRequest, bool) {
	var req batchRequest

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return req, false
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return req, false
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return req, false
	}

	if raw, ok := body["tasks"]; ok {
		req.tasks, err = domain.DecodeTaskList(raw)
		if err != nil {
			h.writeFailure(w, r, err)
			return req, false
		}
	}

	if raw, ok := body["strategy"]; ok {
		if err := json.Unmarshal(raw, &req.strategy); err != nil || !domain.Strategy(req.strategy).IsValid() {
			writeError(w, http.StatusBadRequest, "Invalid strategy")
			return req, false
		}
	}

	return req, true
}

// writeFailure maps application errors to API errors.
func (h *TasksHandler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		index := validation.Index
		writeAPIError(w, &APIError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Task %d is invalid", validation.Index),
			Index:   &index,
			Fields:  validation.Fields,
		})
	case errors.Is(err, domain.ErrUnknownStrategy):
		writeError(w, http.StatusBadRequest, "Invalid strategy")
	case errors.Is(err, domain.ErrTasksNotList):
		writeError(w, http.StatusBadRequest, "Tasks must be a list")
	case errors.Is(err, domain.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, "Invalid tasks JSON")
	case errors.Is(err, domain.ErrBatchTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "task request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func parseIntParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
