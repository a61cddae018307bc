package domain

import (
	shared "github.com/felixgeelhaar/taskrank/internal/shared/domain"
	"github.com/google/uuid"
)

// RoutingKeyTasksAnalyzed is published after every completed analysis.
const RoutingKeyTasksAnalyzed = "taskrank.tasks.analyzed"

// TasksAnalyzed summarizes one ranking run.
type TasksAnalyzed struct {
	shared.EventMetadata
	AnalysisID  uuid.UUID `json:"analysis_id"`
	Strategy    Strategy  `json:"strategy"`
	EvaluatedOn string    `json:"evaluated_on"`
	TaskCount   int       `json:"task_count"`
	CycleIDs    []string  `json:"cycle_ids"`
	TopTaskID   string    `json:"top_task_id,omitempty"`
	TopScore    float64   `json:"top_score,omitempty"`
	Cached      bool      `json:"cached"`
}
