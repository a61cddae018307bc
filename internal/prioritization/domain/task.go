package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of due dates.
const DateLayout = "2006-01-02"

const (
	// DefaultTitle is used for tasks submitted without a title.
	DefaultTitle = "(no title)"

	MinImportance = 1
	MaxImportance = 10
)

// Task is a single unit of work submitted for ranking.
type Task struct {
	ID             string   `json:"id,omitempty"`
	Title          string   `json:"title"`
	DueDate        string   `json:"due_date,omitempty"`
	Importance     int      `json:"importance"`
	EstimatedHours float64  `json:"estimated_hours"`
	Dependencies   []string `json:"dependencies"`
}

// DueOn returns a copy of the task due on the calendar date of d.
func (t Task) DueOn(d time.Time) Task {
	t.DueDate = d.Format(DateLayout)
	return t
}

// Key returns the identifier the task is known by inside its batch.
// Tasks without an id get a positional fallback.
func (t Task) Key(index int) string {
	if t.ID != "" {
		return t.ID
	}
	return FallbackID(index)
}

// FallbackID synthesizes the identifier of an unidentified task.
func FallbackID(index int) string {
	return fmt.Sprintf("task_%d", index)
}

// dueDatePattern accepts unpadded months and days ("2024-6-1") and a
// space-padded day ("2024-06- 1"). Surrounding whitespace is rejected.
var dueDatePattern = regexp.MustCompile(`^(\d{4})-(1[0-2]|0[1-9]|[1-9])-(3[01]|[12]\d|0[1-9]|[1-9]| [1-9])$`)

// Due parses the due date. Absent and malformed dates both report false.
func (t Task) Due() (time.Time, bool) {
	m := dueDatePattern.FindStringSubmatch(t.DueDate)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(strings.TrimSpace(m[3]))
	if year < 1 {
		return time.Time{}, false
	}

	due := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if due.Day() != day {
		// Rolled over, e.g. 2025-02-30.
		return time.Time{}, false
	}
	return due, true
}

// ClampedImportance returns the importance forced into [MinImportance, MaxImportance].
func (t Task) ClampedImportance() int {
	return min(max(t.Importance, MinImportance), MaxImportance)
}

// ClampedHours returns the estimated effort, never negative.
func (t Task) ClampedHours() float64 {
	return max(t.EstimatedHours, 0)
}

// DisplayTitle returns the title or the placeholder for untitled tasks.
func (t Task) DisplayTitle() string {
	if t.Title == "" {
		return DefaultTitle
	}
	return t.Title
}

// ScoreFactors is the normalized breakdown behind a score.
type ScoreFactors struct {
	ImportanceNorm float64 `json:"importance_norm"`
	Urgency        float64 `json:"urgency"`
	UrgencyNorm    float64 `json:"urgency_norm"`
	QuickWin       float64 `json:"quick_win"`
	DependencyNorm float64 `json:"dependency_norm"`
	Blocks         int     `json:"blocks"`
	InCycle        bool    `json:"in_cycle"`
}

// ScoredTask is a ranked copy of a Task. ID always holds the resolved identifier.
type ScoredTask struct {
	Task
	Score       float64      `json:"score"`
	Explanation string       `json:"explanation"`
	Factors     ScoreFactors `json:"factors"`
}
