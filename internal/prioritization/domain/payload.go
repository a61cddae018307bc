package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Validation messages returned to clients, keyed by field.
const (
	msgTitleRequired      = "Title is required and must be a string."
	msgHoursRequired      = "Estimated hours is required."
	msgHoursNotNumber     = "Estimated hours must be a number."
	msgHoursNegative      = "Estimated hours must be >= 0."
	msgImportanceRequired = "Importance is required."
	msgImportanceNotInt   = "Importance must be an integer."
	msgImportanceRange    = "Importance must be between 1 and 10."
	msgDueDateNotString   = "Due date must be a string (YYYY-MM-DD)."
	msgDepsNotList        = "Dependencies must be a list."
	msgTaskNotObject      = "Task must be a JSON object."
)

// TaskPayload is the loosely typed wire form of a task, as decoded from JSON.
type TaskPayload struct {
	ID             any `json:"id,omitempty"`
	Title          any `json:"title"`
	DueDate        any `json:"due_date,omitempty"`
	Importance     any `json:"importance"`
	EstimatedHours any `json:"estimated_hours"`
	Dependencies   any `json:"dependencies,omitempty"`
}

// PayloadFromTask builds the wire form of an already typed task.
func PayloadFromTask(t Task) TaskPayload {
	p := TaskPayload{
		Title:          t.Title,
		Importance:     float64(t.Importance),
		EstimatedHours: t.EstimatedHours,
	}
	if t.ID != "" {
		p.ID = t.ID
	}
	if t.DueDate != "" {
		p.DueDate = t.DueDate
	}
	if len(t.Dependencies) > 0 {
		deps := make([]any, len(t.Dependencies))
		for i, d := range t.Dependencies {
			deps[i] = d
		}
		p.Dependencies = deps
	}
	return p
}

// DecodeTaskList decodes a JSON array of task objects.
func DecodeTaskList(raw json.RawMessage) ([]TaskPayload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrTasksNotList
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	payloads := make([]TaskPayload, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, &ValidationError{Index: i, Fields: FieldErrors{"task": msgTaskNotObject}}
		}
		if err := json.Unmarshal(item, &payloads[i]); err != nil {
			return nil, &ValidationError{Index: i, Fields: FieldErrors{"task": msgTaskNotObject}}
		}
	}
	return payloads, nil
}

// Validate checks the payload and returns the rejected fields, or nil.
func (p TaskPayload) Validate() FieldErrors {
	errs := FieldErrors{}

	if title, ok := p.Title.(string); !ok || title == "" {
		errs["title"] = msgTitleRequired
	}

	if p.EstimatedHours == nil {
		errs["estimated_hours"] = msgHoursRequired
	} else if hours, ok := toFloat(p.EstimatedHours); !ok {
		errs["estimated_hours"] = msgHoursNotNumber
	} else if hours < 0 {
		errs["estimated_hours"] = msgHoursNegative
	}

	if p.Importance == nil {
		errs["importance"] = msgImportanceRequired
	} else if importance, ok := toInt(p.Importance); !ok {
		errs["importance"] = msgImportanceNotInt
	} else if importance < MinImportance || importance > MaxImportance {
		errs["importance"] = msgImportanceRange
	}

	if truthy(p.DueDate) {
		if _, ok := p.DueDate.(string); !ok {
			errs["due_date"] = msgDueDateNotString
		}
	}

	if truthy(p.Dependencies) {
		if _, ok := p.Dependencies.([]any); !ok {
			errs["dependencies"] = msgDepsNotList
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ToTask converts the payload into a typed Task. Values that cannot be
// coerced fall back to their zero value; the scorer clamps them later.
func (p TaskPayload) ToTask() Task {
	t := Task{}
	if p.ID != nil {
		t.ID = coerceID(p.ID)
	}
	if title, ok := p.Title.(string); ok {
		t.Title = title
	}
	if due, ok := p.DueDate.(string); ok {
		t.DueDate = due
	}
	if importance, ok := toInt(p.Importance); ok {
		t.Importance = importance
	}
	if hours, ok := toFloat(p.EstimatedHours); ok {
		t.EstimatedHours = hours
	}
	if deps, ok := p.Dependencies.([]any); ok {
		t.Dependencies = make([]string, 0, len(deps))
		for _, d := range deps {
			if d == nil {
				continue
			}
			t.Dependencies = append(t.Dependencies, coerceID(d))
		}
	}
	return t
}

// ValidateBatch validates every payload and converts the batch.
// The first failing task rejects the whole batch.
func ValidateBatch(payloads []TaskPayload) ([]Task, error) {
	tasks := make([]Task, len(payloads))
	for i, p := range payloads {
		if errs := p.Validate(); errs != nil {
			return nil, &ValidationError{Index: i, Fields: errs}
		}
		tasks[i] = p.ToTask()
	}
	return tasks, nil
}

func coerceID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	case bool:
		return strconv.FormatBool(id)
	default:
		return fmt.Sprint(id)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int(f), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}

// truthy mirrors the loose presence checks clients expect: null, false,
// zero, empty strings and empty collections all count as absent.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}
