package mcp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/taskrank/internal/prioritization/domain"
)

func parseDate(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return parsed, nil
}

// decode converts the tool arguments into task payloads and an evaluation
// date. A zero date leaves the choice to the handler's clock.
func (in batchInput) decode() ([]domain.TaskPayload, time.Time, error) {
	today, err := parseDate(in.Today, time.Time{})
	if err != nil {
		return nil, time.Time{}, err
	}

	raw, err := json.Marshal(in.Tasks)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("encode tasks: %w", err)
	}
	if in.Tasks == nil {
		raw = []byte("[]")
	}

	payloads, err := domain.DecodeTaskList(raw)
	if err != nil {
		return nil, time.Time{}, err
	}
	return payloads, today, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
