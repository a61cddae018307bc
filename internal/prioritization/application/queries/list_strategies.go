package queries

import (
	"context"

	"github.com/felixgeelhaar/taskrank/internal/prioritization/domain"
)

// StrategyDTO describes a ranking strategy.
type StrategyDTO struct {
	Name        string         `json:"name"`
	Default     bool           `json:"default"`
	Description string         `json:"description"`
	Weights     domain.Weights `json:"weights"`
}

// ListStrategiesHandler lists the supported strategies.
type ListStrategiesHandler struct{}

// NewListStrategiesHandler creates a new ListStrategiesHandler.
func NewListStrategiesHandler() *ListStrategiesHandler {
	return &ListStrategiesHandler{}
}

// Handle returns every strategy, default first.
func (h *ListStrategiesHandler) Handle(_ context.Context) []StrategyDTO {
	all := domain.AllStrategies()
	dtos := make([]StrategyDTO, 0, len(all))
	for _, s := range all {
		dtos = append(dtos, StrategyDTO{
			Name:        s.String(),
			Default:     s == domain.DefaultStrategy,
			Description: s.Lead(),
			Weights:     s.Weights(),
		})
	}
	return dtos
}
