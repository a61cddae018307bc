package domain

import "strings"

// Strategy names a weighting formula for combining task signals.
type Strategy string

const (
	StrategySmartBalance   Strategy = "smart_balance"
	StrategyFastestWins    Strategy = "fastest_wins"
	StrategyHighImpact     Strategy = "high_impact"
	StrategyDeadlineDriven Strategy = "deadline_driven"
)

// DefaultStrategy is applied when a request names none.
const DefaultStrategy = StrategySmartBalance

// Weights are the coefficients a strategy applies to the normalized signals.
type Weights struct {
	Importance float64 `json:"importance" yaml:"importance"`
	Urgency    float64 `json:"urgency" yaml:"urgency"`
	QuickWin   float64 `json:"quick_win" yaml:"quick_win"`
	Dependency float64 `json:"dependency" yaml:"dependency"`
}

type strategyDefinition struct {
	weights Weights
	lead    string
}

var strategies = map[Strategy]strategyDefinition{
	StrategyFastestWins: {
		weights: Weights{QuickWin: 1},
		lead:    "Low effort / quick to complete is prioritized.",
	},
	StrategyHighImpact: {
		weights: Weights{Importance: 0.7, Urgency: 0.3},
		lead:    "High importance is heavily prioritized, with some urgency weight.",
	},
	StrategyDeadlineDriven: {
		weights: Weights{Urgency: 1},
		lead:    "Closer / overdue deadlines are prioritized.",
	},
	StrategySmartBalance: {
		weights: Weights{Importance: 0.4, Urgency: 0.3, QuickWin: 0.15, Dependency: 0.15},
		lead:    "Balanced importance, urgency, effort, and dependencies.",
	},
}

// AllStrategies returns the supported strategies, default first.
func AllStrategies() []Strategy {
	return []Strategy{
		StrategySmartBalance,
		StrategyFastestWins,
		StrategyHighImpact,
		StrategyDeadlineDriven,
	}
}

// ParseStrategy resolves a strategy name. An empty name yields the default.
func ParseStrategy(s string) (Strategy, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultStrategy, nil
	}
	strategy := Strategy(s)
	if !strategy.IsValid() {
		return DefaultStrategy, ErrUnknownStrategy
	}
	return strategy, nil
}

// IsValid reports whether the strategy is one of the supported names.
func (s Strategy) IsValid() bool {
	_, ok := strategies[s]
	return ok
}

// Resolve maps unknown strategies onto the default.
func (s Strategy) Resolve() Strategy {
	if s.IsValid() {
		return s
	}
	return DefaultStrategy
}

// Weights returns the strategy coefficients.
func (s Strategy) Weights() Weights {
	return strategies[s.Resolve()].weights
}

// Lead returns the opening sentence of explanations under this strategy.
func (s Strategy) Lead() string {
	return strategies[s.Resolve()].lead
}

func (s Strategy) String() string {
	return string(s)
}
