package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRankingKey(t *testing.T) {
	day := time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC)
	tasks := []Task{
		{ID: "a", Title: "A", Importance: 5, EstimatedHours: 1},
		{ID: "b", Title: "B", Importance: 3, EstimatedHours: 2, Dependencies: []string{"a"}},
	}

	base := RankingKey(StrategySmartBalance, day, tasks)
	assert.Len(t, base, 64)

	assert.Equal(t, base, RankingKey(StrategySmartBalance, day.Add(10*time.Hour), tasks), "time of day is ignored")
	assert.Equal(t, base, RankingKey("unknown", day, tasks), "unknown strategies resolve to the default")

	assert.NotEqual(t, base, RankingKey(StrategyHighImpact, day, tasks))
	assert.NotEqual(t, base, RankingKey(StrategySmartBalance, day.AddDate(0, 0, 1), tasks))
	assert.NotEqual(t, base, RankingKey(StrategySmartBalance, day, []Task{tasks[1], tasks[0]}))
	assert.NotEqual(t, base, RankingKey(StrategySmartBalance, day, tasks[:1]))
}
