package services

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/taskrank/internal/prioritization/domain"
)

const (
	// CyclePenalty multiplies the score of cycle-participating tasks.
	CyclePenalty = 0.8

	// NoDueDateUrgency is the urgency of tasks without a deadline.
	NoDueDateUrgency = 0.3

	maxUrgency = 1.5

	cycleSentence = "Circular dependency detected; slightly de-prioritized."
)

// Urgency maps a due date onto the urgency step function relative to today.
// A nil due date means no deadline.
func Urgency(due *time.Time, today time.Time) float64 {
	if due == nil {
		return NoDueDateUrgency
	}

	days := daysBetween(toDate(today), toDate(*due))
	switch {
	case days < 0:
		return 1.5
	case days == 0:
		return 1.3
	case days <= 3:
		return 1.1
	case days <= 7:
		return 0.9
	case days <= 14:
		return 0.7
	default:
		return 0.4
	}
}

// ComputeScores ranks a batch of tasks under the given strategy, evaluated on
// the calendar date of today. Unknown strategies behave as the default one.
// The input is never modified; the result is sorted by descending score and
// keeps batch order among equal scores.
func ComputeScores(tasks []domain.Task, strategy domain.Strategy, today time.Time) []domain.ScoredTask {
	strategy = strategy.Resolve()
	weights := strategy.Weights()

	n := len(tasks)
	peers := max(n-1, 1)
	maxHours := maxEstimatedHours(tasks)
	blockCounts := domain.BlockCounts(tasks)
	cycles := domain.BuildGraph(tasks).DetectCycles()

	scored := make([]domain.ScoredTask, 0, n)
	for i, t := range tasks {
		id := t.Key(i)

		factors := domain.ScoreFactors{
			ImportanceNorm: float64(t.ClampedImportance()) / 10.0,
			InCycle:        cycles.Has(id),
		}

		effortNorm := min(t.ClampedHours()/maxHours, 1.0)
		factors.QuickWin = 1.0 - effortNorm

		var due *time.Time
		if d, ok := t.Due(); ok {
			due = &d
		}
		factors.Urgency = Urgency(due, today)
		factors.UrgencyNorm = min(factors.Urgency/maxUrgency, 1.0)

		if blocks := blockCounts[id]; blocks > 0 {
			factors.DependencyNorm = min(float64(blocks)/float64(peers), 1.0)
			factors.Blocks = int(math.RoundToEven(factors.DependencyNorm * float64(n-1)))
		}

		score := factors.ImportanceNorm*weights.Importance +
			factors.UrgencyNorm*weights.Urgency +
			factors.QuickWin*weights.QuickWin +
			factors.DependencyNorm*weights.Dependency

		reasons := []string{strategy.Lead()}
		if factors.DependencyNorm > 0 {
			reasons = append(reasons, fmt.Sprintf("This task blocks %d other task(s).", factors.Blocks))
		}
		if factors.InCycle {
			score *= CyclePenalty
			reasons = append(reasons, cycleSentence)
		}

		out := t
		out.ID = id
		out.Dependencies = slices.Clone(t.Dependencies)
		if out.Dependencies == nil {
			out.Dependencies = []string{}
		}

		scored = append(scored, domain.ScoredTask{
			Task:        out,
			Score:       roundScore(score),
			Explanation: strings.Join(reasons, " "),
			Factors:     factors,
		})
	}

	slices.SortStableFunc(scored, func(a, b domain.ScoredTask) int {
		return cmp.Compare(b.Score, a.Score)
	})

	return scored
}

func maxEstimatedHours(tasks []domain.Task) float64 {
	highest := 0.0
	for _, t := range tasks {
		highest = max(highest, t.ClampedHours())
	}
	if highest <= 0 {
		return 1
	}
	return highest
}

// roundScore rounds the exact binary value to four decimals, so
// 0.98124999999999995559 becomes 0.9812.
func roundScore(score float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(score, 'f', 4, 64), 64)
	return v
}

func toDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}
