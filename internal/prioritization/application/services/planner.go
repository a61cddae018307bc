package services

import (
	"fmt"

	"github.com/felixgeelhaar/taskrank/internal/prioritization/domain"
	"github.com/gammazero/toposort"
)

// ExecutionPlan orders a ranked batch so that dependencies come first.
type ExecutionPlan struct {
	// Order lists schedulable task identifiers, dependencies before dependents.
	Order []string `json:"order"`
	// Unschedulable lists cycle-participating identifiers in ranked order.
	Unschedulable []string `json:"unschedulable"`
}

// PlanExecution builds an execution order for a batch and its ranking, as
// returned by ComputeScores for the same tasks. Tasks flagged as being in a
// cycle cannot be ordered and are reported separately; dependencies on them,
// or on identifiers outside the batch, are ignored.
func PlanExecution(tasks []domain.Task, ranked []domain.ScoredTask) (ExecutionPlan, error) {
	graph := domain.BuildGraph(tasks)

	plan := ExecutionPlan{
		Order:         []string{},
		Unschedulable: []string{},
	}

	schedulable := make(map[string]bool, len(ranked))
	listed := make(map[string]bool, len(ranked))
	for _, st := range ranked {
		if listed[st.ID] {
			continue
		}
		listed[st.ID] = true
		if st.Factors.InCycle {
			plan.Unschedulable = append(plan.Unschedulable, st.ID)
			continue
		}
		schedulable[st.ID] = true
	}

	// Edges are emitted in ranked order so ready tasks surface by score.
	var edges []toposort.Edge
	emitted := make(map[string]bool, len(schedulable))
	for _, st := range ranked {
		id := st.ID
		if !schedulable[id] || emitted[id] {
			continue
		}
		emitted[id] = true

		hasDeps := false
		for _, dep := range graph.DependenciesOf(id) {
			if dep == id || !schedulable[dep] {
				continue
			}
			edges = append(edges, toposort.Edge{dep, id})
			hasDeps = true
		}
		if !hasDeps {
			edges = append(edges, toposort.Edge{nil, id})
		}
	}

	if len(edges) == 0 {
		return plan, nil
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return ExecutionPlan{}, fmt.Errorf("failed to order tasks: %w", err)
	}

	for _, node := range sorted {
		if id, ok := node.(string); ok {
			plan.Order = append(plan.Order, id)
		}
	}

	return plan, nil
}
