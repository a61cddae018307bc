package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGraph(t *testing.T) {
	tasks := []Task{
		{ID: "a", Dependencies: []string{"b", "c", "b"}},
		{Dependencies: []string{"a"}},
		{ID: "c"},
	}

	g := BuildGraph(tasks)

	assert.Equal(t, []string{"a", "task_1", "c"}, g.Nodes())
	assert.Equal(t, []string{"b", "c"}, g.DependenciesOf("a"))
	assert.Equal(t, []string{"a"}, g.DependenciesOf("task_1"))
	assert.Nil(t, g.DependenciesOf("c"))
	assert.True(t, g.Has("c"))
	assert.False(t, g.Has("b"), "dependency-only ids have no entry")
}

func TestBuildGraph_DuplicateIDsLastWins(t *testing.T) {
	g := BuildGraph([]Task{
		{ID: "x", Dependencies: []string{"y"}},
		{ID: "y"},
		{ID: "x", Dependencies: []string{"z"}},
	})

	assert.Equal(t, []string{"x", "y"}, g.Nodes())
	assert.Equal(t, []string{"z"}, g.DependenciesOf("x"))
}

func TestDetectCycles(t *testing.T) {
	tests := []struct {
		name     string
		tasks    []Task
		expected []string
	}{
		{
			name: "acyclic chain",
			tasks: []Task{
				{ID: "a", Dependencies: []string{"b"}},
				{ID: "b", Dependencies: []string{"c"}},
				{ID: "c"},
			},
			expected: []string{},
		},
		{
			name: "mutual dependency",
			tasks: []Task{
				{ID: "a", Dependencies: []string{"b"}},
				{ID: "b", Dependencies: []string{"a"}},
			},
			expected: []string{"a", "b"},
		},
		{
			name:     "self dependency",
			tasks:    []Task{{ID: "solo", Dependencies: []string{"solo"}}},
			expected: []string{"solo"},
		},
		{
			name: "path into a cycle is marked",
			tasks: []Task{
				{ID: "entry", Dependencies: []string{"b"}},
				{ID: "b", Dependencies: []string{"c"}},
				{ID: "c", Dependencies: []string{"b"}},
			},
			expected: []string{"b", "c", "entry"},
		},
		{
			name: "node reaching an already explored cycle is not marked",
			tasks: []Task{
				{ID: "b", Dependencies: []string{"c"}},
				{ID: "c", Dependencies: []string{"b"}},
				{ID: "late", Dependencies: []string{"b"}},
			},
			expected: []string{"b", "c"},
		},
		{
			name: "diamond is acyclic",
			tasks: []Task{
				{ID: "top", Dependencies: []string{"left", "right"}},
				{ID: "left", Dependencies: []string{"bottom"}},
				{ID: "right", Dependencies: []string{"bottom"}},
				{ID: "bottom"},
			},
			expected: []string{},
		},
		{
			name: "dangling dependency",
			tasks: []Task{
				{ID: "a", Dependencies: []string{"nowhere"}},
			},
			expected: []string{},
		},
		{
			name: "fallback ids participate",
			tasks: []Task{
				{Dependencies: []string{"task_1"}},
				{Dependencies: []string{"task_0"}},
			},
			expected: []string{"task_0", "task_1"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cycles := BuildGraph(tc.tasks).DetectCycles()
			assert.Equal(t, tc.expected, cycles.Sorted())
		})
	}
}

func TestDetectCycles_DeepChain(t *testing.T) {
	const depth = 200_000

	tasks := make([]Task, depth)
	for i := range tasks {
		tasks[i] = Task{ID: fmt.Sprintf("n%d", i)}
		if i+1 < depth {
			tasks[i].Dependencies = []string{fmt.Sprintf("n%d", i+1)}
		}
	}

	assert.Empty(t, BuildGraph(tasks).DetectCycles())

	tasks[depth-1].Dependencies = []string{"n0"}
	cycles := BuildGraph(tasks).DetectCycles()
	require.Len(t, cycles, depth)
	assert.True(t, cycles.Has("n0"))
	assert.True(t, cycles.Has(fmt.Sprintf("n%d", depth-1)))
}

func TestBlockCounts(t *testing.T) {
	counts := BlockCounts([]Task{
		{ID: "a"},
		{ID: "b", Dependencies: []string{"a", "a", "b"}},
		{Dependencies: []string{"a", "ghost"}},
	})

	assert.Equal(t, 2, counts["a"])
	assert.Zero(t, counts["b"])
	assert.Equal(t, 1, counts["ghost"])
}
