// ABOUTME: Tests for retained counts and top retainers
// ABOUTME: Covers chains, diamonds and unreachable nodes

package analysis

import (
	"reflect"
	"testing"

	"github.com/prateek/refgraph/graph"
)

func TestRetainedCount(t *testing.T) {
	tests := []struct {
		name     string
		graph    *graph.Graph
		expected []int
	}{
		{
			name:     "chain",
			graph:    build(3, 0, [2]int{0, 1}, [2]int{1, 2}),
			expected: []int{3, 2, 1},
		},
		{
			name:     "diamond shares the merge",
			graph:    build(4, 0, [2]int{0, 1}, [2]int{0, 2}, [2]int{1, 3}, [2]int{2, 3}),
			expected: []int{4, 1, 1, 1},
		},
		{
			name:     "unreachable gets zero",
			graph:    build(3, 0, [2]int{0, 1}),
			expected: []int{2, 1, 0},
		},
		{
			name:     "empty",
			graph:    graph.Empty(),
			expected: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RetainedCount(tt.graph)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("RetainedCount() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTopRetainers(t *testing.T) {
	// 0 holds 1 and 2, 1 holds 3 and 4
	g := build(5, 0, [2]int{0, 1}, [2]int{0, 2}, [2]int{1, 3}, [2]int{1, 4})

	got := TopRetainers(g, 3)
	want := []Retainer{{ID: 0, Retained: 5}, {ID: 1, Retained: 3}, {ID: 2, Retained: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopRetainers() = %v, want %v", got, want)
	}
	if all := TopRetainers(g, 0); len(all) != 5 {
		t.Errorf("TopRetainers(0) returned %d", len(all))
	}
}
