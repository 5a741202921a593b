// ABOUTME: Tests for root paths and retention chains
// ABOUTME: Covers path formatting and parallel edge collapsing

package analysis

import (
	"reflect"
	"testing"

	"github.com/prateek/refgraph/graph"
)

func TestPathsToRoot(t *testing.T) {
	tests := []struct {
		name     string
		graph    *graph.Graph
		from     int
		maxPaths int
		expected []Path
	}{
		{
			name:     "direct reference",
			graph:    build(2, 0, [2]int{0, 1}),
			from:     1,
			maxPaths: 5,
			expected: []Path{{IDs: []int{1, 0}}},
		},
		{
			name:     "from root",
			graph:    build(2, 0, [2]int{0, 1}),
			from:     0,
			maxPaths: 5,
			expected: []Path{{IDs: []int{0}}},
		},
		{
			name:     "two routes shortest first",
			graph:    build(4, 0, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}, [2]int{0, 3}),
			from:     3,
			maxPaths: 5,
			expected: []Path{{IDs: []int{3, 0}}, {IDs: []int{3, 2, 1, 0}}},
		},
		{
			name:     "limited",
			graph:    build(4, 0, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}, [2]int{0, 3}),
			from:     3,
			maxPaths: 1,
			expected: []Path{{IDs: []int{3, 0}}},
		},
		{
			name:     "cycle skipped",
			graph:    build(3, 0, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 1}),
			from:     2,
			maxPaths: 5,
			expected: []Path{{IDs: []int{2, 1, 0}}},
		},
		{
			name:     "unreachable",
			graph:    build(3, 0, [2]int{0, 1}, [2]int{2, 2}),
			from:     2,
			maxPaths: 5,
			expected: nil,
		},
		{
			name:     "out of range",
			graph:    build(2, 0, [2]int{0, 1}),
			from:     7,
			maxPaths: 5,
			expected: nil,
		},
		{
			name:     "zero paths",
			graph:    build(2, 0, [2]int{0, 1}),
			from:     1,
			maxPaths: 0,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PathsToRoot(tt.graph, tt.from, tt.maxPaths)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("PathsToRoot() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPathFormat(t *testing.T) {
	g := build(3, 0, [2]int{0, 1}, [2]int{1, 2})
	p := Path{IDs: []int{2, 1, 0}}
	if got, want := p.Format(g), "n0 -[0->1]-> n1 -[1->2]-> n2"; got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
	if got := (Path{IDs: []int{0}}).Format(g); got != "n0" {
		t.Errorf("Format() = %q", got)
	}
}

func TestRetentionChains(t *testing.T) {
	tests := []struct {
		name     string
		graph    *graph.Graph
		from     int
		expected []Path
	}{
		{
			name:     "no referrers",
			graph:    build(2, 0, [2]int{0, 1}),
			from:     0,
			expected: []Path{{IDs: []int{0}}},
		},
		{
			name:     "two holders",
			graph:    build(4, 3, [2]int{0, 2}, [2]int{1, 2}, [2]int{2, 3}),
			from:     3,
			expected: []Path{{IDs: []int{3, 2, 0}}, {IDs: []int{3, 2, 1}}},
		},
		{
			name:     "cycle ends at entry",
			graph:    build(3, 2, [2]int{0, 1}, [2]int{1, 0}, [2]int{1, 2}),
			from:     2,
			expected: []Path{{IDs: []int{2, 1, 0}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RetentionChains(tt.graph, tt.from, 5)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("RetentionChains() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAdjacencyCollapsesParallelEdges(t *testing.T) {
	g := build(2, 0, [2]int{0, 1}, [2]int{0, 1}, [2]int{0, 5})
	adj := BuildAdjacency(g)
	if !reflect.DeepEqual(adj.Out[0], []int{1}) || !reflect.DeepEqual(adj.In[1], []int{0}) {
		t.Errorf("adjacency = %+v", adj)
	}
	if _, ok := EdgeLabel(g, 1, 0); ok {
		t.Error("EdgeLabel found a missing edge")
	}
}
