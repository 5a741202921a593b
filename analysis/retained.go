// ABOUTME: Retained node counts derived from the dominator tree
// ABOUTME: Counts how many objects each object keeps alive on its own

package analysis

import (
	"sort"

	"github.com/prateek/refgraph/graph"
)

// RetainedCount computes, for every node reachable from the root, the
// number of nodes it dominates including itself: the objects that would
// become unreachable from the root if that node were removed. Unreachable
// nodes get 0.
func RetainedCount(g *graph.Graph) []int {
	adj := BuildAdjacency(g)
	root := g.RootID()
	counts := make([]int, len(g.Nodes))
	if root < 0 {
		return counts
	}

	idom := dominatorsFrom(adj, root, len(g.Nodes))
	// Postorder visits every node after the nodes it dominates
	for _, v := range postorder(adj, root) {
		counts[v]++
		if dom := idom[v]; dom != v && dom >= 0 {
			counts[dom] += counts[v]
		}
	}
	return counts
}

// Retainer is a node with its retained count
type Retainer struct {
	ID       int
	Retained int
}

// TopRetainers returns up to n nodes with the largest retained counts,
// ties broken by node id
func TopRetainers(g *graph.Graph, n int) []Retainer {
	counts := RetainedCount(g)
	result := make([]Retainer, 0, len(counts))
	for id, c := range counts {
		if c > 0 {
			result = append(result, Retainer{ID: id, Retained: c})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Retained != result[j].Retained {
			return result[i].Retained > result[j].Retained
		}
		return result[i].ID < result[j].ID
	})
	if n > 0 && len(result) > n {
		result = result[:n]
	}
	return result
}
