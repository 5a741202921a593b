// ABOUTME: Reference cycle detection over an extracted graph
// ABOUTME: Iterative Tarjan strongly connected components

package analysis

import (
	"sort"

	"github.com/prateek/refgraph/graph"
)

// Cycle is a strongly connected set of nodes that keep each other alive
type Cycle struct {
	IDs []int
}

// Cycles returns the strongly connected components of g with more than one
// node, plus single nodes referencing themselves. Components are sorted by
// size, largest first; ids inside a component are ascending.
func Cycles(g *graph.Graph) []Cycle {
	adj := BuildAdjacency(g)
	n := len(g.Nodes)

	var (
		counter  int
		index    = make([]int, n)
		lowLink  = make([]int, n)
		onStack  = make([]bool, n)
		sccStack []int
		result   []Cycle
	)
	for i := range index {
		index[i] = -1
	}

	type frame struct {
		node int
		next int
	}

	for start := 0; start < n; start++ {
		if index[start] >= 0 {
			continue
		}

		calls := []frame{{node: start}}
		index[start], lowLink[start] = counter, counter
		counter++
		sccStack = append(sccStack, start)
		onStack[start] = true

		for len(calls) > 0 {
			top := &calls[len(calls)-1]
			v := top.node

			if top.next < len(adj.Out[v]) {
				w := adj.Out[v][top.next]
				top.next++
				switch {
				case index[w] < 0:
					index[w], lowLink[w] = counter, counter
					counter++
					sccStack = append(sccStack, w)
					onStack[w] = true
					calls = append(calls, frame{node: w})
				case onStack[w] && index[w] < lowLink[v]:
					lowLink[v] = index[w]
				}
				continue
			}

			calls = calls[:len(calls)-1]
			if len(calls) > 0 {
				parent := calls[len(calls)-1].node
				if lowLink[v] < lowLink[parent] {
					lowLink[parent] = lowLink[v]
				}
			}

			if lowLink[v] != index[v] {
				continue
			}
			var scc []int
			for {
				w := sccStack[len(sccStack)-1]
				sccStack = sccStack[:len(sccStack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			if len(scc) > 1 || selfLoop(adj, v) {
				sort.Ints(scc)
				result = append(result, Cycle{IDs: scc})
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return len(result[i].IDs) > len(result[j].IDs)
	})
	return result
}

func selfLoop(adj *Adjacency, v int) bool {
	for _, w := range adj.Out[v] {
		if w == v {
			return true
		}
	}
	return false
}
