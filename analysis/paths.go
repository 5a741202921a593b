// ABOUTME: BFS search for reference chains from a node back to the root
// ABOUTME: Finds up to K shortest chains while skipping cycles

package analysis

import (
	"strings"

	"github.com/prateek/refgraph/graph"
)

// Path is a chain of node ids from a node to the root. Following the ids
// backwards gives the references the root holds down to the node.
type Path struct {
	IDs []int
}

// PathsToRoot finds up to maxPaths shortest referrer chains from node
// from to the root node of g
func PathsToRoot(g *graph.Graph, from int, maxPaths int) []Path {
	root := g.RootID()
	if maxPaths <= 0 || root < 0 || from < 0 || from >= len(g.Nodes) {
		return nil
	}
	if from == root {
		return []Path{{IDs: []int{from}}}
	}

	adj := BuildAdjacency(g)

	type searchNode struct {
		id   int
		path []int
	}

	var result []Path
	queue := []searchNode{{id: from, path: []int{from}}}

	for len(queue) > 0 && len(result) < maxPaths {
		node := queue[0]
		queue = queue[1:]

		for _, referrer := range adj.In[node.id] {
			if inPath(node.path, referrer) {
				continue
			}

			next := make([]int, len(node.path)+1)
			copy(next, node.path)
			next[len(node.path)] = referrer

			if referrer == root {
				result = append(result, Path{IDs: next})
				if len(result) >= maxPaths {
					break
				}
				continue
			}
			queue = append(queue, searchNode{id: referrer, path: next})
		}
	}

	return result
}

func inPath(path []int, id int) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}

// Format renders p from the root down, e.g. "root -[next]-> a -[val]-> b"
func (p Path) Format(g *graph.Graph) string {
	var b strings.Builder
	for i := len(p.IDs) - 1; i >= 0; i-- {
		id := p.IDs[i]
		b.WriteString(g.Nodes[id].Label)
		if i == 0 {
			break
		}
		label, _ := EdgeLabel(g, id, p.IDs[i-1])
		b.WriteString(" -[")
		b.WriteString(label)
		b.WriteString("]-> ")
	}
	return b.String()
}

// RetentionChains finds up to maxPaths shortest referrer chains that start
// at node from and end at a holder with no further referrers. Referrers
// already on a chain are ignored, so a chain closing a cycle ends at the
// node where the cycle is entered.
func RetentionChains(g *graph.Graph, from int, maxPaths int) []Path {
	if maxPaths <= 0 || from < 0 || from >= len(g.Nodes) {
		return nil
	}

	adj := BuildAdjacency(g)

	var result []Path
	queue := []Path{{IDs: []int{from}}}

	for len(queue) > 0 && len(result) < maxPaths {
		chain := queue[0]
		queue = queue[1:]
		last := chain.IDs[len(chain.IDs)-1]

		extended := false
		for _, referrer := range adj.In[last] {
			if inPath(chain.IDs, referrer) {
				continue
			}
			extended = true
			next := make([]int, len(chain.IDs)+1)
			copy(next, chain.IDs)
			next[len(chain.IDs)] = referrer
			queue = append(queue, Path{IDs: next})
		}
		if !extended {
			result = append(result, chain)
		}
	}

	return result
}
