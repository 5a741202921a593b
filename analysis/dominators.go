// ABOUTME: Immediate dominators of an extracted graph rooted at its root node
// ABOUTME: Iterative Cooper-Harvey-Kennedy algorithm over reverse postorder

package analysis

import "github.com/prateek/refgraph/graph"

// Dominators computes the immediate dominator of every node reachable from
// the root of g. The result is indexed by node id: the root maps to itself
// and unreachable nodes map to -1.
func Dominators(g *graph.Graph) []int {
	return dominatorsFrom(BuildAdjacency(g), g.RootID(), len(g.Nodes))
}

func dominatorsFrom(adj *Adjacency, root, n int) []int {
	idom := make([]int, n)
	for i := range idom {
		idom[i] = -1
	}
	if root < 0 || root >= n {
		return idom
	}

	order := postorder(adj, root)
	rank := make([]int, n)
	for i := range rank {
		rank[i] = -1
	}
	for i, v := range order {
		rank[v] = i
	}

	intersect := func(a, b int) int {
		for a != b {
			for rank[a] < rank[b] {
				a = idom[a]
			}
			for rank[b] < rank[a] {
				b = idom[b]
			}
		}
		return a
	}

	idom[root] = root
	for changed := true; changed; {
		changed = false
		// Reverse postorder, root excluded (it finishes last)
		for i := len(order) - 2; i >= 0; i-- {
			v := order[i]
			next := -1
			for _, p := range adj.In[v] {
				if idom[p] == -1 {
					continue
				}
				if next == -1 {
					next = p
				} else {
					next = intersect(p, next)
				}
			}
			if next != -1 && idom[v] != next {
				idom[v] = next
				changed = true
			}
		}
	}
	return idom
}

// postorder returns the nodes reachable from root in DFS postorder
func postorder(adj *Adjacency, root int) []int {
	visited := make([]bool, len(adj.Out))
	order := make([]int, 0, len(adj.Out))

	type frame struct{ node, next int }
	stack := []frame{{node: root}}
	visited[root] = true

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(adj.Out[top.node]) {
			w := adj.Out[top.node][top.next]
			top.next++
			if !visited[w] {
				visited[w] = true
				stack = append(stack, frame{node: w})
			}
			continue
		}
		order = append(order, top.node)
		stack = stack[:len(stack)-1]
	}
	return order
}
