// ABOUTME: Adjacency lists over an extracted graph
// ABOUTME: Maps each node to the nodes it references and to its referrers

package analysis

import "github.com/prateek/refgraph/graph"

// Adjacency holds forward and reverse edges indexed by node id
type Adjacency struct {
	Out [][]int
	In  [][]int
}

// BuildAdjacency creates adjacency lists for g. Parallel edges between the
// same pair of nodes collapse into one entry.
func BuildAdjacency(g *graph.Graph) *Adjacency {
	n := len(g.Nodes)
	adj := &Adjacency{
		Out: make([][]int, n),
		In:  make([][]int, n),
	}

	type pair struct{ src, dst int }
	seen := make(map[pair]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		if e.Source < 0 || e.Source >= n || e.Target < 0 || e.Target >= n {
			continue
		}
		p := pair{e.Source, e.Target}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		adj.Out[e.Source] = append(adj.Out[e.Source], e.Target)
		adj.In[e.Target] = append(adj.In[e.Target], e.Source)
	}
	return adj
}

// EdgeLabel returns the label of the first edge from src to dst
func EdgeLabel(g *graph.Graph, src, dst int) (string, bool) {
	for _, e := range g.Edges {
		if e.Source == src && e.Target == dst {
			return e.Label, true
		}
	}
	return "", false
}
