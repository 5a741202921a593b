// ABOUTME: Test helper for the analysis package
// ABOUTME: Builds graph.Graph values from edge lists for analysis tests

package analysis

import (
	"fmt"

	"github.com/prateek/refgraph/graph"
)

// build returns a graph of n nodes labeled "n<id>" with the given root and
// edges labeled "<src>-><dst>"
func build(n, root int, edges ...[2]int) *graph.Graph {
	g := &graph.Graph{Nodes: make([]graph.Node, n), Edges: []graph.Edge{}}
	for i := range g.Nodes {
		g.Nodes[i] = graph.Node{ID: i, Label: fmt.Sprintf("n%d", i), Kind: "node", Root: i == root}
	}
	for _, e := range edges {
		g.Edges = append(g.Edges, graph.Edge{
			Source: e[0],
			Target: e[1],
			Label:  fmt.Sprintf("%d->%d", e[0], e[1]),
		})
	}
	return g
}
