// ABOUTME: Core data types for the extracted reference graph
// ABOUTME: Defines Key, Object, Node, Edge, EdgeClass and Graph

package graph

// Key identifies one live object for the duration of a snapshot
type Key uint64

// Object is an opaque handle owned by a Provider
type Object any

// EdgeClass tells how a reference was discovered
type EdgeClass int

const (
	// Named references are exposed through a reflectable attribute
	Named EdgeClass = iota
	// Indirect references are tracked by the memory manager only
	Indirect
)

// String returns the class name
func (c EdgeClass) String() string {
	switch c {
	case Named:
		return "named"
	case Indirect:
		return "indirect"
	default:
		return "unknown"
	}
}

// Node is one object in the extracted graph
type Node struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"type"`
	Root  bool   `json:"root,omitempty"`
}

// Edge is one reference between two nodes
type Edge struct {
	Source int       `json:"source"`
	Target int       `json:"target"`
	Label  string    `json:"label"`
	Class  EdgeClass `json:"-"`
}

// Graph is the output of one extraction. Nodes are indexed by ID.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Empty returns a graph with no nodes and no edges
func Empty() *Graph {
	return &Graph{Nodes: []Node{}, Edges: []Edge{}}
}

// RootID returns the id of the root node, or -1 for an empty graph
func (g *Graph) RootID() int {
	for _, n := range g.Nodes {
		if n.Root {
			return n.ID
		}
	}
	return -1
}

// Stats summarises a graph
type Stats struct {
	Nodes    int
	Named    int
	Indirect int
	Kinds    map[string]int
}

// Stats counts nodes, edges per class and nodes per kind
func (g *Graph) Stats() Stats {
	s := Stats{Nodes: len(g.Nodes), Kinds: make(map[string]int)}
	for _, n := range g.Nodes {
		s.Kinds[n.Kind]++
	}
	for _, e := range g.Edges {
		if e.Class == Named {
			s.Named++
		} else {
			s.Indirect++
		}
	}
	return s
}
