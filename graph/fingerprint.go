// ABOUTME: Structural fingerprint of an extracted graph
// ABOUTME: Equal for populations with the same shape regardless of keys

package graph

import (
	"encoding/hex"
	"sort"
	"strconv"

	"lukechampine.com/blake3"
)

// Fingerprint hashes the sorted node labels and kinds together with the
// sorted edges expressed through their endpoint labels. Node ids and
// identity keys do not contribute, so two structurally identical
// populations produce the same value.
func (g *Graph) Fingerprint() string {
	nodes := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		nodes[i] = n.Kind + "\x00" + n.Label + "\x00" + strconv.FormatBool(n.Root)
	}
	sort.Strings(nodes)

	edges := make([]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		if e.Source < 0 || e.Source >= len(g.Nodes) || e.Target < 0 || e.Target >= len(g.Nodes) {
			continue
		}
		src, dst := g.Nodes[e.Source], g.Nodes[e.Target]
		edges = append(edges, src.Label+"\x00"+dst.Label+"\x00"+e.Label+"\x00"+e.Class.String())
	}
	sort.Strings(edges)

	h := blake3.New(32, nil)
	for _, s := range nodes {
		h.Write([]byte(s))
		h.Write([]byte{'\n'})
	}
	h.Write([]byte{0xff})
	for _, s := range edges {
		h.Write([]byte(s))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
