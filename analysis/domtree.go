// ABOUTME: Utility functions for working with dominator trees
// ABOUTME: Provides tree construction, depths, paths and dominance checks
package analysis

// DominatorTree builds the children lists of the dominator tree from
// immediate dominators. The root is not its own child.
func DominatorTree(idom []int) [][]int {
	tree := make([][]int, len(idom))
	for node, dom := range idom {
		if dom < 0 || dom == node {
			continue
		}
		tree[dom] = append(tree[dom], node)
	}
	return tree
}

// DominatorDepth computes the depth of each node in the dominator tree.
// The root has depth 0 and unreachable nodes -1.
func DominatorDepth(idom []int) []int {
	depth := make([]int, len(idom))
	for i := range depth {
		depth[i] = -1
	}
	tree := DominatorTree(idom)

	for root, dom := range idom {
		if dom != root {
			continue
		}
		depth[root] = 0
		queue := []int{root}
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			for _, child := range tree[node] {
				depth[child] = depth[node] + 1
				queue = append(queue, child)
			}
		}
	}
	return depth
}

// DominatorPath returns the chain of dominators from node up to the root,
// node first. Unreachable nodes yield nil.
func DominatorPath(idom []int, node int) []int {
	if node < 0 || node >= len(idom) || idom[node] < 0 {
		return nil
	}
	path := []int{node}
	for idom[node] != node {
		node = idom[node]
		path = append(path, node)
	}
	return path
}

// IsDominated returns true if node is dominated by dominator.
// A node dominates itself.
func IsDominated(idom []int, node, dominator int) bool {
	for _, id := range DominatorPath(idom, node) {
		if id == dominator {
			return true
		}
	}
	return false
}
