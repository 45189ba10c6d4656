package snapshot

import "path/filepath"

// RootResult is what a producer observed at one declared root: either a
// present node or an absent marker carrying the root's path.
type RootResult struct {
	path string
	node *Node
}

// Present wraps an existing root node.
func Present(n *Node) RootResult {
	if n == nil {
		return RootResult{}
	}
	return RootResult{path: n.path, node: n}
}

// Absent marks a declared root that does not exist.
func Absent(path string) RootResult {
	return RootResult{path: path}
}

// Path returns the root's absolute path.
func (r RootResult) Path() string { return r.path }

// Node returns the root node, or nil for an absent root.
func (r RootResult) Node() *Node { return r.node }

// IsPresent reports whether the root exists.
func (r RootResult) IsPresent() bool { return r.node != nil }

// Equal compares two results structurally. Absent markers compare by base
// name so that, like nodes, they do not depend on where the tree lives.
func (r RootResult) Equal(other RootResult) bool {
	if r.node == nil || other.node == nil {
		return r.node == nil && other.node == nil && filepath.Base(r.path) == filepath.Base(other.path)
	}
	return r.node.Equal(other.node)
}
