// Package snapshot models the observed state of file-system locations as
// immutable, canonically ordered trees and composes the roots of one
// declared file property into a single comparable forest.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"lukechampine.com/blake3"
)

// Kind tags the variant held by a Node.
type Kind uint8

const (
	KindFile Kind = iota + 1
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ContentID is an opaque token standing for a file's hashed content and any
// metadata its producer considers relevant. Two files are equal only if their
// ContentIDs are equal.
type ContentID string

// Metadata is informational file metadata. It does not take part in equality.
type Metadata struct {
	Size    int64
	ModTime time.Time
}

// Node is either a regular file or a directory with name-sorted children.
// Nodes are immutable once constructed and safe for concurrent reads.
type Node struct {
	kind     Kind
	path     string
	name     string
	content  ContentID
	meta     Metadata
	children []*Node
	hash     [32]byte
}

// NewFile builds a file node. path must be absolute and clean.
func NewFile(path string, id ContentID, meta Metadata) (*Node, error) {
	if !IsCanonicalPath(path) {
		return nil, &InvariantError{Path: path, Reason: "path is not absolute and clean"}
	}
	if id == "" {
		return nil, &InvariantError{Path: path, Reason: "file has no content identity"}
	}
	n := &Node{
		kind:    KindFile,
		path:    path,
		name:    filepath.Base(path),
		content: id,
		meta:    meta,
	}
	n.hash = n.structuralHash()
	return n, nil
}

// NewDirectory builds a directory node from its complete set of children.
// The children are copied and sorted by name; the caller's slice is left
// untouched. Duplicate names and children whose path is not path/name are
// rejected.
func NewDirectory(path string, children []*Node) (*Node, error) {
	if !IsCanonicalPath(path) {
		return nil, &InvariantError{Path: path, Reason: "path is not absolute and clean"}
	}
	sorted := make([]*Node, len(children))
	copy(sorted, children)
	for _, c := range sorted {
		if c == nil {
			return nil, &InvariantError{Path: path, Reason: "nil child"}
		}
	}
	slices.SortFunc(sorted, func(a, b *Node) int {
		return strings.Compare(a.name, b.name)
	})
	for i, c := range sorted {
		if i > 0 && sorted[i-1].name == c.name {
			return nil, &InvariantError{Path: path, Reason: fmt.Sprintf("duplicate child name %q", c.name)}
		}
		if want := filepath.Join(path, c.name); c.path != want {
			return nil, &InvariantError{Path: c.path, Reason: fmt.Sprintf("child path does not extend parent %q", path)}
		}
	}
	n := &Node{
		kind:     KindDirectory,
		path:     path,
		name:     filepath.Base(path),
		children: sorted,
	}
	n.hash = n.structuralHash()
	return n, nil
}

func (n *Node) Kind() Kind           { return n.kind }
func (n *Node) Path() string         { return n.path }
func (n *Node) Name() string         { return n.name }
func (n *Node) ContentID() ContentID { return n.content }
func (n *Node) Metadata() Metadata   { return n.meta }

// Hash returns the structural hash computed at construction. Equal nodes
// always share it.
func (n *Node) Hash() [32]byte { return n.hash }

// Len returns the number of direct children; zero for files.
func (n *Node) Len() int { return len(n.children) }

// Equal reports structural equality: same kind and name, and the same content
// identity (files) or pairwise equal children (directories). Paths and
// metadata are ignored.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil {
		return false
	}
	if n.hash != other.hash || n.kind != other.kind || n.name != other.name {
		return false
	}
	switch n.kind {
	case KindFile:
		return n.content == other.content
	case KindDirectory:
		if len(n.children) != len(other.children) {
			return false
		}
		for i := range n.children {
			if !n.children[i].Equal(other.children[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Lookup finds the node at the absolute path p within this tree.
func (n *Node) Lookup(p string) (*Node, bool) {
	switch Relate(n.path, p) {
	case Same:
		return n, true
	case Ancestor:
	default:
		return nil, false
	}
	cur := n
	for _, seg := range relativeSegments(n.path, p) {
		next, ok := cur.child(seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// child finds a direct child by name using the sorted order.
func (n *Node) child(name string) (*Node, bool) {
	i, found := slices.BinarySearchFunc(n.children, name, func(c *Node, target string) int {
		return strings.Compare(c.name, target)
	})
	if !found {
		return nil, false
	}
	return n.children[i], true
}

func (n *Node) String() string {
	switch n.kind {
	case KindFile:
		return fmt.Sprintf("file(%s, %s)", n.path, n.content)
	case KindDirectory:
		return fmt.Sprintf("dir(%s, %d children)", n.path, len(n.children))
	}
	return "invalid node"
}

func (n *Node) structuralHash() [32]byte {
	h := blake3.New(32, nil)
	writeField := func(data []byte) {
		h.Write(binary.BigEndian.AppendUint64(nil, uint64(len(data))))
		h.Write(data)
	}
	writeField([]byte{byte(n.kind)})
	writeField([]byte(n.name))
	switch n.kind {
	case KindFile:
		writeField([]byte(n.content))
	case KindDirectory:
		h.Write(binary.BigEndian.AppendUint64(nil, uint64(len(n.children))))
		for _, c := range n.children {
			h.Write(c.hash[:])
		}
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
