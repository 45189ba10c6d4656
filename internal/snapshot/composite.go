package snapshot

import (
	"fmt"
	"path/filepath"
	"slices"
)

// Composite is the merged snapshot of every root declared by one property.
// Roots keep the order the producer yielded them in; only directory children
// are sorted. A Composite is immutable.
//
// The empty Composite (no roots declared) and a Composite holding only
// absent markers are different values and never compare equal.
type Composite struct {
	roots []RootResult
}

// Compose merges the producer's root results for one property.
//
// Duplicate paths collapse onto their first occurrence. A root beneath
// another present directory root is folded into it: dropped when the
// ancestor already holds an equal subtree, grafted into the ancestor when the
// ancestor's tree does not contain it. Roots beneath a file root, present
// roots beneath an absent root and non-canonical root paths are rejected with
// an *OverlapError; disagreeing observations of the same path yield an
// *InvariantError.
func Compose(results []RootResult) (*Composite, error) {
	if len(results) == 0 {
		return &Composite{}, nil
	}
	entries, err := dedupeRoots(results)
	if err != nil {
		return nil, err
	}
	if err := checkContainment(entries); err != nil {
		return nil, err
	}
	roots, err := foldRoots(entries)
	if err != nil {
		return nil, err
	}
	return &Composite{roots: roots}, nil
}

// Len returns the number of roots, absent markers included.
func (c *Composite) Len() int { return len(c.roots) }

// IsEmpty reports whether the property declared no roots at all.
func (c *Composite) IsEmpty() bool { return len(c.roots) == 0 }

// Roots returns the stored root results in order.
func (c *Composite) Roots() []RootResult { return slices.Clone(c.roots) }

// RootPaths returns the paths of all roots in stored order.
func (c *Composite) RootPaths() []string {
	out := make([]string, len(c.roots))
	for i, r := range c.roots {
		out[i] = r.path
	}
	return out
}

// AbsentPaths returns the paths of roots that did not exist, in stored order.
func (c *Composite) AbsentPaths() []string {
	var out []string
	for _, r := range c.roots {
		if r.node == nil {
			out = append(out, r.path)
		}
	}
	return out
}

// Equal compares two composites root by root.
func (c *Composite) Equal(other *Composite) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil || len(c.roots) != len(other.roots) {
		return false
	}
	for i := range c.roots {
		if !c.roots[i].Equal(other.roots[i]) {
			return false
		}
	}
	return true
}

func dedupeRoots(results []RootResult) ([]RootResult, error) {
	seen := make(map[string]struct{}, len(results))
	out := make([]RootResult, 0, len(results))
	for _, r := range results {
		if r.path == "" {
			return nil, &InvariantError{Reason: "root result has no path"}
		}
		if !IsCanonicalPath(r.path) {
			return nil, &OverlapError{Path: r.path, Reason: "path is not absolute and clean, containment cannot be decided"}
		}
		if _, dup := seen[r.path]; dup {
			continue
		}
		seen[r.path] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// checkContainment rejects ancestor relationships that cannot be folded.
func checkContainment(entries []RootResult) error {
	for _, anc := range entries {
		for _, desc := range entries {
			if Relate(anc.path, desc.path) != Ancestor {
				continue
			}
			switch {
			case anc.node != nil && anc.node.kind == KindFile:
				return &OverlapError{Path: desc.path, Other: anc.path, Reason: "root lies beneath a file root"}
			case anc.node == nil && desc.node != nil:
				return &OverlapError{Path: desc.path, Other: anc.path, Reason: "present root lies beneath an absent root"}
			}
		}
	}
	return nil
}

func foldRoots(entries []RootResult) ([]RootResult, error) {
	// top[i] is the outermost root containing entries[i], or -1.
	top := make([]int, len(entries))
	var nested []int
	for i := range entries {
		top[i] = -1
		for j := range entries {
			if Relate(entries[j].path, entries[i].path) != Ancestor {
				continue
			}
			if top[i] < 0 || len(entries[j].path) < len(entries[top[i]].path) {
				top[i] = j
			}
		}
		if top[i] >= 0 {
			nested = append(nested, i)
		}
	}
	if len(nested) == 0 {
		return entries, nil
	}

	// Shallow roots first, so a grafted intermediate root is in place
	// before anything beneath it is looked up.
	slices.SortStableFunc(nested, func(a, b int) int {
		return len(entries[a].path) - len(entries[b].path)
	})

	roots := make([]RootResult, len(entries))
	copy(roots, entries)
	for _, i := range nested {
		t := top[i]
		anc, desc := roots[t], entries[i]
		if anc.node == nil {
			continue
		}
		found, ok := anc.node.Lookup(desc.path)
		switch {
		case ok && desc.node == nil:
			return nil, &InvariantError{Path: desc.path, Reason: fmt.Sprintf("observed absent, but present under root %q", anc.path)}
		case ok && !found.Equal(desc.node):
			return nil, &InvariantError{Path: desc.path, Reason: fmt.Sprintf("observation differs from the one under root %q", anc.path)}
		case ok, desc.node == nil:
			// Already included, or absence implied by the ancestor.
		default:
			grafted, err := graft(anc.node, desc.node)
			if err != nil {
				return nil, err
			}
			roots[t] = Present(grafted)
		}
	}

	out := make([]RootResult, 0, len(roots)-len(nested))
	for i, r := range roots {
		if top[i] < 0 {
			out = append(out, r)
		}
	}
	return out, nil
}

// graft returns a copy of dir with desc inserted at its path. Intermediate
// directories missing from dir are created.
func graft(dir, desc *Node) (*Node, error) {
	segs := relativeSegments(dir.path, desc.path)
	name := segs[0]
	existing, ok := dir.child(name)

	var replacement *Node
	var err error
	switch {
	case len(segs) == 1:
		replacement = desc
	case ok && existing.kind == KindDirectory:
		replacement, err = graft(existing, desc)
	case ok:
		return nil, &OverlapError{Path: desc.path, Other: existing.path, Reason: "root lies beneath a file"}
	default:
		replacement, err = wrapInDirectories(filepath.Join(dir.path, name), desc)
	}
	if err != nil {
		return nil, err
	}

	children := make([]*Node, 0, len(dir.children)+1)
	for _, c := range dir.children {
		if c.name != name {
			children = append(children, c)
		}
	}
	children = append(children, replacement)
	return NewDirectory(dir.path, children)
}

// wrapInDirectories builds the directory chain from dirPath down to desc.
func wrapInDirectories(dirPath string, desc *Node) (*Node, error) {
	if filepath.Dir(desc.path) == dirPath {
		return NewDirectory(dirPath, []*Node{desc})
	}
	segs := relativeSegments(dirPath, desc.path)
	inner, err := wrapInDirectories(filepath.Join(dirPath, segs[0]), desc)
	if err != nil {
		return nil, err
	}
	return NewDirectory(dirPath, []*Node{inner})
}
