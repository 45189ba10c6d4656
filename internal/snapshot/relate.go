package snapshot

import (
	"path/filepath"
	"strings"
)

// Relation describes how one absolute path relates to another.
type Relation int

const (
	// Unrelated paths share no ancestry, even if one is a string prefix of
	// the other (/p/dir and /p/dir2).
	Unrelated Relation = iota
	// Same paths are identical.
	Same
	// Ancestor means the first path strictly contains the second.
	Ancestor
	// Descendant means the first path lies strictly beneath the second.
	Descendant
)

func (r Relation) String() string {
	switch r {
	case Unrelated:
		return "unrelated"
	case Same:
		return "same"
	case Ancestor:
		return "ancestor"
	case Descendant:
		return "descendant"
	}
	return "unknown"
}

// Relate reports how a relates to b. Both paths must be clean and absolute;
// callers validate that with IsCanonicalPath.
func Relate(a, b string) Relation {
	switch {
	case a == b:
		return Same
	case isUnder(b, a):
		return Ancestor
	case isUnder(a, b):
		return Descendant
	default:
		return Unrelated
	}
}

// IsCanonicalPath reports whether p is absolute and already in the form
// filepath.Clean would produce.
func IsCanonicalPath(p string) bool {
	return p != "" && filepath.IsAbs(p) && filepath.Clean(p) == p
}

func isUnder(p, dir string) bool {
	if p == dir {
		return false
	}
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		// Filesystem root: every other absolute path is beneath it.
		return strings.HasPrefix(p, dir)
	}
	return strings.HasPrefix(p, dir+string(filepath.Separator))
}

// relativeSegments splits the part of p below dir into path elements.
// p must be beneath dir.
func relativeSegments(dir, p string) []string {
	rest := strings.TrimPrefix(p, dir)
	rest = strings.TrimPrefix(rest, string(filepath.Separator))
	return strings.Split(rest, string(filepath.Separator))
}
