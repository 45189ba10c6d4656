// Package inspect offers read-only diagnostics over composite snapshots.
// Nothing here feeds back into snapshot computation.
package inspect

import (
	"slices"
	"strings"
	"time"

	"github.com/starford/filesnap/internal/snapshot"
)

// File is one file observed by a composite.
type File struct {
	Path      string    `json:"path"`
	ContentID string    `json:"content_id"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
}

// Files lists every file of c in visiting order.
func Files(c *snapshot.Composite) []File {
	var out []File
	c.Accept(snapshot.VisitorFuncs{
		VisitFileFunc: func(f *snapshot.Node) {
			out = append(out, File{
				Path:      f.Path(),
				ContentID: string(f.ContentID()),
				Size:      f.Metadata().Size,
				ModTime:   f.Metadata().ModTime,
			})
		},
	})
	return out
}

// ChangeKind classifies a file difference between two snapshots.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Removed  ChangeKind = "removed"
	Modified ChangeKind = "modified"
)

// Change is a single file difference.
type Change struct {
	Path string     `json:"path"`
	Kind ChangeKind `json:"kind"`
}

// Diff compares the files of prev and cur by absolute path. Either side may
// be nil. Changes are sorted by path.
func Diff(prev, cur *snapshot.Composite) []Change {
	before := index(prev)
	after := index(cur)

	var out []Change
	for p, id := range after {
		old, ok := before[p]
		switch {
		case !ok:
			out = append(out, Change{Path: p, Kind: Added})
		case old != id:
			out = append(out, Change{Path: p, Kind: Modified})
		}
	}
	for p := range before {
		if _, ok := after[p]; !ok {
			out = append(out, Change{Path: p, Kind: Removed})
		}
	}
	slices.SortFunc(out, func(a, b Change) int { return strings.Compare(a.Path, b.Path) })
	return out
}

func index(c *snapshot.Composite) map[string]string {
	out := make(map[string]string)
	if c == nil {
		return out
	}
	for _, f := range Files(c) {
		out[f.Path] = f.ContentID
	}
	return out
}

// Report contrasts the entries a snapshot holds for one directory with the
// names currently found on disk.
type Report struct {
	Dir string `json:"dir"`
	// Found is false when the snapshot holds no directory at Dir.
	Found         bool     `json:"found"`
	MissingOnDisk []string `json:"missing_on_disk"`
	NotInSnapshot []string `json:"not_in_snapshot"`
}

// CompareDisk reports which direct children of dir are in the snapshot but
// not in onDisk, and the reverse. onDisk holds base names.
func CompareDisk(c *snapshot.Composite, dir string, onDisk []string) Report {
	r := Report{Dir: dir}
	var snap []string
	c.Accept(&childCollector{target: dir, found: &r.Found, names: &snap})

	inSnap := make(map[string]struct{}, len(snap))
	for _, n := range snap {
		inSnap[n] = struct{}{}
	}
	disk := make(map[string]struct{}, len(onDisk))
	for _, n := range onDisk {
		disk[n] = struct{}{}
		if _, ok := inSnap[n]; !ok {
			r.NotInSnapshot = append(r.NotInSnapshot, n)
		}
	}
	for _, n := range snap {
		if _, ok := disk[n]; !ok {
			r.MissingOnDisk = append(r.MissingOnDisk, n)
		}
	}
	slices.Sort(r.NotInSnapshot)
	slices.Sort(r.MissingOnDisk)
	return r
}

// childCollector records the names of target's direct children and prunes
// every directory that cannot lead to target.
type childCollector struct {
	target string
	found  *bool
	names  *[]string
	inside bool
}

func (v *childCollector) PreVisitDirectory(d *snapshot.Node) bool {
	if v.inside {
		*v.names = append(*v.names, d.Name())
		return false
	}
	switch snapshot.Relate(d.Path(), v.target) {
	case snapshot.Same:
		*v.found = true
		v.inside = true
		return true
	case snapshot.Ancestor:
		return true
	}
	return false
}

func (v *childCollector) VisitFile(f *snapshot.Node) {
	if v.inside {
		*v.names = append(*v.names, f.Name())
	}
}

func (v *childCollector) PostVisitDirectory(d *snapshot.Node) {
	if d.Path() == v.target {
		v.inside = false
	}
}
