package inspect

import (
	"slices"
	"testing"

	"github.com/starford/filesnap/internal/snapshot"
)

func file(t *testing.T, path, id string) *snapshot.Node {
	t.Helper()
	n, err := snapshot.NewFile(path, snapshot.ContentID(id), snapshot.Metadata{Size: int64(len(id))})
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func dir(t *testing.T, path string, children ...*snapshot.Node) *snapshot.Node {
	t.Helper()
	n, err := snapshot.NewDirectory(path, children)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func compose(t *testing.T, results ...snapshot.RootResult) *snapshot.Composite {
	t.Helper()
	c, err := snapshot.Compose(results)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestFiles(t *testing.T) {
	c := compose(t,
		snapshot.Present(dir(t, "/w/src",
			file(t, "/w/src/b.go", "B"),
			dir(t, "/w/src/a", file(t, "/w/src/a/x.go", "X")),
		)),
		snapshot.Absent("/w/gone"),
		snapshot.Present(file(t, "/w/README", "R")),
	)
	var paths []string
	for _, f := range Files(c) {
		paths = append(paths, f.Path)
	}
	want := []string{"/w/src/a/x.go", "/w/src/b.go", "/w/README"}
	if !slices.Equal(paths, want) {
		t.Errorf("Files = %v, want %v", paths, want)
	}
}

func TestDiff(t *testing.T) {
	prev := compose(t, snapshot.Present(dir(t, "/w/src",
		file(t, "/w/src/keep.go", "K"),
		file(t, "/w/src/edit.go", "E1"),
		file(t, "/w/src/drop.go", "D"),
	)))
	cur := compose(t, snapshot.Present(dir(t, "/w/src",
		file(t, "/w/src/keep.go", "K"),
		file(t, "/w/src/edit.go", "E2"),
		file(t, "/w/src/new.go", "N"),
	)))

	got := Diff(prev, cur)
	want := []Change{
		{Path: "/w/src/drop.go", Kind: Removed},
		{Path: "/w/src/edit.go", Kind: Modified},
		{Path: "/w/src/new.go", Kind: Added},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Diff = %+v, want %+v", got, want)
	}
	if d := Diff(cur, cur); len(d) != 0 {
		t.Errorf("self diff = %+v", d)
	}
	if d := Diff(nil, cur); len(d) != 3 {
		t.Errorf("diff from nil = %+v, want 3 additions", d)
	}
}

func TestCompareDisk(t *testing.T) {
	c := compose(t, snapshot.Present(dir(t, "/w/src",
		file(t, "/w/src/a.go", "A"),
		dir(t, "/w/src/pkg", file(t, "/w/src/pkg/p.go", "P")),
		file(t, "/w/src/old.go", "O"),
	)))

	r := CompareDisk(c, "/w/src", []string{"a.go", "pkg", "fresh.go"})
	if !r.Found {
		t.Fatal("directory not found in snapshot")
	}
	if !slices.Equal(r.MissingOnDisk, []string{"old.go"}) {
		t.Errorf("MissingOnDisk = %v", r.MissingOnDisk)
	}
	if !slices.Equal(r.NotInSnapshot, []string{"fresh.go"}) {
		t.Errorf("NotInSnapshot = %v", r.NotInSnapshot)
	}

	nested := CompareDisk(c, "/w/src/pkg", []string{"p.go"})
	if !nested.Found || len(nested.MissingOnDisk) != 0 || len(nested.NotInSnapshot) != 0 {
		t.Errorf("nested report = %+v", nested)
	}

	missing := CompareDisk(c, "/w/other", []string{"x"})
	if missing.Found {
		t.Error("unrelated directory reported as found")
	}
	if !slices.Equal(missing.NotInSnapshot, []string{"x"}) {
		t.Errorf("NotInSnapshot = %v", missing.NotInSnapshot)
	}
}
