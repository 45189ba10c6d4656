package fingerprint

import (
	"testing"

	"github.com/starford/filesnap/internal/snapshot"
	"github.com/starford/filesnap/internal/taskfiles"
)

func file(t *testing.T, path, id string) *snapshot.Node {
	t.Helper()
	n, err := snapshot.NewFile(path, snapshot.ContentID(id), snapshot.Metadata{})
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

func TestComposite_StableAndPathIndependent(t *testing.T) {
	a := compose(t, snapshot.Present(dir(t, "/w/src", file(t, "/w/src/a.go", "A"))))
	b := compose(t, snapshot.Present(dir(t, "/other/src", file(t, "/other/src/a.go", "A"))))
	if Composite(a) != Composite(a) {
		t.Fatal("fingerprint is not stable")
	}
	if Composite(a) != Composite(b) {
		t.Error("relocated but equal trees fingerprint differently")
	}
	if len(Composite(a)) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(Composite(a)))
	}
}

func TestComposite_Sensitivity(t *testing.T) {
	base := compose(t, snapshot.Present(dir(t, "/w/src", file(t, "/w/src/a.go", "A"))))
	cases := map[string]*snapshot.Composite{
		"content":  compose(t, snapshot.Present(dir(t, "/w/src", file(t, "/w/src/a.go", "B")))),
		"rename":   compose(t, snapshot.Present(dir(t, "/w/src", file(t, "/w/src/b.go", "A")))),
		"added":    compose(t, snapshot.Present(dir(t, "/w/src", file(t, "/w/src/a.go", "A"), file(t, "/w/src/b.go", "B")))),
		"nesting":  compose(t, snapshot.Present(dir(t, "/w/src", dir(t, "/w/src/x", file(t, "/w/src/x/a.go", "A"))))),
		"absent":   compose(t, snapshot.Absent("/w/src")),
		"empty":    compose(t),
		"extra":    compose(t, snapshot.Present(dir(t, "/w/src", file(t, "/w/src/a.go", "A"))), snapshot.Absent("/w/gen")),
		"filekind": compose(t, snapshot.Present(file(t, "/w/src", "A"))),
	}
	want := Composite(base)
	for name, c := range cases {
		if Composite(c) == want {
			t.Errorf("%s: fingerprint did not change", name)
		}
	}
}

func TestComposite_AbsentVsEmpty(t *testing.T) {
	empty := compose(t)
	absent := compose(t, snapshot.Absent("/w/out"))
	if Composite(empty) == Composite(absent) {
		t.Error("empty and absent composites share a fingerprint")
	}
	// Absent markers compare by name, so the fingerprint follows suit.
	moved := compose(t, snapshot.Absent("/elsewhere/out"))
	if Composite(absent) != Composite(moved) {
		t.Error("equal absent composites fingerprint differently")
	}
}

func TestComposite_RootOrder(t *testing.T) {
	a := snapshot.Present(file(t, "/w/a.txt", "A"))
	b := snapshot.Absent("/w/b.txt")
	if Composite(compose(t, a, b)) == Composite(compose(t, b, a)) {
		t.Error("root order does not contribute")
	}
}

func TestPropertiesAndTask(t *testing.T) {
	src := compose(t, snapshot.Present(file(t, "/w/a.go", "A")))
	out := compose(t)
	m := taskfiles.NewPropertyMap(map[string]*snapshot.Composite{"sources": src, "outputs": out})

	props := Properties(m)
	if len(props) != 2 || props["sources"] != Composite(src) || props["outputs"] != Composite(out) {
		t.Errorf("Properties = %v", props)
	}

	same := taskfiles.NewPropertyMap(map[string]*snapshot.Composite{"outputs": out, "sources": src})
	if Task(m) != Task(same) {
		t.Error("task fingerprint depends on construction order")
	}
	renamed := taskfiles.NewPropertyMap(map[string]*snapshot.Composite{"inputs": src, "outputs": out})
	if Task(m) == Task(renamed) {
		t.Error("property name does not contribute to the task fingerprint")
	}
	fewer := taskfiles.NewPropertyMap(map[string]*snapshot.Composite{"sources": src})
	if Task(m) == Task(fewer) {
		t.Error("removing a property did not change the task fingerprint")
	}
}
