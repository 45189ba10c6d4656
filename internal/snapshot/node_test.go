package snapshot

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func mustFile(t *testing.T, path, id string) *Node {
	t.Helper()
	n, err := NewFile(path, ContentID(id), Metadata{Size: int64(len(id))})
	if err != nil {
		t.Fatalf("NewFile(%q): %v", path, err)
	}
	return n
}

func mustDir(t *testing.T, path string, children ...*Node) *Node {
	t.Helper()
	n, err := NewDirectory(path, children)
	if err != nil {
		t.Fatalf("NewDirectory(%q): %v", path, err)
	}
	return n
}

func childNames(n *Node) []string {
	out := make([]string, len(n.children))
	for i, c := range n.children {
		out[i] = c.name
	}
	return out
}

func TestNewDirectory_SortsChildren(t *testing.T) {
	dir := mustDir(t, "/p/dir",
		mustFile(t, "/p/dir/zebra.txt", "z"),
		mustFile(t, "/p/dir/apple.txt", "a"),
		mustDir(t, "/p/dir/mango"),
		mustFile(t, "/p/dir/Banana.txt", "b"),
	)
	want := []string{"Banana.txt", "apple.txt", "mango", "zebra.txt"}
	if got := childNames(dir); !slices.Equal(got, want) {
		t.Errorf("children = %v, want %v", got, want)
	}
}

func TestNewDirectory_LeavesInputUntouched(t *testing.T) {
	in := []*Node{
		mustFile(t, "/p/b", "b"),
		mustFile(t, "/p/a", "a"),
	}
	if _, err := NewDirectory("/p", in); err != nil {
		t.Fatal(err)
	}
	if in[0].name != "b" || in[1].name != "a" {
		t.Errorf("input slice was reordered: %v, %v", in[0].name, in[1].name)
	}
}

func TestNewDirectory_RejectsDuplicateNames(t *testing.T) {
	_, err := NewDirectory("/p", []*Node{
		mustFile(t, "/p/a", "1"),
		mustFile(t, "/p/a", "2"),
	})
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("err = %v, want ErrInvariant", err)
	}
	var ie *InvariantError
	if !errors.As(err, &ie) || ie.Path != "/p" {
		t.Errorf("err = %#v, want InvariantError at /p", err)
	}
}

func TestNewDirectory_RejectsForeignChild(t *testing.T) {
	_, err := NewDirectory("/p", []*Node{mustFile(t, "/q/a", "1")})
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("err = %v, want ErrInvariant", err)
	}
}

func TestNewDirectory_RejectsNilChild(t *testing.T) {
	if _, err := NewDirectory("/p", []*Node{nil}); !errors.Is(err, ErrInvariant) {
		t.Fatalf("err = %v, want ErrInvariant", err)
	}
}

func TestNewFile_RejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		path string
		id   ContentID
	}{
		{"relative", "rel/a.txt", "x"},
		{"unclean", "/p/../a.txt", "x"},
		{"empty path", "", "x"},
		{"no identity", "/p/a.txt", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewFile(tc.path, tc.id, Metadata{}); !errors.Is(err, ErrInvariant) {
				t.Errorf("err = %v, want ErrInvariant", err)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	build := func(root, id string) *Node {
		return mustDir(t, root,
			mustFile(t, root+"/a.txt", "A"),
			mustDir(t, root+"/sub", mustFile(t, root+"/sub/b.txt", id)),
		)
	}

	base := build("/p/dir", "B")

	if !base.Equal(build("/p/dir", "B")) {
		t.Error("identical trees should be equal")
	}
	if !base.Equal(build("/elsewhere/dir", "B")) {
		t.Error("equality must not depend on the absolute location")
	}
	if base.Equal(build("/p/dir", "B2")) {
		t.Error("trees with different nested content should differ")
	}
	if base.Equal(build("/p/other", "B")) {
		t.Error("trees with different root names should differ")
	}
	if base.Hash() != build("/q/dir", "B").Hash() {
		t.Error("equal trees must share a structural hash")
	}

	file := mustFile(t, "/p/x", "same")
	dir := mustDir(t, "/p/x")
	if file.Equal(dir) || dir.Equal(file) {
		t.Error("a file never equals a directory")
	}

	withMeta, err := NewFile("/p/x", "same", Metadata{Size: 999})
	if err != nil {
		t.Fatal(err)
	}
	if !file.Equal(withMeta) {
		t.Error("metadata must not take part in equality")
	}

	var nilNode *Node
	if file.Equal(nilNode) {
		t.Error("non-nil node equal to nil")
	}
}

func TestLookup(t *testing.T) {
	leaf := mustFile(t, "/p/dir/sub/file.txt", "F")
	root := mustDir(t, "/p/dir",
		mustDir(t, "/p/dir/sub", leaf),
		mustFile(t, "/p/dir/top.txt", "T"),
	)

	if got, ok := root.Lookup("/p/dir/sub/file.txt"); !ok || got != leaf {
		t.Errorf("Lookup(file) = %v, %v", got, ok)
	}
	if got, ok := root.Lookup("/p/dir"); !ok || got != root {
		t.Errorf("Lookup(self) = %v, %v", got, ok)
	}
	for _, p := range []string{"/p/dir/missing", "/p/dir2", "/p", "/p/dir/top.txt/below"} {
		if _, ok := root.Lookup(p); ok {
			t.Errorf("Lookup(%q) found a node", p)
		}
	}
}

func TestDirectoryOrder_IndependentOfScanOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("children are sorted by name whatever order they arrive in", prop.ForAll(
		func(names []string, seed int64) bool {
			seen := make(map[string]bool)
			var children []*Node
			for _, name := range names {
				if seen[name] {
					continue
				}
				seen[name] = true
				n, err := NewFile("/root/"+name, ContentID("id-"+name), Metadata{})
				if err != nil {
					return false
				}
				children = append(children, n)
			}

			shuffled := slices.Clone(children)
			rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})

			a, errA := NewDirectory("/root", children)
			b, errB := NewDirectory("/root", shuffled)
			if errA != nil || errB != nil {
				return false
			}
			return a.Equal(b) && a.Hash() == b.Hash() && slices.IsSorted(childNames(a))
		},
		gen.SliceOf(gen.Identifier()),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
