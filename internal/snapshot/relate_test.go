package snapshot

import "testing"

func TestRelate(t *testing.T) {
	cases := []struct {
		a, b string
		want Relation
	}{
		{"/p/dir", "/p/dir", Same},
		{"/p/dir", "/p/dir/sub/file.txt", Ancestor},
		{"/p/dir/sub", "/p/dir", Descendant},
		{"/p/dir", "/p/dir2", Unrelated},
		{"/p/dir2", "/p/dir", Unrelated},
		{"/p/a", "/p/b", Unrelated},
		{"/", "/p", Ancestor},
		{"/p", "/", Descendant},
	}
	for _, tc := range cases {
		if got := Relate(tc.a, tc.b); got != tc.want {
			t.Errorf("Relate(%q, %q) = %s, want %s", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestIsCanonicalPath(t *testing.T) {
	cases := map[string]bool{
		"/p/dir":     true,
		"/":          true,
		"":           false,
		"p/dir":      false,
		"/p/dir/":    false,
		"/p/../dir":  false,
		"/p//dir":    false,
		"/p/./dir":   false,
		"/p/dir.txt": true,
	}
	for p, want := range cases {
		if got := IsCanonicalPath(p); got != want {
			t.Errorf("IsCanonicalPath(%q) = %v, want %v", p, got, want)
		}
	}
}
