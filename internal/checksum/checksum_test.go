package checksum

import (
	"strings"
	"testing"
)

func TestSum_Stable(t *testing.T) {
	a := Sum([]byte("hello"))
	b := Sum([]byte("hello"))
	if a != b {
		t.Errorf("same content gave %q and %q", a, b)
	}
	if a == Sum([]byte("hello!")) {
		t.Error("different content gave the same token")
	}
}

func TestContentID_MatchesSum(t *testing.T) {
	id, err := ContentID(strings.NewReader("streamed content"))
	if err != nil {
		t.Fatal(err)
	}
	if id != Sum([]byte("streamed content")) {
		t.Errorf("ContentID = %q, Sum = %q", id, Sum([]byte("streamed content")))
	}
}

func TestValid(t *testing.T) {
	if id := Sum(nil); !Valid(id) {
		t.Errorf("Valid(%q) = false", id)
	}
	if !strings.HasPrefix(Sum(nil), "b") {
		t.Error("token should use the base32 multibase prefix")
	}
	for _, bad := range []string{"", "not-a-cid", "zQmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"} {
		if Valid(bad) {
			t.Errorf("Valid(%q) = true", bad)
		}
	}
}
