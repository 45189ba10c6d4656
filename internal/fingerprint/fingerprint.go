// Package fingerprint reduces composite snapshots to short, stable strings
// suitable for recording and later comparison.
package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	"hash"
	"path/filepath"

	"lukechampine.com/blake3"

	"github.com/starford/filesnap/internal/snapshot"
	"github.com/starford/filesnap/internal/taskfiles"
)

const size = 32

const (
	tagAbsent  byte = 'A'
	tagPresent byte = 'P'
	tagDirOpen byte = 'D'
	tagDirEnd  byte = 'U'
	tagFile    byte = 'F'
)

// Composite returns the fingerprint of c. Equal composites have equal
// fingerprints; absent roots, the empty composite and root order all
// contribute, so an absent root never collides with an empty property.
func Composite(c *snapshot.Composite) string {
	h := blake3.New(size, nil)
	writeComposite(h, c)
	return hex.EncodeToString(h.Sum(nil))
}

func writeComposite(h hash.Hash, c *snapshot.Composite) {
	w := writer{h}
	if c == nil {
		w.uint(0)
		return
	}
	paths := c.RootPaths()
	absent := make(map[string]struct{})
	for _, p := range c.AbsentPaths() {
		absent[p] = struct{}{}
	}
	w.uint(uint64(len(paths)))
	for _, p := range paths {
		if _, ok := absent[p]; ok {
			w.tag(tagAbsent)
			w.field(filepath.Base(p))
			continue
		}
		w.tag(tagPresent)
	}
	c.Accept(&streamVisitor{w: w})
}

// Properties fingerprints every property of m.
func Properties(m *taskfiles.PropertyMap) map[string]string {
	out := make(map[string]string, m.Len())
	m.Range(func(name string, c *snapshot.Composite) bool {
		out[name] = Composite(c)
		return true
	})
	return out
}

// Task combines the fingerprints of every property into one value that
// changes whenever any property changes or a property is added or removed.
func Task(m *taskfiles.PropertyMap) string {
	h := blake3.New(size, nil)
	w := writer{h}
	w.uint(uint64(m.Len()))
	m.Range(func(name string, c *snapshot.Composite) bool {
		w.field(name)
		w.field(Composite(c))
		return true
	})
	return hex.EncodeToString(h.Sum(nil))
}

type streamVisitor struct {
	w writer
}

func (v *streamVisitor) PreVisitDirectory(dir *snapshot.Node) bool {
	v.w.tag(tagDirOpen)
	v.w.field(dir.Name())
	return true
}

func (v *streamVisitor) VisitFile(file *snapshot.Node) {
	v.w.tag(tagFile)
	v.w.field(file.Name())
	v.w.field(string(file.ContentID()))
}

func (v *streamVisitor) PostVisitDirectory(*snapshot.Node) {
	v.w.tag(tagDirEnd)
}

// writer frames fields with a length prefix so adjacent values cannot run
// together.
type writer struct {
	h hash.Hash
}

func (w writer) tag(b byte) { w.h.Write([]byte{b}) }

func (w writer) uint(n uint64) { w.h.Write(binary.BigEndian.AppendUint64(nil, n)) }

func (w writer) field(s string) {
	w.uint(uint64(len(s)))
	w.h.Write([]byte(s))
}
