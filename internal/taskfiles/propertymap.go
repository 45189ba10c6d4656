package taskfiles

import (
	"slices"

	"github.com/starford/filesnap/internal/snapshot"
)

// PropertyMap maps property names to their composite snapshots. Iteration is
// always in ascending lexicographic order of name. A PropertyMap is immutable
// and safe to share.
type PropertyMap struct {
	keys   []string
	values map[string]*snapshot.Composite
}

// NewPropertyMap builds a map from entries. Nil composites are stored as
// empty composites.
func NewPropertyMap(entries map[string]*snapshot.Composite) *PropertyMap {
	m := &PropertyMap{
		keys:   make([]string, 0, len(entries)),
		values: make(map[string]*snapshot.Composite, len(entries)),
	}
	for name, c := range entries {
		if c == nil {
			c = emptyComposite()
		}
		m.keys = append(m.keys, name)
		m.values[name] = c
	}
	slices.Sort(m.keys)
	return m
}

// Len returns the number of properties.
func (m *PropertyMap) Len() int { return len(m.keys) }

// Keys returns the property names in ascending order.
func (m *PropertyMap) Keys() []string { return slices.Clone(m.keys) }

// Get returns the composite for a property.
func (m *PropertyMap) Get(name string) (*snapshot.Composite, bool) {
	c, ok := m.values[name]
	return c, ok
}

// Range calls fn for each property in ascending name order until fn
// returns false.
func (m *PropertyMap) Range(fn func(name string, c *snapshot.Composite) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Equal reports whether both maps hold the same properties with equal
// composites.
func (m *PropertyMap) Equal(other *PropertyMap) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil || !slices.Equal(m.keys, other.keys) {
		return false
	}
	for _, k := range m.keys {
		if !m.values[k].Equal(other.values[k]) {
			return false
		}
	}
	return true
}

func emptyComposite() *snapshot.Composite {
	c, _ := snapshot.Compose(nil)
	return c
}
