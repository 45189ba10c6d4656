// Package models defines the task declarations snapshotted by filesnap.
package models

// Task is a unit of work whose file properties are snapshotted together.
type Task struct {
	Name       string         `json:"name" yaml:"name"`
	Properties []FileProperty `json:"properties" yaml:"properties"`
}

// FileProperty is one declared input or output file property of a task.
type FileProperty struct {
	Name  string         `json:"name" yaml:"name"`
	Files FileCollection `json:"files" yaml:",inline"`
}

// FileCollection lists the roots observed by a property.
//
// Roots are absolute once a manifest has been resolved. Exclude holds
// doublestar patterns matched against the slash-separated path of an entry
// relative to the root being scanned.
type FileCollection struct {
	Roots   []string `json:"roots" yaml:"roots"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// Property returns the declared property called name.
func (t Task) Property(name string) (FileProperty, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return FileProperty{}, false
}

// Roots returns every root declared by the task, in declaration order.
func (t Task) Roots() []string {
	var out []string
	for _, p := range t.Properties {
		out = append(out, p.Files.Roots...)
	}
	return out
}
