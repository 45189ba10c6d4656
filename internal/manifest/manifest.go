// Package manifest reads task declarations from a YAML manifest.
//
//	tasks:
//	  - name: compile
//	    properties:
//	      - name: sources
//	        roots: [src]
//	        exclude: ["**/*.tmp"]
//
// Relative roots are resolved against the workspace root.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/filesnap/internal/apperr"
	"github.com/starford/filesnap/internal/models"
	pkgconfig "github.com/starford/filesnap/pkg/config"
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

type manifestFile struct {
	Tasks []taskDecl `yaml:"tasks"`
}

type taskDecl struct {
	Name       string         `yaml:"name"`
	Properties []propertyDecl `yaml:"properties"`
}

type propertyDecl struct {
	Name    string   `yaml:"name"`
	Roots   []string `yaml:"roots"`
	Exclude []string `yaml:"exclude"`
}

func (m *manifestFile) Validate() error {
	if err := validation.ValidateStruct(m,
		validation.Field(&m.Tasks),
	); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(m.Tasks))
	for _, t := range m.Tasks {
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("task %q declared twice", t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}

func (t taskDecl) Validate() error {
	if err := validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required, validation.Match(nameRe)),
		validation.Field(&t.Properties),
	); err != nil {
		return fmt.Errorf("task %q: %w", t.Name, err)
	}
	seen := make(map[string]struct{}, len(t.Properties))
	for _, p := range t.Properties {
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("task %q: property %q declared twice", t.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

func (p propertyDecl) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Match(nameRe)),
		validation.Field(&p.Roots, validation.Each(validation.Required)),
		validation.Field(&p.Exclude, validation.Each(validation.Required, validation.By(validPattern))),
	)
}

func validPattern(value interface{}) error {
	s, _ := value.(string)
	if !doublestar.ValidatePattern(s) {
		return errors.New("must be a valid glob pattern")
	}
	return nil
}

// Parse decodes and validates a manifest. Relative roots are joined to root,
// which must itself be absolute.
func Parse(data []byte, root string) ([]models.Task, error) {
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("manifest: workspace root %q is not absolute: %w", root, apperr.ErrInvalid)
	}
	var m manifestFile
	if err := pkgconfig.Decode(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: %w: %w", apperr.ErrInvalid, err)
	}

	tasks := make([]models.Task, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		task := models.Task{Name: t.Name, Properties: make([]models.FileProperty, 0, len(t.Properties))}
		for _, p := range t.Properties {
			task.Properties = append(task.Properties, models.FileProperty{
				Name: p.Name,
				Files: models.FileCollection{
					Roots:   resolveRoots(root, p.Roots),
					Exclude: p.Exclude,
				},
			})
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Load reads and parses the manifest at path.
func Load(path, root string) ([]models.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	return Parse(data, root)
}

func resolveRoots(root string, roots []string) []string {
	out := make([]string, len(roots))
	for i, r := range roots {
		if !filepath.IsAbs(r) {
			r = filepath.Join(root, r)
		}
		out[i] = filepath.Clean(r)
	}
	return out
}
