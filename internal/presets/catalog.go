// Package presets loads the static catalog of predefined action presets.
// The catalog's shipped content is out of scope (it is fixture data); the
// loader/merge logic is what this package implements.
package presets

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/n1shantvarma/tapvolt-app/pkg/protocol"
)

//go:embed default.yaml
var defaultFS embed.FS

// Preset is a named, reusable Action template. Presets carry no
// engine-state of their own; resolving one just copies its Steps into a
// sendAction call.
type Preset struct {
	ID          string          `yaml:"id"`
	Label       string          `yaml:"label"`
	Description string          `yaml:"description"`
	Steps       []protocol.Step `yaml:"steps"`
}

type catalogFile struct {
	Presets []Preset `yaml:"presets"`
}

// Catalog is a read-only, ID-indexed set of presets.
type Catalog struct {
	byID map[string]Preset
	ids  []string
}

// Load reads the embedded default catalog, then overlays a user file at
// overridePath if present, with user entries taking precedence by ID.
func Load(overridePath string) (*Catalog, error) {
	defaults, err := parseFS(defaultFS, "default.yaml")
	if err != nil {
		return nil, fmt.Errorf("presets: failed to parse embedded default catalog: %w", err)
	}

	c := newCatalog(defaults)

	if overridePath == "" {
		return c, nil
	}
	data, err := os.ReadFile(overridePath)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("presets: failed to read override catalog: %w", err)
	}
	var overrides catalogFile
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("presets: failed to parse override catalog: %w", err)
	}
	for _, p := range overrides.Presets {
		c.put(p)
	}
	return c, nil
}

func parseFS(fsys embed.FS, name string) (catalogFile, error) {
	data, err := fsys.ReadFile(name)
	if err != nil {
		return catalogFile{}, err
	}
	var out catalogFile
	if err := yaml.Unmarshal(data, &out); err != nil {
		return catalogFile{}, err
	}
	return out, nil
}

func newCatalog(f catalogFile) *Catalog {
	c := &Catalog{byID: make(map[string]Preset, len(f.Presets))}
	for _, p := range f.Presets {
		c.put(p)
	}
	return c
}

func (c *Catalog) put(p Preset) {
	if _, exists := c.byID[p.ID]; !exists {
		c.ids = append(c.ids, p.ID)
	}
	c.byID[p.ID] = p
}

// Get resolves a preset by id.
func (c *Catalog) Get(id string) (Preset, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// List returns all presets, in the order first encountered (embedded
// defaults first, then override-only additions).
func (c *Catalog) List() []Preset {
	out := make([]Preset, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out
}
