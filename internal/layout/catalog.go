package layout

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the set of widgets a fresh dashboard starts with.
type Catalog struct {
	Version int               `yaml:"version"`
	Grid    Grid              `yaml:"grid"`
	Widgets []Widget          `yaml:"widgets"`
	Configs map[string]Config `yaml:"configs"`
}

// DefaultCatalog parses the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file, falling back to the built-in one when
// path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that the catalog can be used as a default layout.
func (c *Catalog) Validate() error {
	var errs []error
	if c.Version <= 0 {
		errs = append(errs, errors.New("catalog version must be positive"))
	}
	if err := c.Grid.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Widgets) == 0 {
		errs = append(errs, errors.New("catalog has no widgets"))
	}
	seen := make(map[string]bool, len(c.Widgets))
	for _, w := range c.Widgets {
		if err := w.Validate(); err != nil {
			errs = append(errs, err)
		}
		if seen[w.ID] {
			errs = append(errs, fmt.Errorf("duplicate widget id %q", w.ID))
		}
		seen[w.ID] = true
	}
	for id := range c.Configs {
		if !seen[id] {
			errs = append(errs, fmt.Errorf("config for unknown widget %q", id))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}
	return nil
}

// State returns the default layout described by the catalog. Every widget
// gets a config entry, empty when the catalog has none.
func (c *Catalog) State() State {
	s := State{
		Version: c.Version,
		Widgets: c.Widgets,
		Configs: make(map[string]Config, len(c.Widgets)),
		Grid:    c.Grid,
	}
	for _, w := range c.Widgets {
		s.Configs[w.ID] = Config{}
	}
	for id, cfg := range c.Configs {
		if n, err := normalize(cfg); err == nil {
			s.Configs[id] = n
		}
	}
	return s.Clone()
}
