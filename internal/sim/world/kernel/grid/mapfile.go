package grid

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/world/kernel/model"
)

// AgentStart pins an agent's starting cell. Agents without a position get a random free cell.
type AgentStart struct {
	Name   string `yaml:"name" json:"name"`
	Color  string `yaml:"color" json:"color,omitempty"`
	X      *int   `yaml:"x" json:"x,omitempty"`
	Y      *int   `yaml:"y" json:"y,omitempty"`
	Facing string `yaml:"facing" json:"facing,omitempty"`
}

func (s AgentStart) Location() (model.Location, bool) {
	if s.X == nil || s.Y == nil {
		return model.Location{}, false
	}
	return model.Location{X: *s.X, Y: *s.Y}, true
}

// MapDef is the loader's view of a map: one row string per line, one rune per cell.
type MapDef struct {
	Name   string              `yaml:"name" json:"name"`
	Mode   string              `yaml:"mode" json:"mode,omitempty"`
	Legend map[string][]string `yaml:"legend" json:"legend,omitempty"`
	Rows   []string            `yaml:"rows" json:"rows"`
	Agents []AgentStart        `yaml:"agents" json:"agents,omitempty"`
}

func LoadMapFile(path string) (MapDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return MapDef{}, err
	}
	d, err := ParseMap(raw)
	if err != nil {
		return d, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if d.Name == "" {
		d.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return d, nil
}

func ParseMap(raw []byte) (MapDef, error) {
	var d MapDef
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return d, err
	}
	return d, d.Validate()
}

// Validate checks the board is a non-empty square.
func (d MapDef) Validate() error {
	n := len(d.Rows)
	if n == 0 {
		return fmt.Errorf("map has no rows")
	}
	for i, r := range d.Rows {
		if w := len([]rune(r)); w != n {
			return fmt.Errorf("row %d has %d cells, want %d (maps are square)", i, w, n)
		}
	}
	for sym := range d.Legend {
		if len([]rune(sym)) != 1 {
			return fmt.Errorf("legend symbol %q must be a single character", sym)
		}
	}
	return nil
}

func (d MapDef) templatesFor(sym string, cat *catalogs.Catalog) ([]string, error) {
	if names, ok := d.Legend[sym]; ok {
		return names, nil
	}
	if sym == " " || sym == "_" {
		return nil, nil
	}
	if name, ok := cat.BySymbol[sym]; ok {
		return []string{name}, nil
	}
	return nil, fmt.Errorf("unknown map symbol %q", sym)
}

// Build instantiates the map's objects against the template library.
func (d MapDef) Build(cat *catalogs.Catalog) (*GridMap, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if cat == nil {
		cat = catalogs.Builtin()
	}
	n := len(d.Rows)
	m := New(n, n, cat)
	for y, row := range d.Rows {
		for x, r := range []rune(row) {
			names, err := d.templatesFor(string(r), cat)
			if err != nil {
				return nil, fmt.Errorf("cell (%d,%d): %w", x, y, err)
			}
			for _, name := range names {
				if _, err := m.Place(model.Location{X: x, Y: y}, name); err != nil {
					return nil, fmt.Errorf("cell (%d,%d): %w", x, y, err)
				}
			}
		}
	}
	return m, nil
}
