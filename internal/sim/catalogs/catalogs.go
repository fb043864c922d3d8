package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the closed set of cell object behaviours the engine knows how to run.
type Kind string

const (
	KindWall          Kind = "wall"
	KindHealthCharger Kind = "health-charger"
	KindEnergyCharger Kind = "energy-charger"
	KindMissilePack   Kind = "missile-pack"
	KindMissile       Kind = "missile"
	KindExplosion     Kind = "explosion"
	KindFood          Kind = "food"
	KindBonusFood     Kind = "bonus-food"
	KindFuelStation   Kind = "fuel-station"
	KindDestination   Kind = "destination"
	KindPassenger     Kind = "passenger"
	KindDecoration    Kind = "decoration"
)

var knownKinds = map[Kind]struct{}{
	KindWall:          {},
	KindHealthCharger: {},
	KindEnergyCharger: {},
	KindMissilePack:   {},
	KindMissile:       {},
	KindExplosion:     {},
	KindFood:          {},
	KindBonusFood:     {},
	KindFuelStation:   {},
	KindDestination:   {},
	KindPassenger:     {},
	KindDecoration:    {},
}

func (k Kind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

func (k Kind) Charger() bool { return k == KindHealthCharger || k == KindEnergyCharger }

// UpdateKind selects the per-tick aging behaviour of an updatable object.
type UpdateKind string

const (
	UpdateNone     UpdateKind = ""
	UpdateLifetime UpdateKind = "lifetime" // removed after Lifetime ticks
	UpdateFlight   UpdateKind = "flight"   // advanced by the ballistics engine
)

// Props are the typed behaviour fields of a template.
type Props struct {
	Blocking      bool       `yaml:"blocking" json:"blocking,omitempty"`
	Consumable    bool       `yaml:"consumable" json:"consumable,omitempty"`
	Points        int        `yaml:"points" json:"points,omitempty"`
	HealthDelta   int        `yaml:"health_delta" json:"health_delta,omitempty"`
	EnergyDelta   int        `yaml:"energy_delta" json:"energy_delta,omitempty"`
	MissilesDelta int        `yaml:"missiles_delta" json:"missiles_delta,omitempty"`
	Update        UpdateKind `yaml:"update" json:"update,omitempty"`
	Lifetime      int        `yaml:"lifetime" json:"lifetime,omitempty"`
	Color         string     `yaml:"color" json:"color,omitempty"`
}

// Applies reports whether entering the cell has an effect on the occupant.
func (p Props) Applies() bool {
	return p.Points != 0 || p.HealthDelta != 0 || p.EnergyDelta != 0 || p.MissilesDelta != 0
}

type Template struct {
	Name   string `yaml:"name" json:"name"`
	Kind   Kind   `yaml:"kind" json:"kind"`
	Symbol string `yaml:"symbol" json:"symbol,omitempty"`
	Props  `yaml:",inline"`
	// Properties carries free-form data for renderers and loaders.
	Properties map[string]string `yaml:"properties" json:"properties,omitempty"`
}

type Catalog struct {
	ByName   map[string]Template
	BySymbol map[string]string
	Names    []string
	Digest   string
}

type file struct {
	Templates []Template `yaml:"templates"`
}

// Load reads <dir>/templates.yaml.
func Load(configDir string) (*Catalog, error) {
	return LoadFile(filepath.Join(configDir, "templates.yaml"))
}

func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return c, nil
}

func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	c, err := build(f.Templates)
	if err != nil {
		return nil, err
	}
	c.Digest = sha256Hex(raw)
	return c, nil
}

func build(defs []Template) (*Catalog, error) {
	c := &Catalog{
		ByName:   map[string]Template{},
		BySymbol: map[string]string{},
	}
	for _, t := range defs {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			return nil, fmt.Errorf("template with empty name")
		}
		if !t.Kind.Valid() {
			return nil, fmt.Errorf("template %s: unknown kind %q", t.Name, t.Kind)
		}
		if _, dup := c.ByName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate template %s", t.Name)
		}
		if t.Kind == KindWall {
			t.Blocking = true
		}
		if t.Update == UpdateLifetime && t.Lifetime <= 0 {
			t.Lifetime = 1
		}
		if t.Symbol != "" {
			if prev, dup := c.BySymbol[t.Symbol]; dup {
				return nil, fmt.Errorf("templates %s and %s share symbol %q", prev, t.Name, t.Symbol)
			}
			c.BySymbol[t.Symbol] = t.Name
		}
		c.ByName[t.Name] = t
	}
	c.Names = make([]string, 0, len(c.ByName))
	for n := range c.ByName {
		c.Names = append(c.Names, n)
	}
	sort.Strings(c.Names)
	return c, nil
}

// FromTemplates builds a catalog from in-memory definitions, e.g. ones
// recorded in a run header.
func FromTemplates(defs []Template) (*Catalog, error) {
	c, err := build(defs)
	if err != nil {
		return nil, err
	}
	raw, err := yaml.Marshal(file{Templates: defs})
	if err != nil {
		return nil, err
	}
	c.Digest = sha256Hex(raw)
	return c, nil
}

// Templates lists the definitions in name order.
func (c *Catalog) Templates() []Template {
	out := make([]Template, 0, len(c.Names))
	for _, n := range c.Names {
		out = append(out, c.ByName[n])
	}
	return out
}

// Get returns the named template.
func (c *Catalog) Get(name string) (Template, bool) {
	if c == nil {
		return Template{}, false
	}
	t, ok := c.ByName[name]
	return t, ok
}

// FirstOfKind returns the alphabetically first template with the given kind.
func (c *Catalog) FirstOfKind(k Kind) (Template, bool) {
	if c == nil {
		return Template{}, false
	}
	for _, n := range c.Names {
		if t := c.ByName[n]; t.Kind == k {
			return t, true
		}
	}
	return Template{}, false
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
