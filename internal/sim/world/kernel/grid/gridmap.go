package grid

import (
	"fmt"
	"sort"

	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/world/kernel/model"
)

// GridMap is the board. It is owned by the world for the duration of a tick.
type GridMap struct {
	width, height int
	cells         []Cell
	cat           *catalogs.Catalog

	nextObjectID int
}

func New(width, height int, cat *catalogs.Catalog) *GridMap {
	if cat == nil {
		cat = catalogs.Builtin()
	}
	m := &GridMap{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
		cat:    cat,
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.cells[y*width+x].Loc = model.Location{X: x, Y: y}
		}
	}
	return m
}

func (m *GridMap) Width() int                  { return m.width }
func (m *GridMap) Height() int                 { return m.height }
func (m *GridMap) Catalog() *catalogs.Catalog  { return m.cat }
func (m *GridMap) Linear(l model.Location) int { return l.Y*m.width + l.X }

func (m *GridMap) InBounds(l model.Location) bool {
	return l.X >= 0 && l.Y >= 0 && l.X < m.width && l.Y < m.height
}

// Cell returns nil outside the board.
func (m *GridMap) Cell(l model.Location) *Cell {
	if !m.InBounds(l) {
		return nil
	}
	return &m.cells[m.Linear(l)]
}

// Enterable is false outside the board.
func (m *GridMap) Enterable(l model.Location) bool {
	c := m.Cell(l)
	return c != nil && c.Enterable()
}

func (m *GridMap) Occupant(l model.Location) *model.Agent {
	if c := m.Cell(l); c != nil {
		return c.Occupant
	}
	return nil
}

func (m *GridMap) SetOccupant(l model.Location, a *model.Agent) {
	if c := m.Cell(l); c != nil {
		c.Occupant = a
	}
}

func (m *GridMap) ClearOccupant(l model.Location, a *model.Agent) {
	if c := m.Cell(l); c != nil && c.Occupant == a {
		c.Occupant = nil
	}
}

// Place instantiates the named template on l.
func (m *GridMap) Place(l model.Location, template string) (*Object, error) {
	t, ok := m.cat.Get(template)
	if !ok {
		return nil, fmt.Errorf("unknown template %q", template)
	}
	c := m.Cell(l)
	if c == nil {
		return nil, fmt.Errorf("place %s: %v out of bounds", template, l)
	}
	o := NewObject(t)
	if !c.Add(o) {
		return nil, fmt.Errorf("place %s: %v already holds one", template, l)
	}
	return o, nil
}

func (m *GridMap) AddObject(l model.Location, o *Object) bool {
	c := m.Cell(l)
	return c != nil && c.Add(o)
}

func (m *GridMap) RemoveObject(o *Object) {
	if o == nil {
		return
	}
	if c := m.Cell(o.Loc); c != nil && c.Get(o.Name) == o {
		c.Remove(o.Name)
	}
}

// MoveObject relocates o to l, keeping its instance name.
func (m *GridMap) MoveObject(o *Object, l model.Location) bool {
	dst := m.Cell(l)
	if dst == nil || dst.Get(o.Name) != nil {
		return false
	}
	m.RemoveObject(o)
	return dst.Add(o)
}

func (m *GridMap) NextObjectID() int {
	m.nextObjectID++
	return m.nextObjectID
}

// Each visits cells in row-major order.
func (m *GridMap) Each(fn func(c *Cell)) {
	for i := range m.cells {
		fn(&m.cells[i])
	}
}

// Missiles returns every missile on the board ordered by id.
func (m *GridMap) Missiles() []*Object {
	var out []*Object
	for i := range m.cells {
		for _, o := range m.cells[i].objects {
			if o.Kind == catalogs.KindMissile {
				out = append(out, o)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *GridMap) CountKind(k catalogs.Kind) int {
	n := 0
	for i := range m.cells {
		for _, o := range m.cells[i].objects {
			if o.Kind == k {
				n++
			}
		}
	}
	return n
}

// PlaceExplosion adds the catalog's explosion marker at l. It reports false
// when the catalog has no explosion template or l already holds one.
func (m *GridMap) PlaceExplosion(l model.Location) bool {
	t, ok := m.cat.FirstOfKind(catalogs.KindExplosion)
	if !ok || !m.InBounds(l) {
		return false
	}
	return m.AddObject(l, NewObject(t))
}

// LocationsOf lists, in row-major order, the cells holding an object of kind k.
func (m *GridMap) LocationsOf(k catalogs.Kind) []model.Location {
	var out []model.Location
	for i := range m.cells {
		if m.cells[i].Has(k) {
			out = append(out, m.cells[i].Loc)
		}
	}
	return out
}

// UpdateObjects ages lifetime objects and removes the expired ones.
func (m *GridMap) UpdateObjects() []*Object {
	var removed []*Object
	for i := range m.cells {
		c := &m.cells[i]
		for _, o := range c.Objects() {
			if o.Props.Update != catalogs.UpdateLifetime {
				continue
			}
			if o.Update() {
				c.Remove(o.Name)
				removed = append(removed, o)
			}
		}
	}
	return removed
}

// PruneKind removes every object of kind k for which keep reports false.
func (m *GridMap) PruneKind(k catalogs.Kind, keep func(o *Object) bool) int {
	n := 0
	for i := range m.cells {
		c := &m.cells[i]
		for _, o := range c.Objects() {
			if o.Kind != k || keep(o) {
				continue
			}
			c.Remove(o.Name)
			n++
		}
	}
	return n
}
