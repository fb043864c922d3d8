package grid

import (
	"sort"

	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/world/kernel/model"
)

type Cell struct {
	Loc      model.Location
	Occupant *model.Agent

	objects map[string]*Object
}

// Enterable is true iff no object in the cell blocks.
func (c *Cell) Enterable() bool {
	for _, o := range c.objects {
		if o.Blocking() {
			return false
		}
	}
	return true
}

func (c *Cell) Empty() bool { return c.Occupant == nil && len(c.objects) == 0 }

// Add places o unless an object with the same name is already present.
func (c *Cell) Add(o *Object) bool {
	if o == nil {
		return false
	}
	if c.objects == nil {
		c.objects = map[string]*Object{}
	}
	if _, dup := c.objects[o.Name]; dup {
		return false
	}
	o.Loc = c.Loc
	c.objects[o.Name] = o
	return true
}

func (c *Cell) Remove(name string) *Object {
	o := c.objects[name]
	if o != nil {
		delete(c.objects, name)
	}
	return o
}

func (c *Cell) Get(name string) *Object { return c.objects[name] }

func (c *Cell) Has(k catalogs.Kind) bool {
	for _, o := range c.objects {
		if o.Kind == k {
			return true
		}
	}
	return false
}

// First returns the first object of kind k in name order.
func (c *Cell) First(k catalogs.Kind) *Object {
	for _, o := range c.Objects() {
		if o.Kind == k {
			return o
		}
	}
	return nil
}

// Charger returns the charger in this cell, if any.
func (c *Cell) Charger() *Object {
	for _, o := range c.Objects() {
		if o.Kind.Charger() {
			return o
		}
	}
	return nil
}

// Objects returns the cell contents sorted by instance name.
func (c *Cell) Objects() []*Object {
	if len(c.objects) == 0 {
		return nil
	}
	out := make([]*Object, 0, len(c.objects))
	for _, o := range c.objects {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
