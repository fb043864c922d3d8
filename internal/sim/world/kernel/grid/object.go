package grid

import (
	"fmt"

	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/world/kernel/model"
)

// Missile flight phases.
const (
	PhaseSpawned  = 0
	PhaseFlying   = 1
	PhaseTerminal = 2
)

// Object is a template instance living on one cell.
type Object struct {
	Name     string // unique within its cell
	Template string
	Kind     catalogs.Kind
	Props    catalogs.Props
	Loc      model.Location
	Age      int

	Properties map[string]string

	// Missile fields.
	ID    int
	Owner string
	Dir   model.Direction
	Phase int
}

func NewObject(t catalogs.Template) *Object {
	o := &Object{
		Name:     t.Name,
		Template: t.Name,
		Kind:     t.Kind,
		Props:    t.Props,
	}
	if len(t.Properties) > 0 {
		o.Properties = make(map[string]string, len(t.Properties))
		for k, v := range t.Properties {
			o.Properties[k] = v
		}
	}
	return o
}

// NewMissile instantiates a missile template with its own instance name so
// several missiles may share a cell.
func NewMissile(t catalogs.Template, id int, owner string, dir model.Direction) *Object {
	o := NewObject(t)
	o.Name = fmt.Sprintf("%s#%d", t.Name, id)
	o.ID = id
	o.Owner = owner
	o.Dir = dir
	o.Phase = PhaseSpawned
	return o
}

func (o *Object) Blocking() bool { return o.Props.Blocking }

// Update ages an updatable object by one tick and reports whether it should be removed.
// Flight objects are driven by the ballistics engine instead.
func (o *Object) Update() (remove bool) {
	switch o.Props.Update {
	case catalogs.UpdateLifetime:
		o.Age++
		return o.Age >= o.Props.Lifetime
	}
	return false
}

// Apply adds the object's effects to the occupant and reports whether anything changed.
// Chargers are handled by the orchestrator since they depend on configuration caps.
func (o *Object) Apply(a *model.Agent) bool {
	p := o.Props
	if a == nil || !p.Applies() || o.Kind.Charger() {
		return false
	}
	a.AddScore(p.Points)
	a.Health += p.HealthDelta
	a.Energy += p.EnergyDelta
	a.Missiles += p.MissilesDelta
	return true
}
