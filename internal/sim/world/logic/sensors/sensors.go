package sensors

import (
	"math/rand"

	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/world/kernel/grid"
	"gridarena.ai/internal/sim/world/kernel/model"
)

// Content kinds reported by radar and vision.
const (
	Open          = "open"
	Wall          = "wall"
	Tank          = "tank"
	Eater         = "eater"
	Taxi          = "taxi"
	HealthCharger = "health"
	EnergyCharger = "energy"
	MissilePack   = "missiles"
	Missile       = "missile"
	Food          = "normalfood"
	BonusFood     = "bonusfood"
	FuelStation   = "fuel"
	Destination   = "destination"
)

type Sight struct {
	Kind  string
	Agent string
	Color string
}

type Radar struct {
	Setting  int
	Distance int
	// Rows[0] is the caster's own row; rows beyond the first blocking cell are nil.
	Rows [][3]*Sight
	// Seen lists agents touched by the cast, in row order.
	Seen []string
}

// Engine computes perception from committed state. It caches radar casts and
// collects radar-wave hits for the current tick.
type Engine struct {
	Map *grid.GridMap
	Rng *rand.Rand

	tick   uint64
	cache  map[radarKey]*Radar
	rwaves map[string]*[4]bool
}

type radarKey struct {
	agent   string
	tick    uint64
	loc     model.Location
	facing  model.Direction
	setting int
}

func New(m *grid.GridMap, rng *rand.Rand) *Engine {
	return &Engine{Map: m, Rng: rng, cache: map[radarKey]*Radar{}, rwaves: map[string]*[4]bool{}}
}

// BeginTick drops the previous tick's radar cache and wave hits.
func (e *Engine) BeginTick(tick uint64) {
	if tick == e.tick {
		return
	}
	e.tick = tick
	e.cache = map[radarKey]*Radar{}
	e.rwaves = map[string]*[4]bool{}
}

// Blocked reports, per absolute direction, whether the adjacent cell is off
// the board, not enterable, or occupied.
func (e *Engine) Blocked(a *model.Agent) [4]bool {
	var out [4]bool
	for _, d := range model.Directions {
		l := a.Loc.Add(d)
		out[d] = !e.Map.Enterable(l) || e.Map.Occupant(l) != nil
	}
	return out
}

// Radar casts the cone for a. The result is cached per (tick, location, facing, setting).
func (e *Engine) Radar(a *model.Agent, setting int) *Radar {
	k := radarKey{agent: a.Name, tick: e.tick, loc: a.Loc, facing: a.Facing, setting: setting}
	if r, ok := e.cache[k]; ok {
		return r
	}
	r := e.cast(a, setting)
	e.cache[k] = r
	for _, name := range r.Seen {
		w := e.rwaves[name]
		if w == nil {
			w = &[4]bool{}
			e.rwaves[name] = w
		}
		w[a.Facing.Backward()] = true
	}
	return r
}

func (e *Engine) cast(a *model.Agent, setting int) *Radar {
	r := &Radar{Setting: setting, Distance: setting, Rows: make([][3]*Sight, setting+1)}
	f := a.Facing
	seen := map[string]bool{}
	note := func(s *Sight) *Sight {
		if s.Agent != "" && s.Agent != a.Name && !seen[s.Agent] {
			seen[s.Agent] = true
			r.Seen = append(r.Seen, s.Agent)
		}
		return s
	}
	for row := 0; row <= setting; row++ {
		center := a.Loc.Step(f, row)
		r.Rows[row] = [3]*Sight{
			note(e.sight(center.Add(f.Left()), a)),
			note(e.sight(center, a)),
			note(e.sight(center.Add(f.Right()), a)),
		}
		if row > 0 && !e.Map.Enterable(center) {
			r.Distance = row
			break
		}
	}
	return r
}

func (e *Engine) sight(l model.Location, self *model.Agent) *Sight {
	c := e.Map.Cell(l)
	if c == nil {
		return &Sight{Kind: Wall}
	}
	if o := c.Occupant; o != nil && o != self {
		return &Sight{Kind: string(o.Kind), Agent: o.Name, Color: o.Color}
	}
	return &Sight{Kind: ContentOf(c)}
}

// ContentOf names the most significant thing in a cell, ignoring its occupant.
func ContentOf(c *grid.Cell) string {
	switch {
	case !c.Enterable():
		return Wall
	case c.Has(catalogs.KindMissile):
		return Missile
	case c.Has(catalogs.KindHealthCharger):
		return HealthCharger
	case c.Has(catalogs.KindEnergyCharger):
		return EnergyCharger
	case c.Has(catalogs.KindMissilePack):
		return MissilePack
	case c.Has(catalogs.KindBonusFood):
		return BonusFood
	case c.Has(catalogs.KindFood):
		return Food
	case c.Has(catalogs.KindFuelStation):
		return FuelStation
	case c.Has(catalogs.KindDestination):
		return Destination
	}
	return Open
}

// RWaves reports, per absolute direction, whether another agent's radar
// touched a this tick. Only valid after every radar for the tick has been cast.
func (e *Engine) RWaves(a *model.Agent) [4]bool {
	if w := e.rwaves[a.Name]; w != nil {
		return *w
	}
	return [4]bool{}
}

// Incoming reports, per absolute direction, a missile on the straight line
// from a whose heading points back at a.
func (e *Engine) Incoming(a *model.Agent) [4]bool {
	var out [4]bool
	for _, d := range model.Directions {
		for l := a.Loc.Add(d); e.Map.Enterable(l); l = l.Add(d) {
			c := e.Map.Cell(l)
			for _, o := range c.Objects() {
				if o.Kind == catalogs.KindMissile && o.Dir == d.Backward() {
					out[d] = true
				}
			}
			if out[d] {
				break
			}
		}
	}
	return out
}
