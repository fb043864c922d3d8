package ballistics

import (
	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world/kernel/grid"
	"gridarena.ai/internal/sim/world/kernel/model"
)

// Lookup resolves an agent by name; nil when unknown.
type Lookup func(name string) *model.Agent

type Hit struct {
	Shooter string         `json:"shooter"`
	Victim  string         `json:"victim"`
	Loc     model.Location `json:"loc"`
	Damage  int            `json:"damage"`
	Lethal  bool           `json:"lethal"`
}

// Outcome collects what the engine did during one tick.
type Outcome struct {
	Fired      []string
	Hits       []Hit
	Explosions []model.Location
	Destroyed  int
	// Warnings name shooters whose fire command was a no-op.
	Warnings []string
}

type Engine struct {
	Map    *grid.GridMap
	Cfg    *tuning.TankConfig
	Lookup Lookup
	Frags  *Ledger
}

// Advance moves every missile already in flight, in ascending id order.
func (e *Engine) Advance(out *Outcome) {
	for _, m := range e.Map.Missiles() {
		if v := e.Map.Occupant(m.Loc); v != nil && crossed(v, m) {
			e.impact(v, m.Owner, m.Loc, out)
			e.destroy(m, m.Loc, out)
			continue
		}
		if m.Phase == grid.PhaseTerminal {
			e.destroy(m, m.Loc, out)
			continue
		}
		next := m.Loc.Add(m.Dir)
		if !e.Map.Enterable(next) {
			// One grace tick so the incoming sensor still sees it.
			m.Phase = grid.PhaseTerminal
			continue
		}
		if v := e.Map.Occupant(next); v != nil {
			e.impact(v, m.Owner, next, out)
			e.destroy(m, next, out)
			continue
		}
		e.Map.MoveObject(m, next)
		m.Phase = grid.PhaseFlying
	}
}

// crossed reports whether a moved into the missile's cell from the cell the
// missile is heading for, i.e. the two swapped places head-on.
func crossed(a *model.Agent, m *grid.Object) bool {
	return a.Moved && a.From == m.Loc.Add(m.Dir)
}

// Spawn fires one missile for the shooter. Call after Advance so a new
// missile does not move on the tick it appears.
func (e *Engine) Spawn(shooter *model.Agent, out *Outcome) {
	if shooter.Missiles <= 0 {
		out.Warnings = append(out.Warnings, shooter.Name)
		return
	}
	shooter.Missiles--
	out.Fired = append(out.Fired, shooter.Name)

	at := shooter.Loc.Add(shooter.Facing)
	switch {
	case !e.Map.InBounds(at):
		return
	case !e.Map.Enterable(at):
		e.explode(at, out)
		return
	}
	if v := e.Map.Occupant(at); v != nil {
		e.impact(v, shooter.Name, at, out)
		e.explode(at, out)
		return
	}
	tpl, ok := e.Map.Catalog().FirstOfKind(catalogs.KindMissile)
	if !ok {
		return
	}
	m := grid.NewMissile(tpl, e.Map.NextObjectID(), shooter.Name, shooter.Facing)
	e.Map.AddObject(at, m)
}

func (e *Engine) impact(victim *model.Agent, shooter string, at model.Location, out *Outcome) {
	dmg := e.Cfg.MissileDamage
	if victim.Shields {
		absorbed := dmg
		if absorbed > victim.Energy {
			absorbed = victim.Energy
		}
		victim.Energy -= absorbed
		dmg -= absorbed
	}
	lethal := false
	if c := e.Map.Cell(victim.Loc); c != nil && c.Charger() != nil {
		lethal = true
		dmg = victim.Health
	}
	victim.Damage(dmg)
	victim.AddScore(e.Cfg.MissileHitPenalty)
	if s := e.Lookup(shooter); s != nil && s != victim {
		s.AddScore(e.Cfg.MissileHitAward)
		s.Hits++
	}
	out.Hits = append(out.Hits, Hit{Shooter: shooter, Victim: victim.Name, Loc: at, Damage: dmg, Lethal: lethal})
	if e.Frags != nil {
		if shooter != victim.Name {
			e.Frags.Hit(victim.Name, shooter)
		}
		if !victim.Alive() {
			e.Frags.MarkDead(victim.Name)
		}
	}
}

func (e *Engine) destroy(m *grid.Object, at model.Location, out *Outcome) {
	e.Map.RemoveObject(m)
	out.Destroyed++
	e.explode(at, out)
}

func (e *Engine) explode(at model.Location, out *Outcome) {
	// A second explosion on the same cell in one tick is a no-op.
	if e.Map.PlaceExplosion(at) {
		out.Explosions = append(out.Explosions, at)
	}
}

// MaxFlightTicks bounds how long any missile can stay on a w×h board.
func MaxFlightTicks(w, h int) int {
	if w > h {
		return w + 2
	}
	return h + 2
}
