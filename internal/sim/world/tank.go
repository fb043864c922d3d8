package world

import (
	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/world/feature/survival/respawn"
	"gridarena.ai/internal/sim/world/feature/survival/runtime"
	"gridarena.ai/internal/sim/world/kernel/grid"
	"gridarena.ai/internal/sim/world/kernel/model"
	"gridarena.ai/internal/sim/world/logic/ballistics"
	"gridarena.ai/internal/sim/world/logic/collision"
)

// tickState carries what one tick produced for scoring, logging and metrics.
type tickState struct {
	ledger        *ballistics.Ledger
	frags         []ballistics.Frag
	collisions    map[string]int
	missilesFired int
}

func newTickState() *tickState {
	return &tickState{ledger: ballistics.NewLedger(), collisions: map[string]int{}}
}

func (w *World) stepTank(intents []intent, ts *tickState) error {
	cfg := &w.sim.Tank
	agents := w.reg.All()

	for i, a := range agents {
		in := intents[i]
		if in.rotate {
			a.Facing = in.facing
			a.Rotated = true
			w.emit(model.Event{Agent: a.Name, Kind: model.EventRotated, Loc: a.Loc, Detail: a.Facing.String()})
		}
		if in.setShields {
			a.Shields = in.shields
		}
		if in.setRadar {
			a.Radar = in.radar
		}
		if in.radarPower > 0 {
			a.RadarPower = in.radarPower
		}
	}

	res := w.resolveMoves(intents, collision.Params{Penalty: cfg.CollisionPenalty, WallPenalty: cfg.CollisionPenalty}, ts)
	for i, a := range agents {
		if res.Damage[i] == 0 && !res.Lethal[i] {
			continue
		}
		if res.Lethal[i] {
			a.Health = 0
		} else {
			a.Damage(res.Damage[i])
		}
		if !a.Alive() {
			ts.ledger.MarkDead(a.Name)
		}
	}

	eng := ballistics.Engine{Map: w.m, Cfg: cfg, Lookup: w.reg.Get, Frags: ts.ledger}
	var out ballistics.Outcome
	eng.Advance(&out)
	for i, a := range agents {
		if intents[i].fire && a.Alive() {
			eng.Spawn(a, &out)
		}
	}
	w.ageMissiles()
	w.reportBallistics(&out, ts)

	for _, a := range agents {
		if !a.Alive() {
			continue
		}
		up := runtime.Upkeep(a, cfg)
		if up.ShieldsOff {
			w.warn(a.Name, "shields off: out of energy")
		}
		if up.RadarOff {
			w.warn(a.Name, "radar off: out of energy")
		}
		w.pickUp(a)
		c := w.m.Cell(a.Loc)
		if ch := c.Charger(); ch != nil {
			if n := runtime.Charge(a, ch.Kind, ch.Props, cfg); n > 0 {
				w.emit(model.Event{Agent: a.Name, Kind: model.EventCharged, Loc: a.Loc, Amount: n, Detail: string(ch.Kind)})
			}
		}
		a.Clamp(cfg.MaxHealth, cfg.MaxEnergy, cfg.MaxMissiles, cfg.MaxRadar)
	}

	w.respawnMissilePack()
	return w.resolveFrags(ts)
}

// resolveMoves runs the collision resolver and commits the surviving moves.
func (w *World) resolveMoves(intents []intent, p collision.Params, ts *tickState) collision.Result {
	agents := w.reg.All()
	in := make([]collision.Intent, len(agents))
	for i, a := range agents {
		it := collision.Intent{Origin: a.Loc, Dest: a.Loc}
		if c := w.m.Cell(a.Loc); c != nil && c.Charger() != nil {
			it.OnCharger = true
		}
		if intents[i].move && a.Alive() {
			n := 1
			if intents[i].jump {
				n = 2
			}
			it.Move = true
			it.Dest = a.Loc.Step(intents[i].dir, n)
		}
		in[i] = it
	}
	res := collision.Resolve(in, w.m, p)

	for i, a := range agents {
		if res.Moved[i] {
			w.m.ClearOccupant(a.Loc, a)
		}
	}
	for i, a := range agents {
		if !res.Moved[i] {
			continue
		}
		w.placeAgent(a, res.Dest[i])
		a.Moved = true
		w.emit(model.Event{Agent: a.Name, Kind: model.EventMoved, Loc: a.Loc})
	}
	for _, g := range res.Groups {
		ts.collisions[string(g.Kind)]++
		for _, m := range g.Members {
			a := agents[m]
			w.emit(model.Event{Agent: a.Name, Kind: model.EventCollided, Loc: g.Cell, Amount: res.Damage[m], Detail: string(g.Kind)})
		}
	}
	return res
}

func (w *World) reportBallistics(out *ballistics.Outcome, ts *tickState) {
	for _, name := range out.Warnings {
		w.warn(name, "fire with no missiles")
	}
	for _, name := range out.Fired {
		ts.missilesFired++
		a := w.reg.Get(name)
		w.emit(model.Event{Agent: name, Kind: model.EventFired, Loc: a.Loc, Detail: a.Facing.String()})
	}
	for _, h := range out.Hits {
		w.emit(model.Event{Agent: h.Victim, Kind: model.EventHit, Other: h.Shooter, Loc: h.Loc, Amount: h.Damage})
	}
	for _, l := range out.Explosions {
		w.emit(model.Event{Kind: model.EventExploded, Loc: l})
	}
}

// ageMissiles sweeps missiles that outlived the flight bound or lost their owner.
func (w *World) ageMissiles() {
	bound := ballistics.MaxFlightTicks(w.m.Width(), w.m.Height())
	for _, o := range w.m.Missiles() {
		o.Age++
	}
	if n := w.m.PruneKind(catalogs.KindMissile, func(o *grid.Object) bool {
		return o.Age <= bound && w.reg.Get(o.Owner) != nil
	}); n > 0 {
		w.logger.Printf("tick=%d swept %d stale missiles", w.tick, n)
	}
}

// pickUp applies every non-charger object under a, removing consumables.
// It returns how many objects applied and the points they awarded.
func (w *World) pickUp(a *model.Agent) (n, points int) {
	c := w.m.Cell(a.Loc)
	if c == nil {
		return 0, 0
	}
	for _, o := range c.Objects() {
		if !o.Apply(a) {
			continue
		}
		n++
		points += o.Props.Points
		if o.Props.Consumable {
			c.Remove(o.Name)
		}
		w.emit(model.Event{Agent: a.Name, Kind: model.EventPickedUp, Loc: a.Loc, Amount: o.Props.Points + o.Props.MissilesDelta, Detail: o.Template})
	}
	return n, points
}

func (w *World) respawnMissilePack() {
	cfg := &w.sim.Tank
	if cfg.MaxMissilePacks <= 0 || cfg.MissilePackRespawnChance <= 0 {
		return
	}
	if w.m.CountKind(catalogs.KindMissilePack) >= cfg.MaxMissilePacks {
		return
	}
	if w.rng.Intn(100) >= cfg.MissilePackRespawnChance {
		return
	}
	tpl, ok := w.cfg.Catalog.FirstOfKind(catalogs.KindMissilePack)
	if !ok {
		return
	}
	l, ok := respawn.Pick(w.m, w.rng, func(c *grid.Cell) bool { return respawn.Safe(c) && c.Empty() })
	if !ok {
		return
	}
	if _, err := w.m.Place(l, tpl.Name); err != nil {
		w.logger.Printf("tick=%d missile pack: %v", w.tick, err)
	}
}

// resolveFrags credits every assailant, charges the victim once and respawns it.
func (w *World) resolveFrags(ts *tickState) error {
	cfg := &w.sim.Tank
	ts.frags = ts.ledger.Frags()
	for _, f := range ts.frags {
		v := w.reg.Get(f.Victim)
		if v == nil {
			continue
		}
		for _, s := range f.Assailants {
			if a := w.reg.Get(s); a != nil {
				a.AddScore(cfg.KillAward)
				a.Kills++
			}
		}
		v.AddScore(cfg.KillPenalty)
		v.Deaths++
		w.totalFrags++
		other := ""
		if len(f.Assailants) > 0 {
			other = f.Assailants[0]
		}
		w.emit(model.Event{Agent: v.Name, Kind: model.EventFragged, Other: other, Loc: v.Loc})
		if err := w.respawnAgent(v); err != nil {
			return err
		}
	}
	return nil
}
