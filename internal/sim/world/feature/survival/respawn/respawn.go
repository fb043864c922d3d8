package respawn

import (
	"math/rand"

	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world/kernel/grid"
	"gridarena.ai/internal/sim/world/kernel/model"
)

// Reset restores per-life state for a fresh or fragged agent. Score and
// cumulative kill/death counters survive.
func Reset(a *model.Agent, cfg *tuning.SimConfig) {
	if a == nil {
		return
	}
	switch a.Kind {
	case model.KindTank:
		a.Health = cfg.Tank.MaxHealth
		a.Energy = cfg.Tank.MaxEnergy
		a.Missiles = cfg.Tank.InitialMissiles
		a.RadarPower = 1
	default:
		// Eaters and taxis cannot be damaged; health only marks them alive.
		a.Health = 1
		a.Energy = 0
		a.Missiles = 0
		a.RadarPower = 0
	}
	a.Shields = false
	a.Radar = false
	a.Moved = false
	a.Rotated = false
	a.Hits = 0
	a.Resurrected = true
}

// Safe reports whether c can host a spawning agent: enterable, unoccupied,
// and free of chargers, missile packs and missiles.
func Safe(c *grid.Cell) bool {
	if c == nil || c.Occupant != nil || !c.Enterable() {
		return false
	}
	return c.Charger() == nil && !c.Has(catalogs.KindMissilePack) && !c.Has(catalogs.KindMissile)
}

// Pick draws one cell uniformly from those accepted by ok, scanning in
// row-major order so the draw is reproducible for a seeded rng.
func Pick(m *grid.GridMap, rng *rand.Rand, ok func(c *grid.Cell) bool) (model.Location, bool) {
	var candidates []model.Location
	m.Each(func(c *grid.Cell) {
		if ok(c) {
			candidates = append(candidates, c.Loc)
		}
	})
	if len(candidates) == 0 {
		return model.Location{}, false
	}
	return candidates[rng.Intn(len(candidates))], true
}
