package world

import (
	"fmt"

	"gridarena.ai/internal/sim/world/feature/survival/respawn"
	"gridarena.ai/internal/sim/world/kernel/grid"
	"gridarena.ai/internal/sim/world/kernel/model"
)

func (w *World) resetLife(a *model.Agent) {
	respawn.Reset(a, w.sim)
	if a.Kind == model.KindTaxi {
		a.Carrying = false
		a.Fuel = w.sim.Taxi.FuelMax
		if lo, hi := w.sim.Taxi.FuelStartMin, w.sim.Taxi.FuelStartMax; hi > lo {
			a.Fuel = lo + w.rng.Intn(hi-lo+1)
		} else if lo > 0 {
			a.Fuel = lo
		}
	}
}

func (w *World) spawnLocation(exclude ...model.Location) (model.Location, error) {
	l, ok := respawn.Pick(w.m, w.rng, func(c *grid.Cell) bool {
		for _, x := range exclude {
			if c.Loc == x {
				return false
			}
		}
		return respawn.Safe(c)
	})
	if !ok {
		return model.Location{}, ErrNoStartingLocation
	}
	return l, nil
}

// respawnAgent moves a fragged agent to a fresh safe cell with a new life.
// Score and kill/death tallies carry over.
func (w *World) respawnAgent(a *model.Agent) error {
	old := a.Loc
	w.m.ClearOccupant(old, a)
	if w.m.PlaceExplosion(old) {
		w.emit(model.Event{Agent: a.Name, Kind: model.EventExploded, Loc: old})
	}
	l, err := w.spawnLocation(old)
	if err != nil {
		return fmt.Errorf("respawn %s: %w", a.Name, err)
	}
	w.resetLife(a)
	a.Facing = model.Direction(w.rng.Intn(4))
	w.placeAgent(a, l)
	w.emit(model.Event{Agent: a.Name, Kind: model.EventRespawned, Loc: l})
	return nil
}

// teleport relocates a live agent without resetting it.
func (w *World) teleport(a *model.Agent) error {
	w.m.ClearOccupant(a.Loc, a)
	l, err := w.spawnLocation(a.Loc)
	if err != nil {
		w.m.SetOccupant(a.Loc, a)
		return fmt.Errorf("teleport %s: %w", a.Name, err)
	}
	w.placeAgent(a, l)
	return nil
}
