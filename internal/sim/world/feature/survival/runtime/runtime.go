package runtime

import (
	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world/kernel/model"
)

type UpkeepResult struct {
	Spent      int
	ShieldsOff bool
	RadarOff   bool
}

// Upkeep charges the per-tick energy cost of shields and radar. Whatever the
// agent cannot pay for is switched off; shields are paid first.
func Upkeep(a *model.Agent, cfg *tuning.TankConfig) UpkeepResult {
	var r UpkeepResult
	if a.Shields {
		if a.Energy >= cfg.ShieldEnergyUsage {
			a.Energy -= cfg.ShieldEnergyUsage
			r.Spent += cfg.ShieldEnergyUsage
		} else {
			a.Shields = false
			r.ShieldsOff = true
		}
	}
	if a.Radar {
		cost := a.RadarPower
		if a.Energy >= cost {
			a.Energy -= cost
			r.Spent += cost
		} else {
			a.Radar = false
			r.RadarOff = true
		}
	}
	return r
}

// Charge applies a charger standing under a and returns the amount gained.
// Results never exceed the configured maximum.
func Charge(a *model.Agent, kind catalogs.Kind, p catalogs.Props, cfg *tuning.TankConfig) int {
	switch kind {
	case catalogs.KindHealthCharger:
		if cfg.HealthChargerRequiresShieldsDown && a.Shields {
			return 0
		}
		return topUp(&a.Health, p.HealthDelta, cfg.MaxHealth)
	case catalogs.KindEnergyCharger:
		return topUp(&a.Energy, p.EnergyDelta, cfg.MaxEnergy)
	}
	return 0
}

func topUp(v *int, delta, max int) int {
	if delta <= 0 || *v >= max {
		return 0
	}
	before := *v
	*v += delta
	if *v > max {
		*v = max
	}
	return *v - before
}
