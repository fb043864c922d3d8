package runtime

import (
	"testing"

	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world/kernel/model"
)

func TestUpkeep_SwitchesOffWhatItCannotPay(t *testing.T) {
	cfg := tuning.Defaults().Tank
	a := &model.Agent{Energy: 25, Shields: true, Radar: true, RadarPower: 10}
	r := Upkeep(a, &cfg)
	if r.Spent != 20 || !a.Shields || a.Radar || !r.RadarOff || a.Energy != 5 {
		t.Fatalf("upkeep %+v agent %+v", r, a)
	}
}

func TestCharge_NeverExceedsMax(t *testing.T) {
	cfg := tuning.Defaults().Tank
	hp := catalogs.Props{HealthDelta: 150}
	for _, start := range []int{0, 500, 900, 999, 1000} {
		a := &model.Agent{Health: start}
		got := Charge(a, catalogs.KindHealthCharger, hp, &cfg)
		if a.Health > cfg.MaxHealth || a.Health != start+got {
			t.Fatalf("start %d: health %d gained %d", start, a.Health, got)
		}
	}
	cfg.HealthChargerRequiresShieldsDown = true
	a := &model.Agent{Health: 10, Shields: true}
	if Charge(a, catalogs.KindHealthCharger, hp, &cfg) != 0 {
		t.Fatalf("shields up should block the health charger")
	}
	if Charge(a, catalogs.KindEnergyCharger, catalogs.Props{EnergyDelta: 250}, &cfg) != 250 {
		t.Fatalf("energy charger ignores shields")
	}
}
