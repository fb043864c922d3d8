package world

import (
	"testing"

	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world/kernel/grid"
	"gridarena.ai/internal/sim/world/kernel/model"
)

func TestShooterFollowingOwnMissileIsNotHit(t *testing.T) {
	cfg := testConfig(tuning.ModeTank)
	w := newTestWorld(t, cfg, open5(), pinned("a", 0, 2, "east"), pinned("b", 4, 4, "north"))
	step(t, w, queue{"a": {{Fire: true}}})
	step(t, w, queue{"a": {forward}})

	a := w.Agent("a")
	if a.Loc != (model.Location{X: 1, Y: 2}) {
		t.Fatalf("a at %v", a.Loc)
	}
	if a.Health != cfg.Tank.MaxHealth || a.ScoreDelta != 0 {
		t.Fatalf("shooter hit by its own missile: health=%d delta=%d", a.Health, a.ScoreDelta)
	}
	if m := w.Map().Cell(model.Location{X: 2, Y: 2}).First(catalogs.KindMissile); m == nil {
		t.Fatalf("missile should have advanced to (2,2)")
	}
}

func TestSideEntryIntoMissileCellIsNotHit(t *testing.T) {
	cfg := testConfig(tuning.ModeTank)
	w := newTestWorld(t, cfg, open5(), pinned("s", 0, 1, "east"), pinned("a", 1, 2, "north"))
	step(t, w, queue{"s": {{Fire: true}}})
	step(t, w, queue{"a": {forward}})

	a := w.Agent("a")
	if a.Loc != (model.Location{X: 1, Y: 1}) || a.Health != cfg.Tank.MaxHealth {
		t.Fatalf("a loc=%v health=%d", a.Loc, a.Health)
	}
	if m := w.Map().Cell(model.Location{X: 2, Y: 1}).First(catalogs.KindMissile); m == nil {
		t.Fatalf("missile should have left (1,1) eastward")
	}
}

func TestHeadOnSwapWithMissileHits(t *testing.T) {
	cfg := testConfig(tuning.ModeTank)
	w := newTestWorld(t, cfg, open5(), pinned("s", 0, 2, "east"), pinned("v", 2, 2, "west"))
	step(t, w, queue{"s": {{Fire: true}}})
	step(t, w, queue{"v": {forward}})

	v := w.Agent("v")
	if v.Loc != (model.Location{X: 1, Y: 2}) {
		t.Fatalf("v at %v", v.Loc)
	}
	if v.Health != cfg.Tank.MaxHealth-cfg.Tank.MissileDamage || v.ScoreDelta != cfg.Tank.MissileHitPenalty {
		t.Fatalf("head-on crossing should hit: health=%d delta=%d", v.Health, v.ScoreDelta)
	}
	if n := w.Map().CountKind(catalogs.KindMissile); n != 0 {
		t.Fatalf("%d missiles left", n)
	}
}

func TestFragMarkerFollowsRenamedExplosionTemplate(t *testing.T) {
	defs := catalogs.Builtin().Templates()
	for i := range defs {
		if defs[i].Kind == catalogs.KindExplosion {
			defs[i].Name = "boom"
		}
	}
	cat, err := catalogs.FromTemplates(defs)
	if err != nil {
		t.Fatal(err)
	}
	w, err := New(WorldConfig{
		RunID:   "test",
		Sim:     testConfig(tuning.ModeTank),
		Map:     grid.MapDef{Name: "test", Rows: []string{"     ", "     ", " H   ", "     ", "     "}},
		Catalog: cat,
		Agents:  []AgentSpec{pinned("a", 1, 2, "east"), pinned("b", 2, 2, "west")},
	})
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	step(t, w, queue{"b": {forward}})

	if w.Agent("a").Deaths != 1 {
		t.Fatalf("a should have been fragged on the charger")
	}
	ex := w.Map().Cell(model.Location{X: 1, Y: 2}).First(catalogs.KindExplosion)
	if ex == nil || ex.Template != "boom" {
		t.Fatalf("frag marker %+v", ex)
	}
}
