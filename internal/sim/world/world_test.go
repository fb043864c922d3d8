package world

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world/kernel/grid"
	"gridarena.ai/internal/sim/world/kernel/model"
)

func TestTanksFacingEachOtherBounce(t *testing.T) {
	cfg := testConfig(tuning.ModeTank)
	w := newTestWorld(t, cfg, open5(), pinned("a", 1, 2, "east"), pinned("b", 2, 2, "west"))
	step(t, w, queue{"a": {forward}, "b": {forward}})

	a, b := w.Agent("a"), w.Agent("b")
	if a.Loc != (model.Location{X: 1, Y: 2}) || b.Loc != (model.Location{X: 2, Y: 2}) {
		t.Fatalf("both should stay: a=%v b=%v", a.Loc, b.Loc)
	}
	want := cfg.Tank.MaxHealth - cfg.Tank.CollisionPenalty
	if a.Health != want || b.Health != want {
		t.Fatalf("health a=%d b=%d, want %d", a.Health, b.Health, want)
	}
}

func TestFireIntoEmptyCellSpawnsMissile(t *testing.T) {
	cfg := testConfig(tuning.ModeTank)
	cfg.Tank.InitialMissiles = 1
	w := newTestWorld(t, cfg, open5(), pinned("a", 1, 2, "east"), pinned("b", 4, 4, "north"))
	step(t, w, queue{"a": {{Fire: true}}})

	if got := w.Agent("a").Missiles; got != 0 {
		t.Fatalf("missiles %d, want 0", got)
	}
	m := w.Map().Cell(model.Location{X: 2, Y: 2}).First(catalogs.KindMissile)
	if m == nil || m.Phase != grid.PhaseSpawned || m.Owner != "a" {
		t.Fatalf("missile %+v", m)
	}

	step(t, w, queue{"a": {{Fire: true}}})
	evs := w.DrainEvents()
	warned := false
	for _, e := range evs {
		if e.Kind == model.EventWarning && e.Agent == "a" {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("firing with no missiles should warn: %+v", evs)
	}
}

func TestThreeIntoOneCellAllCancelled(t *testing.T) {
	cfg := testConfig(tuning.ModeTank)
	w := newTestWorld(t, cfg, open5(),
		pinned("a", 1, 2, "east"),
		pinned("b", 3, 2, "west"),
		pinned("c", 2, 3, "north"),
	)
	step(t, w, queue{"a": {forward}, "b": {forward}, "c": {forward}})

	if o := w.Map().Occupant(model.Location{X: 2, Y: 2}); o != nil {
		t.Fatalf("contested cell taken by %s", o.Name)
	}
	want := cfg.Tank.MaxHealth - 2*cfg.Tank.CollisionPenalty
	for _, a := range w.Agents() {
		if a.Moved || a.Health != want {
			t.Fatalf("%s moved=%v health=%d, want %d", a.Name, a.Moved, a.Health, want)
		}
	}
}

func TestMissileKillRespawnsVictim(t *testing.T) {
	cfg := testConfig(tuning.ModeTank)
	cfg.Tank.MissileDamage = cfg.Tank.MaxHealth
	w := newTestWorld(t, cfg, open5(), pinned("a", 0, 2, "east"), pinned("b", 1, 2, "north"))
	b := w.Agent("b")
	b.Missiles = 3
	step(t, w, queue{"a": {{Fire: true}}})

	if w.Map().Occupant(model.Location{X: 1, Y: 2}) == b || b.Loc == (model.Location{X: 1, Y: 2}) {
		t.Fatalf("victim still at its old cell")
	}
	if w.Map().Occupant(b.Loc) != b {
		t.Fatalf("victim not registered on its new cell")
	}
	if b.Health != cfg.Tank.MaxHealth || b.Missiles != cfg.Tank.InitialMissiles || !b.Resurrected {
		t.Fatalf("victim not reset: %+v", b)
	}
	if want := cfg.Tank.MissileHitPenalty + cfg.Tank.KillPenalty; b.Score != want || b.Deaths != 1 {
		t.Fatalf("victim score %d deaths %d, want %d", b.Score, b.Deaths, want)
	}
	a := w.Agent("a")
	if want := cfg.Tank.MissileHitAward + cfg.Tank.KillAward; a.Score != want || a.Kills != 1 {
		t.Fatalf("shooter score %d kills %d, want %d", a.Score, a.Kills, want)
	}
	s, _ := w.Sensors("b")
	if !s.Resurrected || s.Health != cfg.Tank.MaxHealth {
		t.Fatalf("snapshot %+v", s)
	}
}

func TestRadarStopsAtWall(t *testing.T) {
	cfg := testConfig(tuning.ModeTank)
	rows := []string{"     ", "     ", "  #  ", "     ", "     "}
	w := newTestWorld(t, cfg, rows, pinned("a", 2, 4, "north"), pinned("b", 0, 0, "south"))
	step(t, w, queue{"a": {{Radar: true, RadarSetting: true, RadarPower: true, RadarPowerSetting: 3}}})

	s, ok := w.Sensors("a")
	if !ok {
		t.Fatalf("no snapshot")
	}
	r := s.Radar
	if !r.Status || r.Setting != 3 || r.Distance != 2 {
		t.Fatalf("radar %+v", r)
	}
	if r.Sights[1] == nil || r.Sights[2] == nil || r.Sights[2][1].Kind != "wall" {
		t.Fatalf("rows 1 and 2 should be real: %+v", r.Sights)
	}
	if len(r.Sights) > 3 && r.Sights[3] != nil {
		t.Fatalf("row 3 should be nil")
	}
}

func TestRadarPowerClamped(t *testing.T) {
	cfg := testConfig(tuning.ModeTank)
	w := newTestWorld(t, cfg, open5(), pinned("a", 2, 4, "north"), pinned("b", 0, 0, "south"))
	step(t, w, queue{"a": {{RadarPower: true, RadarPowerSetting: 99}}, "b": {{RadarPower: true, RadarPowerSetting: -4}}})
	if got := w.Agent("a").RadarPower; got != cfg.Tank.MaxRadar {
		t.Fatalf("radar power %d, want %d", got, cfg.Tank.MaxRadar)
	}
	if got := w.Agent("b").RadarPower; got != 1 {
		t.Fatalf("radar power %d, want 1", got)
	}
}

func TestChargerNeverExceedsMax(t *testing.T) {
	cfg := testConfig(tuning.ModeTank)
	rows := []string{"H    ", "     ", "     ", "     ", "    E"}
	w := newTestWorld(t, cfg, rows, pinned("a", 0, 0, "south"), pinned("b", 4, 4, "north"))
	w.Agent("a").Health = cfg.Tank.MaxHealth - 10
	w.Agent("b").Energy = 0
	step(t, w, queue{})
	if got := w.Agent("a").Health; got != cfg.Tank.MaxHealth {
		t.Fatalf("health %d, want %d", got, cfg.Tank.MaxHealth)
	}
	if got := w.Agent("b").Energy; got != 250 {
		t.Fatalf("energy %d, want 250", got)
	}
	for i := 0; i < 10; i++ {
		step(t, w, queue{})
	}
	if got := w.Agent("b").Energy; got != cfg.Tank.MaxEnergy {
		t.Fatalf("energy %d, want capped at %d", got, cfg.Tank.MaxEnergy)
	}
}

func TestCollisionOnChargerIsLethal(t *testing.T) {
	cfg := testConfig(tuning.ModeTank)
	rows := []string{"     ", "     ", " H   ", "     ", "     "}
	w := newTestWorld(t, cfg, rows, pinned("a", 1, 2, "east"), pinned("b", 2, 2, "west"))
	step(t, w, queue{"b": {forward}})
	a, b := w.Agent("a"), w.Agent("b")
	if a.Deaths != 1 || b.Deaths != 0 {
		t.Fatalf("deaths a=%d b=%d", a.Deaths, b.Deaths)
	}
	if b.Health != cfg.Tank.MaxHealth-cfg.Tank.CollisionPenalty {
		t.Fatalf("b health %d", b.Health)
	}
}

func TestMoveWinsOverRotate(t *testing.T) {
	cfg := testConfig(tuning.ModeTank)
	w := newTestWorld(t, cfg, open5(), pinned("a", 2, 2, "north"), pinned("b", 0, 0, "south"))
	step(t, w, queue{"a": {{Move: true, MoveDirection: "forward", Rotate: true, RotateDirection: "right"}}})
	a := w.Agent("a")
	if a.Loc != (model.Location{X: 2, Y: 1}) || a.Facing != model.North || a.Rotated {
		t.Fatalf("a %+v", a)
	}
	step(t, w, queue{"a": {{Move: true, MoveDirection: "sideways"}, {Rotate: true, RotateDirection: "left"}}})
	if a.Loc != (model.Location{X: 2, Y: 1}) {
		t.Fatalf("unknown direction should drop the move")
	}
	step(t, w, queue{"a": {{Rotate: true, RotateDirection: "left"}}})
	if a.Facing != model.West || !a.Rotated {
		t.Fatalf("rotate left from north: %+v", a)
	}
}

func TestMissingCommandIsFatal(t *testing.T) {
	w := newTestWorld(t, testConfig(tuning.ModeTank), open5(), pinned("a", 0, 0, "south"), pinned("b", 4, 4, "north"))
	err := w.Step(context.Background(), failing{})
	if !errors.Is(err, ErrMissingCommand) {
		t.Fatalf("err %v, want ErrMissingCommand", err)
	}
	if w.Phase() != PhaseTerminal {
		t.Fatalf("phase %s", w.Phase())
	}
	if err := w.Step(context.Background(), queue{}); !errors.Is(err, ErrTerminated) {
		t.Fatalf("err %v, want ErrTerminated", err)
	}
}

type failing struct{}

func (failing) NextCommand(context.Context, string, protocol.Sensors) (protocol.Command, error) {
	return protocol.Command{}, errors.New("agent timed out")
}

func TestNoStartingLocation(t *testing.T) {
	_, err := New(WorldConfig{
		Sim:    testConfig(tuning.ModeTank),
		Map:    grid.MapDef{Name: "full", Rows: []string{"#H", "##"}},
		Agents: []AgentSpec{{Name: "a"}},
	})
	if !errors.Is(err, ErrNoStartingLocation) {
		t.Fatalf("err %v, want ErrNoStartingLocation", err)
	}
}

// randomTank drives every agent from its own seeded source.
type randomTank struct{ rng *rand.Rand }

func (r randomTank) NextCommand(_ context.Context, _ string, s protocol.Sensors) (protocol.Command, error) {
	var c protocol.Command
	switch r.rng.Intn(6) {
	case 0, 1:
		c.Move, c.MoveDirection = true, []string{"forward", "backward", "left", "right"}[r.rng.Intn(4)]
	case 2:
		c.Rotate, c.RotateDirection = true, []string{"left", "right"}[r.rng.Intn(2)]
	case 3:
		c.Fire = true
	case 4:
		c.Radar, c.RadarSetting, c.RadarPower, c.RadarPowerSetting = true, true, true, 1+r.rng.Intn(5)
	case 5:
		c.Shields, c.ShieldsSetting = true, s.Incoming.Any()
	}
	return c, nil
}

func TestDeterminism_SameSeedSameDigests(t *testing.T) {
	cfg := testConfig(tuning.ModeTank)
	cfg.Tank.MaxMissilePacks = 3
	cfg.Tank.MissilePackRespawnChance = 50
	rows := []string{
		"#######",
		"#  H  #",
		"# # # #",
		"#E   M#",
		"# # # #",
		"#     #",
		"#######",
	}
	agents := []AgentSpec{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	w1 := newTestWorld(t, cfg, rows, agents...)
	w2 := newTestWorld(t, cfg, rows, agents...)
	p1 := randomTank{rng: rand.New(rand.NewSource(99))}
	p2 := randomTank{rng: rand.New(rand.NewSource(99))}
	for i := 0; i < 60; i++ {
		if err := w1.Step(context.Background(), p1); err != nil {
			t.Fatalf("w1 tick %d: %v", i, err)
		}
		if err := w2.Step(context.Background(), p2); err != nil {
			t.Fatalf("w2 tick %d: %v", i, err)
		}
		if w1.LastDigest() != w2.LastDigest() {
			t.Fatalf("digest mismatch at tick %d", w1.Tick())
		}
		if w1.Summary() != nil {
			break
		}
	}
}

func TestMissilesNeverOutliveFlightBound(t *testing.T) {
	cfg := testConfig(tuning.ModeTank)
	rows := []string{"       ", "       ", "       ", "       ", "       ", "       ", "       "}
	w := newTestWorld(t, cfg, rows, pinned("a", 0, 3, "east"), pinned("b", 0, 0, "south"))
	step(t, w, queue{"a": {{Fire: true}}})
	for i := 0; i < 9; i++ {
		step(t, w, queue{})
	}
	if n := w.Map().CountKind(catalogs.KindMissile); n != 0 {
		t.Fatalf("%d missiles still flying after 10 ticks on a 7x7 board", n)
	}
}

func TestStopCommandEndsRun(t *testing.T) {
	w := newTestWorld(t, testConfig(tuning.ModeTank), open5(), pinned("a", 0, 0, "south"), pinned("b", 4, 4, "north"))
	fin := &finisher{}
	p := struct {
		queue
		*finisher
	}{queue{"b": {{StopSim: true}}}, fin}
	if err := w.Step(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	s := w.Summary()
	if s == nil || s.Reason != "stop_command" || fin.got == nil {
		t.Fatalf("summary %+v finished %+v", s, fin.got)
	}
	if st := w.PublicState(); st.Summary == nil || st.Phase != PhaseTerminal {
		t.Fatalf("public state %+v", st)
	}
}

type finisher struct{ got *Summary }

func (f *finisher) Finish(s Summary) { f.got = &s }

func TestMessagesRelayedToOthers(t *testing.T) {
	w := newTestWorld(t, testConfig(tuning.ModeTank), open5(), pinned("a", 0, 0, "south"), pinned("b", 4, 4, "north"))
	step(t, w, queue{"a": {{Communicate: true, Message: "hello"}}})
	sb, _ := w.Sensors("b")
	sa, _ := w.Sensors("a")
	if len(sb.Messages) != 1 || sb.Messages[0].From != "a" || len(sa.Messages) != 0 {
		t.Fatalf("a=%+v b=%+v", sa.Messages, sb.Messages)
	}
	step(t, w, queue{})
	if sb, _ = w.Sensors("b"); len(sb.Messages) != 0 {
		t.Fatalf("messages should last one snapshot")
	}
}
