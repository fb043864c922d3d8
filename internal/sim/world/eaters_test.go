package world

import (
	"fmt"
	"testing"

	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world/kernel/model"
	"gridarena.ai/internal/sim/world/logic/collision"
)

func TestEaters_EatLastFoodEndsRun(t *testing.T) {
	cfg := testConfig(tuning.ModeEaters)
	w := newTestWorld(t, cfg, []string{"   ", "  .", "   "}, pinned("a", 1, 1, ""), pinned("b", 0, 2, ""))
	step(t, w, queue{"a": {{Move: true, MoveDirection: "east"}}})

	a := w.Agent("a")
	if a.Loc != (model.Location{X: 2, Y: 1}) || a.Score != 5 || a.Facing != model.East {
		t.Fatalf("a %+v", a)
	}
	s := w.Summary()
	if s == nil || s.Reason != "no_food" || s.Winner() != "a" {
		t.Fatalf("summary %+v", s)
	}
}

func TestEaters_DontEatLeavesFood(t *testing.T) {
	cfg := testConfig(tuning.ModeEaters)
	w := newTestWorld(t, cfg, []string{"   ", "  .", "   "}, pinned("a", 1, 1, ""))
	step(t, w, queue{"a": {{Move: true, MoveDirection: "e", DontEat: true}}})
	if w.Agent("a").Score != 0 || !w.Map().Cell(model.Location{X: 2, Y: 1}).Has(catalogs.KindFood) {
		t.Fatalf("dont_eat should leave the food")
	}
	if w.Summary() != nil {
		t.Fatalf("run should continue while food remains")
	}
}

func TestEaters_JumpOverWall(t *testing.T) {
	cfg := testConfig(tuning.ModeEaters)
	rows := []string{"     ", "     ", "  #  ", "     ", "    ."}
	w := newTestWorld(t, cfg, rows, pinned("a", 2, 3, ""))
	step(t, w, queue{"a": {{Move: true, MoveDirection: "north", Jump: true}}})
	a := w.Agent("a")
	if a.Loc != (model.Location{X: 2, Y: 1}) || a.Score != -cfg.Eaters.JumpPenalty {
		t.Fatalf("a %+v", a)
	}
	s, _ := w.Sensors("a")
	r := cfg.Eaters.VisionRadius
	if len(s.Vision) != 2*r+1 || s.Vision[r+1][r] != "wall" {
		t.Fatalf("vision %v", s.Vision)
	}
}

func TestEaters_CollisionSharesScore(t *testing.T) {
	cfg := testConfig(tuning.ModeEaters)
	w := newTestWorld(t, cfg, []string{"   ", "   ", "  ."}, pinned("a", 0, 1, ""), pinned("b", 2, 1, ""))
	w.Agent("a").Score = 10
	step(t, w, queue{
		"a": {{Move: true, MoveDirection: "east", DontEat: true}},
		"b": {{Move: true, MoveDirection: "west", DontEat: true}},
	})
	a, b := w.Agent("a"), w.Agent("b")
	if a.Score != 5 || b.Score != 5 {
		t.Fatalf("scores a=%d b=%d, want 5 each", a.Score, b.Score)
	}
	if a.Loc == b.Loc || w.Map().Occupant(a.Loc) != a || w.Map().Occupant(b.Loc) != b {
		t.Fatalf("scattered eaters overlap: a=%v b=%v", a.Loc, b.Loc)
	}
}

func TestEaters_TankCommandsIgnored(t *testing.T) {
	cfg := testConfig(tuning.ModeEaters)
	w := newTestWorld(t, cfg, []string{"   ", "  .", "   "}, pinned("a", 1, 1, ""))
	step(t, w, queue{"a": {{Fire: true, Shields: true, ShieldsSetting: true, Radar: true, RadarSetting: true}}})
	a := w.Agent("a")
	if a.Shields || a.Radar || a.Missiles != 0 {
		t.Fatalf("eater picked up tank state: %+v", a)
	}
	if _, ok := w.Sensors("a"); !ok {
		t.Fatalf("no snapshot")
	}
}

func TestEaters_CascadeScattersEachEaterOnce(t *testing.T) {
	cfg := testConfig(tuning.ModeEaters)
	rows := []string{"      ", "      ", "     ."}
	w := newTestWorld(t, cfg, rows, pinned("a", 4, 0, ""), pinned("b", 2, 0, ""), pinned("c", 1, 0, ""))
	w.Agent("a").Score = 9
	step(t, w, queue{
		"a": {{Move: true, MoveDirection: "west", DontEat: true}},
		"b": {{Move: true, MoveDirection: "east", DontEat: true}},
		"c": {{Move: true, MoveDirection: "east", DontEat: true}},
	})
	seen := map[model.Location]bool{}
	for _, a := range w.Agents() {
		if a.Score != 3 {
			t.Fatalf("%s score %d, want 3", a.Name, a.Score)
		}
		if seen[a.Loc] || w.Map().Occupant(a.Loc) != a {
			t.Fatalf("%s not alone at %v", a.Name, a.Loc)
		}
		seen[a.Loc] = true
	}
	scattered := 0
	for _, e := range w.DrainEvents() {
		if e.Kind == model.EventRespawned {
			scattered++
		}
	}
	if scattered != 3 {
		t.Fatalf("%d teleports, want 3", scattered)
	}
}

func TestMergeGroups_JoinsSharedMembers(t *testing.T) {
	groups := []collision.Group{
		{Kind: collision.Wall, Members: []int{4}},
		{Kind: collision.Chain, Members: []int{0, 1}},
		{Kind: collision.Chain, Members: []int{2, 1}},
		{Kind: collision.Cross, Members: []int{3, 5}},
	}
	got := mergeGroups(groups, 6)
	if len(got) != 2 {
		t.Fatalf("sets %v", got)
	}
	if fmt.Sprint(got[0]) != "[0 1 2]" || fmt.Sprint(got[1]) != "[3 5]" {
		t.Fatalf("sets %v", got)
	}
}
