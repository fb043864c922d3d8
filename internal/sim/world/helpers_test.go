package world

import (
	"context"
	"testing"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world/kernel/grid"
	"gridarena.ai/internal/sim/world/kernel/model"
)

// queue hands out per-agent scripted commands; an empty queue means idle.
type queue map[string][]protocol.Command

func (q queue) NextCommand(_ context.Context, agent string, _ protocol.Sensors) (protocol.Command, error) {
	cmds := q[agent]
	if len(cmds) == 0 {
		return protocol.Command{}, nil
	}
	q[agent] = cmds[1:]
	return cmds[0], nil
}

func at(x, y int) *model.Location { return &model.Location{X: x, Y: y} }

func pinned(name string, x, y int, facing string) AgentSpec {
	return AgentSpec{Name: name, Start: at(x, y), Facing: facing}
}

func testConfig(mode string) tuning.SimConfig {
	cfg := tuning.Defaults()
	cfg.Mode = mode
	cfg.Seed = 7
	cfg.Tank.MaxMissilePacks = 0
	return cfg
}

func newTestWorld(t *testing.T, cfg tuning.SimConfig, rows []string, agents ...AgentSpec) *World {
	t.Helper()
	w, err := New(WorldConfig{
		RunID:  "test",
		Sim:    cfg,
		Map:    grid.MapDef{Name: "test", Rows: rows},
		Agents: agents,
	})
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

func step(t *testing.T, w *World, q queue) {
	t.Helper()
	if err := w.Step(context.Background(), q); err != nil {
		t.Fatalf("step %d: %v", w.Tick()+1, err)
	}
}

func open5() []string {
	return []string{"     ", "     ", "     ", "     ", "     "}
}

var forward = protocol.Command{Move: true, MoveDirection: "forward"}
