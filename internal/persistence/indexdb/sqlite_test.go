package indexdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world"
	"gridarena.ai/internal/sim/world/kernel/grid"
	"gridarena.ai/internal/sim/world/logic/ballistics"
)

func openTest(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestSQLiteIndex_RunTicksResults(t *testing.T) {
	idx := openTest(t)
	cfg := tuning.Defaults()
	h := world.RunHeader{
		RunID:     "run_1",
		Config:    cfg,
		Map:       grid.MapDef{Name: "arena"},
		Agents:    []world.AgentSpec{{Name: "red"}, {Name: "blue"}},
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := idx.BeginRun(h); err != nil {
		t.Fatalf("begin: %v", err)
	}
	_ = idx.WriteTick(world.TickLogEntry{
		Tick:   1,
		Digest: "d1",
		Commands: []world.RecordedCommand{
			{Agent: "red", Command: protocol.Command{Fire: true}},
			{Agent: "blue", Command: protocol.Command{Move: true, MoveDirection: "forward"}},
		},
	})
	_ = idx.WriteTick(world.TickLogEntry{
		Tick:   2,
		Digest: "d2",
		Frags:  []ballistics.Frag{{Victim: "blue", Assailants: []string{"red"}}},
	})
	_ = idx.RecordResult(world.Summary{
		RunID:  "run_1",
		Tick:   2,
		Reason: "max_ticks",
		Standings: []protocol.Standing{
			{Rank: 1, Agent: "red", Score: 2, Outcome: world.OutcomeWinner},
			{Rank: 2, Agent: "blue", Score: -1, Outcome: world.OutcomeLoser},
		},
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := idx.Sync(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}

	runs, err := idx.Runs(10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs: %v %+v", err, runs)
	}
	if runs[0].Ticks != 2 || runs[0].Agents != 2 || runs[0].MapName != "arena" {
		t.Fatalf("run row: %+v", runs[0])
	}

	var cmds int
	if err := idx.DB().QueryRow(`SELECT COUNT(*) FROM commands WHERE run_id='run_1'`).Scan(&cmds); err != nil {
		t.Fatalf("count commands: %v", err)
	}
	if cmds != 2 {
		t.Fatalf("commands=%d want 2", cmds)
	}

	res, err := idx.Results("run_1")
	if err != nil || len(res) != 2 {
		t.Fatalf("results: %v %+v", err, res)
	}
	if res[0].Agent != "red" || res[0].Outcome != world.OutcomeWinner || res[0].Reason != "max_ticks" || res[0].EndTick != 2 {
		t.Fatalf("top result: %+v", res[0])
	}

	frags, err := idx.FragsBy("run_1")
	if err != nil || len(frags) != 1 || frags[0].Agent != "red" || frags[0].Kills != 1 {
		t.Fatalf("frags: %v %+v", err, frags)
	}
}

func TestSQLiteIndex_StatsAndClosedIsNoop(t *testing.T) {
	idx := openTest(t)
	st := idx.Stats()
	if st.QueueCapacity == 0 || st.DropTickTotal != 0 {
		t.Fatalf("stats: %+v", st)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := idx.WriteTick(world.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("write after close should be ignored: %v", err)
	}
	if err := idx.Sync(context.Background()); err != nil {
		t.Fatalf("sync after close: %v", err)
	}
}
