package log

import (
	"testing"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world"
	"gridarena.ai/internal/sim/world/kernel/model"
)

func TestTickLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	h := world.RunHeader{RunID: "run1", Config: tuning.Defaults()}
	l, err := NewTickLogger(dir, h)
	if err != nil {
		t.Fatal(err)
	}
	for i := uint64(1); i <= 3; i++ {
		e := world.TickLogEntry{
			Tick:     i,
			Commands: []world.RecordedCommand{{Agent: "a", Command: protocol.Command{Fire: i == 2}}},
			Digest:   "d",
		}
		if err := l.WriteTick(e); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.RecordResult(world.Summary{Reason: "max_ticks", Tick: 3}); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	var ticks []world.TickLogEntry
	got, err := ReadTicks(RunLogPath(dir, "run1"), func(e world.TickLogEntry) error {
		ticks = append(ticks, e)
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.RunID != "run1" || got.Config.Tank.MaxHealth != h.Config.Tank.MaxHealth {
		t.Fatalf("header %+v", got)
	}
	if len(ticks) != 3 || !ticks[1].Commands[0].Command.Fire || ticks[2].Tick != 3 {
		t.Fatalf("ticks %+v", ticks)
	}

	var result *world.Summary
	if err := ReadRun(RunLogPath(dir, "run1"), func(r Record) error {
		if r.Result != nil {
			result = r.Result
		}
		return nil
	}); err != nil || result == nil || result.Reason != "max_ticks" {
		t.Fatalf("result %+v err %v", result, err)
	}
}

func TestEventLogger_Writes(t *testing.T) {
	dir := t.TempDir()
	l := NewEventLogger(dir, "run2")
	if err := l.WriteEvents(1, []model.Event{{Tick: 1, Agent: "a", Kind: model.EventFired}}); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	var got []EventBatch
	if err := ReadEvents(EventLogPath(dir, "run2"), func(b EventBatch) error {
		got = append(got, b)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Tick != 1 || len(got[0].Events) != 1 || got[0].Events[0].Kind != model.EventFired {
		t.Fatalf("batches %+v", got)
	}
}

func TestReadTicks_MissingHeader(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(RunLogPath(dir, "bad"))
	if err := w.Write(Record{Tick: &world.TickLogEntry{Tick: 1}}); err != nil {
		t.Fatal(err)
	}
	_ = w.Close()
	if _, err := ReadTicks(RunLogPath(dir, "bad"), func(world.TickLogEntry) error { return nil }); err == nil {
		t.Fatalf("expected error without a header")
	}
}
