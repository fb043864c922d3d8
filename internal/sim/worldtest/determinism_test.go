package worldtest

import (
	"testing"

	"gridarena.ai/internal/agents/scripted"
	"gridarena.ai/internal/agents/wanderer"
	"gridarena.ai/internal/protocol"
	world "gridarena.ai/internal/sim/world"
)

func TestDeterminism_ShippedMapsSameDigests(t *testing.T) {
	for _, name := range []string{"arena", "eaters", "taxi"} {
		t.Run(name, func(t *testing.T) {
			cfg := ShippedConfig(t, name, 42, 80)
			h1 := NewHarness(t, cfg, wanderer.New(wanderer.DefaultConfig()))
			h2 := NewHarness(t, cfg, wanderer.New(wanderer.DefaultConfig()))
			s1 := h1.RunToEnd(100)
			s2 := h2.RunToEnd(100)

			if len(h1.Digests) != len(h2.Digests) {
				t.Fatalf("tick count: %d vs %d", len(h1.Digests), len(h2.Digests))
			}
			for i := range h1.Digests {
				if h1.Digests[i] != h2.Digests[i] {
					t.Fatalf("digest mismatch at tick %d", i+1)
				}
			}
			if s1.Reason != s2.Reason || s1.Tick != s2.Tick || len(s1.Standings) != len(s2.Standings) {
				t.Fatalf("summaries differ: %+v vs %+v", s1, s2)
			}
			for i := range s1.Standings {
				if s1.Standings[i] != s2.Standings[i] {
					t.Fatalf("standing %d: %+v vs %+v", i, s1.Standings[i], s2.Standings[i])
				}
			}
		})
	}
}

type tickRecorder struct{ entries []world.TickLogEntry }

func (r *tickRecorder) WriteTick(e world.TickLogEntry) error {
	r.entries = append(r.entries, e)
	return nil
}

func TestDeterminism_RecordedCommandsReproduceRun(t *testing.T) {
	cfg := ShippedConfig(t, "arena", 9, 60)
	rec := &tickRecorder{}
	live := NewHarness(t, cfg, wanderer.New(wanderer.DefaultConfig()), world.WithTickLogger(rec))
	live.RunToEnd(80)

	again := NewHarness(t, cfg, scripted.FromTicks(rec.entries))
	again.RunToEnd(80)
	if len(again.Digests) != len(live.Digests) {
		t.Fatalf("tick count: %d vs %d", len(again.Digests), len(live.Digests))
	}
	for i, d := range live.Digests {
		if again.Digests[i] != d || rec.entries[i].Digest != d {
			t.Fatalf("digest mismatch at tick %d", i+1)
		}
	}
}

func TestIdleRunEndsAtMaxTicks(t *testing.T) {
	cfg := ShippedConfig(t, "arena", 1, 12)
	h := NewHarness(t, cfg, scripted.New(map[string][]protocol.Command{}, scripted.IdleWhenDone()))
	s := h.RunToEnd(20)
	if s.Tick != 12 || len(s.Standings) != 4 {
		t.Fatalf("summary %+v", s)
	}
	for _, st := range s.Standings {
		if st.Score != 0 || st.Outcome != world.OutcomeDraw {
			t.Fatalf("idle standing %+v", st)
		}
	}
}
