// Package replay re-steps a recorded run and checks every tick digest.
package replay

import (
	"context"
	"fmt"

	"gridarena.ai/internal/agents/scripted"
	persistlog "gridarena.ai/internal/persistence/log"
	"gridarena.ai/internal/sim/world"
)

type Result struct {
	Header  world.RunHeader
	Checked uint64
	// Recorded is the summary stored in the log, if the run finished.
	Recorded *world.Summary
	// Replayed is the summary the re-stepped world reached, if it finished.
	Replayed *world.Summary
}

// Verify rebuilds the world from the log's header and feeds it the recorded
// commands. toTick of 0 replays everything.
func Verify(ctx context.Context, path string, toTick uint64) (Result, error) {
	var (
		res     Result
		entries []world.TickLogEntry
		seen    bool
	)
	err := persistlog.ReadRun(path, func(r persistlog.Record) error {
		switch {
		case r.Header != nil:
			res.Header, seen = *r.Header, true
		case r.Tick != nil:
			if !seen {
				return fmt.Errorf("tick %d before run header", r.Tick.Tick)
			}
			entries = append(entries, *r.Tick)
		case r.Result != nil:
			s := *r.Result
			res.Recorded = &s
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	if !seen {
		return res, fmt.Errorf("no run header in %s", path)
	}

	cfg, err := world.ConfigFromHeader(res.Header)
	if err != nil {
		return res, fmt.Errorf("rebuild config: %w", err)
	}
	w, err := world.New(cfg)
	if err != nil {
		return res, fmt.Errorf("rebuild world: %w", err)
	}
	p := scripted.FromTicks(entries)

	for _, e := range entries {
		if toTick != 0 && e.Tick > toTick {
			break
		}
		if want := w.Tick() + 1; e.Tick != want {
			return res, fmt.Errorf("tick gap: log has %d, world expects %d", e.Tick, want)
		}
		if err := w.Step(ctx, p); err != nil {
			return res, fmt.Errorf("tick %d: %w", e.Tick, err)
		}
		if got := w.LastDigest(); got != e.Digest {
			return res, fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", e.Tick, got, e.Digest)
		}
		res.Checked++
	}
	res.Replayed = w.Summary()
	if toTick == 0 && res.Recorded != nil {
		if res.Replayed == nil {
			return res, fmt.Errorf("recorded run ended at tick %d (%s) but replay did not", res.Recorded.Tick, res.Recorded.Reason)
		}
		if res.Replayed.Reason != res.Recorded.Reason || res.Replayed.Tick != res.Recorded.Tick {
			return res, fmt.Errorf("replay ended at tick %d (%s), recorded %d (%s)",
				res.Replayed.Tick, res.Replayed.Reason, res.Recorded.Tick, res.Recorded.Reason)
		}
	}
	return res, nil
}
