package world

import (
	"context"
	"fmt"
	"time"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world/kernel/model"
	"gridarena.ai/internal/sim/world/logic/terminate"
)

// Run steps the world at the configured tick rate until it terminates, the
// context is cancelled, or a fatal error occurs.
func (w *World) Run(ctx context.Context, p CommandProvider) (Summary, error) {
	interval := time.Second / time.Duration(w.sim.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for w.summary == nil {
		select {
		case <-ctx.Done():
			return Summary{}, ctx.Err()
		case <-ticker.C:
		}
		if err := w.Step(ctx, p); err != nil {
			return Summary{}, err
		}
	}
	return *w.summary, nil
}

// Step runs one full tick. Every live agent's command is collected before
// anything in the world changes.
func (w *World) Step(ctx context.Context, p CommandProvider) error {
	if w.phase == PhaseTerminal {
		return ErrTerminated
	}
	start := time.Now()

	w.phase = PhaseCollecting
	recorded, err := w.collect(ctx, p)
	if err != nil {
		w.phase = PhaseTerminal
		return err
	}

	w.phase = PhaseResolving
	w.tick++
	for _, a := range w.reg.All() {
		a.BeginTick()
	}
	w.m.UpdateObjects()
	intents := make([]intent, w.reg.Len())
	for i, a := range w.reg.All() {
		if c, ok := w.reg.Command(a.Name); ok {
			intents[i] = normalize(c, a, w.sim)
		}
	}
	w.reg.ClearCommands()

	ts := newTickState()
	switch w.sim.Mode {
	case tuning.ModeEaters:
		err = w.stepEaters(intents, ts)
	case tuning.ModeTaxi:
		err = w.stepTaxi(intents, ts)
	default:
		err = w.stepTank(intents, ts)
	}
	if err != nil {
		w.phase = PhaseTerminal
		w.logger.Printf("tick=%d fatal: %v", w.tick, err)
		return err
	}
	w.relay(intents)
	for _, a := range w.reg.All() {
		a.CommitScore()
	}

	w.phase = PhaseSensing
	w.senseAll()

	w.phase = PhaseScoring
	reason, done, err := w.term.Check(w.termEnv(ts))
	if err != nil {
		w.logger.Printf("tick=%d termination: %v", w.tick, err)
	}
	digest := w.stateDigest()
	w.lastDigest = digest
	w.writeTick(recorded, ts, digest)
	if done {
		w.finish(reason, p)
	} else {
		w.phase = PhaseIdle
	}
	w.flushEvents()
	w.observe(ts, time.Since(start))
	w.publish()
	return nil
}

func (w *World) collect(ctx context.Context, p CommandProvider) ([]RecordedCommand, error) {
	live := w.reg.Live()
	out := make([]RecordedCommand, 0, len(live))
	for _, a := range live {
		cmd, err := p.NextCommand(ctx, a.Name, w.lastSensors[a.Name])
		if err != nil {
			return nil, fmt.Errorf("%w: agent %s at tick %d: %v", ErrMissingCommand, a.Name, w.tick+1, err)
		}
		w.reg.SetCommand(a.Name, cmd)
		out = append(out, RecordedCommand{Agent: a.Name, Command: cmd})
	}
	return out, nil
}

// relay queues this tick's messages for the next snapshots and notes stop requests.
func (w *World) relay(intents []intent) {
	for i, a := range w.reg.All() {
		in := intents[i]
		if in.message != "" {
			w.outbox = append(w.outbox, protocol.Message{From: a.Name, Text: in.message})
		}
		if in.stop {
			w.stopRequested = true
			w.emit(model.Event{Agent: a.Name, Kind: model.EventStop})
		}
	}
}

func (w *World) termEnv(ts *tickState) terminate.Env {
	env := terminate.Env{
		Mode:         w.sim.Mode,
		Tick:         int(w.tick),
		MaxTicks:     w.sim.MaxTicks,
		WinningScore: w.sim.WinningScore,
		Scores:       map[string]int{},
		Agents:       w.reg.Len(),
		LiveAgents:   w.reg.LiveCount(),
		FoodLeft:     w.foodLeft(),
		MissilesLive: w.m.CountKind(catalogs.KindMissile),
		Frags:        len(ts.frags),
		TotalFrags:   w.totalFrags,
		Stopped:      w.stopRequested,
		Delivered:    w.taxi.delivered,
		FuelOut:      w.taxi.fuelOut,
	}
	for i, a := range w.reg.All() {
		env.Scores[a.Name] = a.Score
		if i == 0 || a.Score > env.TopScore {
			env.TopScore = a.Score
		}
	}
	return env
}

func (w *World) writeTick(recorded []RecordedCommand, ts *tickState, digest string) {
	if len(w.tickLoggers) == 0 {
		return
	}
	entry := TickLogEntry{
		Tick:     w.tick,
		Commands: recorded,
		Frags:    ts.frags,
		Scores:   map[string]int{},
		Digest:   digest,
	}
	for _, a := range w.reg.All() {
		entry.Scores[a.Name] = a.Score
	}
	for _, l := range w.tickLoggers {
		if err := l.WriteTick(entry); err != nil {
			w.logger.Printf("tick=%d tick log: %v", w.tick, err)
		}
	}
}

func (w *World) flushEvents() {
	if len(w.eventSinks) == 0 {
		return
	}
	evs := w.DrainEvents()
	if len(evs) == 0 {
		return
	}
	for _, s := range w.eventSinks {
		if err := s.WriteEvents(w.tick, evs); err != nil {
			w.logger.Printf("tick=%d events: %v", w.tick, err)
		}
	}
}

func (w *World) finish(reason string, p CommandProvider) {
	s := w.rank(reason)
	w.summary = &s
	w.phase = PhaseTerminal
	w.logger.Printf("run %s ended at tick %d: %s winner=%q", w.cfg.RunID, w.tick, reason, s.Winner())
	if f, ok := p.(Finisher); ok {
		f.Finish(s)
	}
	for _, l := range w.tickLoggers {
		if r, ok := l.(ResultRecorder); ok {
			if err := r.RecordResult(s); err != nil {
				w.logger.Printf("record result: %v", err)
			}
		}
	}
}

func (w *World) observe(ts *tickState, d time.Duration) {
	if len(w.observers) == 0 {
		return
	}
	st := TickStats{
		Tick:          w.tick,
		Duration:      d,
		Frags:         len(ts.frags),
		Collisions:    ts.collisions,
		MissilesFired: ts.missilesFired,
		MissilesLive:  w.m.CountKind(catalogs.KindMissile),
		AgentsLive:    w.reg.LiveCount(),
	}
	for _, o := range w.observers {
		o.ObserveTick(st)
	}
}

// LastDigest is the state digest recorded for the most recent tick.
func (w *World) LastDigest() string { return w.lastDigest }

// Digest hashes the current state.
func (w *World) Digest() string { return w.stateDigest() }
