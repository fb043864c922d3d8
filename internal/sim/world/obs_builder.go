package world

import (
	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world/kernel/model"
	"gridarena.ai/internal/sim/world/logic/sensors"
)

// senseAll builds every agent's snapshot from committed state. All radars are
// cast first so radar waves are complete before anyone reads them.
func (w *World) senseAll() {
	w.sens.BeginTick(w.tick)
	agents := w.reg.All()
	radars := make([]*sensors.Radar, len(agents))
	if w.sim.Mode == tuning.ModeTank {
		for i, a := range agents {
			if a.Alive() && a.Radar && a.RadarPower > 0 {
				radars[i] = w.sens.Radar(a, a.RadarPower)
			}
		}
	}
	live := w.reg.Live()
	for i, a := range agents {
		w.lastSensors[a.Name] = w.buildSensors(a, radars[i], live)
	}
	w.outbox = nil
}

func (w *World) buildSensors(a *model.Agent, radar *sensors.Radar, live []*model.Agent) protocol.Sensors {
	s := protocol.Sensors{
		Tick:        w.tick,
		Agent:       a.Name,
		Kind:        string(a.Kind),
		Position:    [2]int{a.Loc.X, a.Loc.Y},
		Facing:      a.Facing.String(),
		Health:      a.Health,
		Energy:      a.Energy,
		Missiles:    a.Missiles,
		Score:       a.Score,
		ScoreDelta:  a.ScoreDelta,
		Shields:     a.Shields,
		Resurrected: a.Resurrected,
		Sound:       "silent",
	}
	s.Blocked = relSet(w.sens.Blocked(a), a.Facing)
	for _, m := range w.outbox {
		if m.From != a.Name {
			s.Messages = append(s.Messages, m)
		}
	}

	switch w.sim.Mode {
	case tuning.ModeTank:
		cfg := &w.sim.Tank
		s.Radar = protocol.RadarSensor{Status: a.Radar, Setting: a.RadarPower}
		if radar != nil {
			s.Radar.Distance = radar.Distance
			s.Radar.Sights = radarSights(radar)
		}
		s.Incoming = relSet(w.sens.Incoming(a), a.Facing)
		s.RWaves = relSet(w.sens.RWaves(a), a.Facing)
		if sm, ok := w.sens.Smell(a, live, cfg.MaxSmellDistance); ok {
			s.Smell = &protocol.Smell{Distance: sm.Distance, Color: sm.Color, Agent: sm.Agent}
		}
		if d, ok := w.sens.Sound(a, live, cfg.MaxSoundDistance); ok {
			s.Sound = d.RelativeTo(a.Facing).String()
		}
	case tuning.ModeEaters:
		s.Vision = w.sens.Vision(a, w.sim.Eaters.VisionRadius)
	case tuning.ModeTaxi:
		s.Taxi = w.taxiSensors(a)
	}
	return s
}

func relSet(abs [4]bool, facing model.Direction) protocol.RelSet {
	return protocol.RelSet{
		Forward:  abs[facing.Turn(model.Forward)],
		Right:    abs[facing.Turn(model.RightSide)],
		Backward: abs[facing.Turn(model.Backward)],
		Left:     abs[facing.Turn(model.LeftSide)],
	}
}

func radarSights(r *sensors.Radar) [][]*protocol.RadarCell {
	out := make([][]*protocol.RadarCell, len(r.Rows))
	for i, row := range r.Rows {
		if row == ([3]*sensors.Sight{}) {
			continue
		}
		cells := make([]*protocol.RadarCell, 3)
		for j, sg := range row {
			if sg != nil {
				cells[j] = &protocol.RadarCell{Kind: sg.Kind, Agent: sg.Agent, Color: sg.Color}
			}
		}
		out[i] = cells
	}
	return out
}
