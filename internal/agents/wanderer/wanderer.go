// Package wanderer is a reflex agent for every mode. It keeps no random
// state, so a run driven only by wanderers is reproducible from its seed.
package wanderer

import (
	"context"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/world/logic/sensors"
)

type Config struct {
	// RadarPower is requested whenever the radar is off.
	RadarPower int
	// LowHealth and LowEnergy make a tank head for a charger it can see.
	LowHealth int
	LowEnergy int
	// LowFuel sends a taxi to fill up when it stands on a station.
	LowFuel int
}

func DefaultConfig() Config {
	return Config{RadarPower: 5, LowHealth: 400, LowEnergy: 300, LowFuel: 3}
}

type Provider struct {
	cfg Config
}

func New(cfg Config) *Provider { return &Provider{cfg: cfg} }

func (p *Provider) NextCommand(_ context.Context, _ string, s protocol.Sensors) (protocol.Command, error) {
	switch s.Kind {
	case sensors.Eater:
		return p.eater(s), nil
	case sensors.Taxi:
		return p.taxi(s), nil
	}
	return p.tank(s), nil
}

func (p *Provider) tank(s protocol.Sensors) protocol.Command {
	var c protocol.Command
	threatened := s.Incoming.Any()
	if threatened != s.Shields && (!threatened || s.Energy > 0) {
		c.Shields, c.ShieldsSetting = true, threatened
	}
	if !s.Radar.Status && s.Energy > p.cfg.RadarPower {
		c.Radar, c.RadarSetting = true, true
		c.RadarPower, c.RadarPowerSetting = true, p.cfg.RadarPower
	}

	ahead := centreColumn(s.Radar)
	if s.Missiles > 0 && ahead[sensors.Tank] > 0 {
		c.Fire = true
	}
	wantCharge := (s.Health < p.cfg.LowHealth && ahead[sensors.HealthCharger] > 0) ||
		(s.Energy < p.cfg.LowEnergy && ahead[sensors.EnergyCharger] > 0)

	switch {
	case !s.Blocked.Forward && (wantCharge || ahead[sensors.MissilePack] > 0 || !s.RWaves.Any()):
		c.Move, c.MoveDirection = true, "forward"
	case s.RWaves.Any():
		c.Rotate, c.RotateDirection = true, towards(s.RWaves)
	default:
		c.Rotate, c.RotateDirection = true, sidestep(s.Blocked, s.Tick)
	}
	return c
}

func (p *Provider) eater(s protocol.Sensors) protocol.Command {
	r := len(s.Vision) / 2
	best, bestDir := 0, ""
	for _, n := range neighbours {
		y, x := r+n.dy, r+n.dx
		if y < 0 || y >= len(s.Vision) || x < 0 || x >= len(s.Vision[y]) {
			continue
		}
		v := 0
		switch s.Vision[y][x] {
		case sensors.BonusFood:
			v = 2
		case sensors.Food:
			v = 1
		}
		if v > best {
			best, bestDir = v, n.name
		}
	}
	if bestDir != "" {
		return protocol.Command{Move: true, MoveDirection: bestDir}
	}
	return wander(s)
}

func (p *Provider) taxi(s protocol.Sensors) protocol.Command {
	t := s.Taxi
	if t == nil {
		return wander(s)
	}
	switch {
	case t.Cell == sensors.FuelStation && t.Fuel < p.cfg.LowFuel:
		return protocol.Command{Fillup: true}
	case t.Carrying && t.Destination != "" && t.Cell == t.Destination:
		return protocol.Command{Putdown: true}
	case !t.Carrying && t.PassengerAt != nil && *t.PassengerAt == s.Position:
		return protocol.Command{Pickup: true}
	case !t.Carrying && t.PassengerAt != nil:
		dx, dy := t.PassengerAt[0]-s.Position[0], t.PassengerAt[1]-s.Position[1]
		switch {
		case dx > 0:
			return protocol.Command{Move: true, MoveDirection: "east"}
		case dx < 0:
			return protocol.Command{Move: true, MoveDirection: "west"}
		case dy > 0:
			return protocol.Command{Move: true, MoveDirection: "south"}
		default:
			return protocol.Command{Move: true, MoveDirection: "north"}
		}
	}
	return wander(s)
}

// wander walks forward and turns away from obstacles.
func wander(s protocol.Sensors) protocol.Command {
	if !s.Blocked.Forward {
		return protocol.Command{Move: true, MoveDirection: "forward"}
	}
	return protocol.Command{Move: true, MoveDirection: sidestep(s.Blocked, s.Tick)}
}

func sidestep(b protocol.RelSet, tick uint64) string {
	first, second := "right", "left"
	if tick%2 == 1 {
		first, second = second, first
	}
	switch {
	case !blocked(b, first):
		return first
	case !blocked(b, second):
		return second
	}
	return "backward"
}

func blocked(b protocol.RelSet, dir string) bool {
	if dir == "right" {
		return b.Right
	}
	return b.Left
}

func towards(w protocol.RelSet) string {
	switch {
	case w.Left:
		return "left"
	case w.Right:
		return "right"
	}
	return "right"
}

func centreColumn(r protocol.RadarSensor) map[string]int {
	out := map[string]int{}
	for i, row := range r.Sights {
		if i == 0 || len(row) < 2 || row[1] == nil {
			continue
		}
		out[row[1].Kind]++
	}
	return out
}

var neighbours = []struct {
	name   string
	dx, dy int
}{
	{"north", 0, -1},
	{"east", 1, 0},
	{"south", 0, 1},
	{"west", -1, 0},
}
