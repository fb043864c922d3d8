package world

import (
	"strings"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world/kernel/model"
)

// intent is a command after normalization against the agent's pose.
type intent struct {
	move   bool
	dir    model.Direction
	rotate bool
	facing model.Direction
	fire   bool

	setShields bool
	shields    bool
	setRadar   bool
	radar      bool
	radarPower int // 0 leaves the power unchanged

	jump    bool
	dontEat bool

	pickup  bool
	putdown bool
	fillup  bool

	message string
	stop    bool
}

// normalize resolves direction strings, folds aliases and makes move and
// rotate exclusive (move wins). Parts with unrecognized directions are dropped.
func normalize(c protocol.Command, a *model.Agent, sim *tuning.SimConfig) intent {
	in := intent{
		fire:    c.Fire,
		jump:    c.Jump && sim.Mode == tuning.ModeEaters,
		dontEat: c.DontEat,
		pickup:  c.Pickup || c.Get,
		putdown: c.Putdown || c.Drop,
		fillup:  c.Fillup,
		stop:    c.StopSim,
	}
	if c.Move {
		if d, ok := moveHeading(c.MoveDirection, a, sim.Mode); ok {
			in.move = true
			in.dir = d
		}
	}
	if c.Rotate && !in.move {
		if f, ok := rotation(c.RotateDirection, a.Facing); ok && f != a.Facing {
			in.rotate = true
			in.facing = f
		}
	}
	if c.Shields {
		in.setShields, in.shields = true, c.ShieldsSetting
	}
	if c.Radar {
		in.setRadar, in.radar = true, c.RadarSetting
	}
	if c.RadarPower {
		p := c.RadarPowerSetting
		if p < 1 {
			p = 1
		}
		if p > sim.Tank.MaxRadar {
			p = sim.Tank.MaxRadar
		}
		in.radarPower = p
	}
	if c.Communicate {
		in.message = strings.TrimSpace(c.Message)
	}
	return in
}

// Tanks strafe relative to their facing; eaters and taxis move on compass
// headings where left and right mean west and east.
func moveHeading(s string, a *model.Agent, mode string) (model.Direction, bool) {
	if mode == tuning.ModeTank {
		return model.ParseHeading(s, a.Facing)
	}
	return model.ParseDirection(s)
}

func rotation(s string, f model.Direction) (model.Direction, bool) {
	if r, ok := model.ParseRelDir(s); ok {
		return f.Turn(r), true
	}
	return model.ParseDirection(s)
}
