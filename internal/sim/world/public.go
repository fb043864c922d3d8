package world

import (
	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/world/kernel/grid"
)

// PublicState is an immutable copy of the world published after every tick.
// It is the only view other goroutines may read.
type PublicState struct {
	RunID   string        `json:"run_id,omitempty"`
	Tick    uint64        `json:"tick"`
	Phase   Phase         `json:"phase"`
	Mode    string        `json:"mode"`
	MapName string        `json:"map_name"`
	Width   int           `json:"width"`
	Height  int           `json:"height"`
	Agents  []AgentState  `json:"agents"`
	Objects []ObjectState `json:"objects,omitempty"`
	Summary *Summary      `json:"summary,omitempty"`
}

type AgentState struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	Kind       string `json:"kind"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Facing     string `json:"facing"`
	Health     int    `json:"health"`
	Energy     int    `json:"energy"`
	Missiles   int    `json:"missiles"`
	Score      int    `json:"score"`
	Shields    bool   `json:"shields"`
	Radar      bool   `json:"radar"`
	RadarPower int    `json:"radar_power"`
	Kills      int    `json:"kills"`
	Deaths     int    `json:"deaths"`
	Fuel       int    `json:"fuel,omitempty"`
	Carrying   bool   `json:"carrying,omitempty"`
}

// ObjectState lists non-wall objects; walls are static and come from the map.
type ObjectState struct {
	Name  string        `json:"name"`
	Kind  catalogs.Kind `json:"kind"`
	X     int           `json:"x"`
	Y     int           `json:"y"`
	Owner string        `json:"owner,omitempty"`
	Phase int           `json:"phase,omitempty"`
}

// PublicState is safe to call from any goroutine.
func (w *World) PublicState() PublicState {
	if p := w.public.Load(); p != nil {
		return *p
	}
	return PublicState{}
}

func (w *World) publish() {
	p := &PublicState{
		RunID:   w.cfg.RunID,
		Tick:    w.tick,
		Phase:   w.phase,
		Mode:    w.sim.Mode,
		MapName: w.cfg.Map.Name,
		Width:   w.m.Width(),
		Height:  w.m.Height(),
		Summary: w.summary,
	}
	for _, a := range w.reg.All() {
		p.Agents = append(p.Agents, AgentState{
			Name:       a.Name,
			Color:      a.Color,
			Kind:       string(a.Kind),
			X:          a.Loc.X,
			Y:          a.Loc.Y,
			Facing:     a.Facing.String(),
			Health:     a.Health,
			Energy:     a.Energy,
			Missiles:   a.Missiles,
			Score:      a.Score,
			Shields:    a.Shields,
			Radar:      a.Radar,
			RadarPower: a.RadarPower,
			Kills:      a.Kills,
			Deaths:     a.Deaths,
			Fuel:       a.Fuel,
			Carrying:   a.Carrying,
		})
	}
	w.m.Each(func(c *grid.Cell) {
		for _, o := range c.Objects() {
			if o.Kind == catalogs.KindWall {
				continue
			}
			p.Objects = append(p.Objects, ObjectState{Name: o.Name, Kind: o.Kind, X: c.Loc.X, Y: c.Loc.Y, Owner: o.Owner, Phase: o.Phase})
		}
	})
	w.public.Store(p)
}
