package model

// Kind selects the concrete agent flavour for a simulation mode.
type Kind string

const (
	KindTank  Kind = "tank"
	KindEater Kind = "eater"
	KindTaxi  Kind = "taxi"
)

// Agent is owned by the registry. Cells only hold a back-reference.
type Agent struct {
	Name  string
	Color string
	Kind  Kind

	Facing Direction
	Loc    Location
	// From is Loc as of BeginTick, before this tick's movement.
	From Location

	Health   int
	Energy   int
	Missiles int

	Shields    bool
	Radar      bool
	RadarPower int

	Moved   bool
	Rotated bool

	Score      int
	ScoreDelta int

	Resurrected bool

	// Kills and Deaths are cumulative; Hits is reset on respawn.
	Kills  int
	Hits   int
	Deaths int

	// Taxi state.
	Fuel     int
	Carrying bool
}

// SetLoc moves the agent's bookkeeping position; the caller maintains the grid.
func (a *Agent) SetLoc(l Location) {
	a.Loc = l
}

func (a *Agent) AddScore(delta int) {
	a.ScoreDelta += delta
}

// CommitScore folds the tick's delta into the running score and returns it.
func (a *Agent) CommitScore() int {
	a.Score += a.ScoreDelta
	return a.ScoreDelta
}

func (a *Agent) BeginTick() {
	a.From = a.Loc
	a.Moved = false
	a.Rotated = false
	a.Resurrected = false
	a.ScoreDelta = 0
}

// Damage lowers health, never below zero, and reports whether the agent is now dead.
func (a *Agent) Damage(n int) bool {
	if n > 0 {
		a.Health -= n
		if a.Health < 0 {
			a.Health = 0
		}
	}
	return a.Health <= 0
}

func (a *Agent) Alive() bool { return a.Health > 0 }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp bounds the counters into [0,max].
func (a *Agent) Clamp(maxHealth, maxEnergy, maxMissiles, maxRadar int) {
	a.Health = clamp(a.Health, 0, maxHealth)
	a.Energy = clamp(a.Energy, 0, maxEnergy)
	if maxMissiles > 0 {
		a.Missiles = clamp(a.Missiles, 0, maxMissiles)
	} else if a.Missiles < 0 {
		a.Missiles = 0
	}
	a.RadarPower = clamp(a.RadarPower, 0, maxRadar)
}
