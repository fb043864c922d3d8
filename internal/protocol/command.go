package protocol

// Command is one agent's intent for one tick. Direction fields are free-form
// strings ("forward", "left", "north", "e", ...); the world normalizes them.
type Command struct {
	Move          bool   `json:"move,omitempty"`
	MoveDirection string `json:"move_direction,omitempty"`

	Rotate          bool   `json:"rotate,omitempty"`
	RotateDirection string `json:"rotate_direction,omitempty"`

	Fire bool `json:"fire,omitempty"`

	Shields        bool `json:"shields,omitempty"`
	ShieldsSetting bool `json:"shields_setting,omitempty"`

	Radar        bool `json:"radar,omitempty"`
	RadarSetting bool `json:"radar_setting,omitempty"`

	RadarPower        bool `json:"radar_power,omitempty"`
	RadarPowerSetting int  `json:"radar_power_setting,omitempty"`

	// Eaters.
	Jump    bool `json:"jump,omitempty"`
	DontEat bool `json:"dont_eat,omitempty"`

	// Taxi. Get and Drop are accepted as aliases of Pickup and Putdown.
	Pickup  bool `json:"pickup,omitempty"`
	Putdown bool `json:"putdown,omitempty"`
	Get     bool `json:"get,omitempty"`
	Drop    bool `json:"drop,omitempty"`
	Fillup  bool `json:"fillup,omitempty"`

	Communicate bool   `json:"communicate,omitempty"`
	Message     string `json:"message,omitempty"`

	StopSim bool `json:"stop_sim,omitempty"`
}

// Idle reports whether the command asks for nothing at all.
func (c Command) Idle() bool { return c == Command{} }
