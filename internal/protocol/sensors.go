package protocol

// Sensors is the per-agent snapshot produced after every tick.
type Sensors struct {
	Tick     uint64 `json:"tick"`
	Agent    string `json:"agent"`
	Kind     string `json:"kind"`
	Position [2]int `json:"position"`
	Facing   string `json:"facing,omitempty"`

	Health     int `json:"health"`
	Energy     int `json:"energy"`
	Missiles   int `json:"missiles"`
	Score      int `json:"score"`
	ScoreDelta int `json:"score_delta"`

	Shields     bool `json:"shields"`
	Resurrected bool `json:"resurrected,omitempty"`

	Radar RadarSensor `json:"radar"`

	Blocked  RelSet `json:"blocked"`
	Incoming RelSet `json:"incoming"`
	RWaves   RelSet `json:"rwaves"`

	Smell *Smell `json:"smell,omitempty"`
	// Sound is a relative direction or "silent".
	Sound string `json:"sound"`

	Messages []Message `json:"messages,omitempty"`

	// Eaters: square window of cell contents centred on the agent, row-major from the north-west corner.
	Vision [][]string `json:"vision,omitempty"`

	Taxi *TaxiSensors `json:"taxi,omitempty"`
}

type RadarSensor struct {
	Status   bool `json:"status"`
	Setting  int  `json:"setting"`
	Distance int  `json:"distance"`
	// Sights[row][col]: row 0 is the agent's own row, col 0/1/2 is left/centre/right.
	// Rows past the first wall are nil.
	Sights [][]*RadarCell `json:"sights,omitempty"`
}

type RadarCell struct {
	Kind  string `json:"kind"`
	Agent string `json:"agent,omitempty"`
	Color string `json:"color,omitempty"`
}

// RelSet is a per-relative-direction flag set.
type RelSet struct {
	Forward  bool `json:"forward"`
	Right    bool `json:"right"`
	Backward bool `json:"backward"`
	Left     bool `json:"left"`
}

func (s RelSet) Any() bool { return s.Forward || s.Right || s.Backward || s.Left }

type Smell struct {
	Distance int    `json:"distance"`
	Color    string `json:"color"`
	Agent    string `json:"agent,omitempty"`
}

type Message struct {
	From string `json:"from"`
	Text string `json:"text"`
}

type TaxiSensors struct {
	Fuel        int    `json:"fuel"`
	Carrying    bool   `json:"carrying"`
	Destination string `json:"destination,omitempty"`
	// Cell describes what the taxi is standing on: "fuel", a destination color, or "".
	Cell             string  `json:"cell,omitempty"`
	PassengerVisible bool    `json:"passenger_visible"`
	PassengerAt      *[2]int `json:"passenger_at,omitempty"`
}
