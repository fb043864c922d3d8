package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AgentName       string `json:"agent_name"`
	// Codec selects the frame encoding after WELCOME: "json" (default) or "msgpack".
	Codec string `json:"codec,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Agent           string `json:"agent"`
	Color           string `json:"color,omitempty"`
	Kind            string `json:"kind"`
	Mode            string `json:"mode"`
	Codec           string `json:"codec"`

	World WorldParams `json:"world"`
}

type WorldParams struct {
	MapName       string `json:"map_name"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	TickRateHz    int    `json:"tick_rate_hz"`
	Seed          int64  `json:"seed"`
	MaxRadar      int    `json:"max_radar,omitempty"`
	CatalogDigest string `json:"catalog_digest"`
	TuningDigest  string `json:"tuning_digest,omitempty"`
}

// SENSORS (server -> client): the snapshot the agent decides on.
type SensorsMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	Sensors         Sensors `json:"sensors"`
}

// COMMAND (client -> server): the agent's intent for Tick.
type CommandMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	Command         Command `json:"command"`
}

// END (server -> client)
type EndMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Tick            uint64     `json:"tick"`
	Reason          string     `json:"reason"`
	Standings       []Standing `json:"standings"`
}

type Standing struct {
	Rank    int    `json:"rank"`
	Agent   string `json:"agent"`
	Score   int    `json:"score"`
	Outcome string `json:"outcome"` // winner|loser|draw
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
	Tick            uint64 `json:"tick,omitempty"`
}

func NewError(code, msg string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: msg}
}
