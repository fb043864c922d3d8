package world

import "fmt"

// Phase is the orchestrator's position in the tick state machine.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseCollecting
	PhaseResolving
	PhaseSensing
	PhaseScoring
	PhaseTerminal
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCollecting:
		return "collecting_commands"
	case PhaseResolving:
		return "resolving"
	case PhaseSensing:
		return "sensing"
	case PhaseScoring:
		return "scoring"
	case PhaseTerminal:
		return "terminal"
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	for q := PhaseIdle; q <= PhaseTerminal; q++ {
		if q.String() == string(b) {
			*p = q
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}
