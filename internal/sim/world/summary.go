package world

import (
	"sort"

	"gridarena.ai/internal/protocol"
)

// Outcomes.
const (
	OutcomeWinner = "winner"
	OutcomeLoser  = "loser"
	OutcomeDraw   = "draw"
)

// Summary is the ranked end-of-run result.
type Summary struct {
	RunID     string              `json:"run_id,omitempty"`
	Mode      string              `json:"mode"`
	Tick      uint64              `json:"tick"`
	Reason    string              `json:"reason"`
	Standings []protocol.Standing `json:"standings"`
}

// Winner is empty on a draw.
func (s Summary) Winner() string {
	for _, st := range s.Standings {
		if st.Outcome == OutcomeWinner {
			return st.Agent
		}
	}
	return ""
}

func (s Summary) EndMsg() protocol.EndMsg {
	return protocol.EndMsg{
		Type:            protocol.TypeEnd,
		ProtocolVersion: protocol.Version,
		Tick:            s.Tick,
		Reason:          s.Reason,
		Standings:       s.Standings,
	}
}

// rank orders agents by score; equal scores share a rank. A tie for first is a draw for everyone tied.
func (w *World) rank(reason string) Summary {
	agents := append(w.reg.All()[:0:0], w.reg.All()...)
	sort.SliceStable(agents, func(i, j int) bool { return agents[i].Score > agents[j].Score })
	s := Summary{RunID: w.cfg.RunID, Mode: w.sim.Mode, Tick: w.tick, Reason: reason}
	top := 0
	for i, a := range agents {
		if a.Score == agents[0].Score {
			top++
		}
		rank := i + 1
		if i > 0 && a.Score == agents[i-1].Score {
			rank = s.Standings[i-1].Rank
		}
		s.Standings = append(s.Standings, protocol.Standing{Rank: rank, Agent: a.Name, Score: a.Score})
	}
	for i := range s.Standings {
		switch {
		case s.Standings[i].Rank != 1:
			s.Standings[i].Outcome = OutcomeLoser
		case top > 1:
			s.Standings[i].Outcome = OutcomeDraw
		default:
			s.Standings[i].Outcome = OutcomeWinner
		}
	}
	return s
}
