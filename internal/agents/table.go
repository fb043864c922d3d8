// Package agents routes each agent's decisions to its own provider.
package agents

import (
	"context"
	"fmt"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/world"
)

// Table dispatches NextCommand by agent name, e.g. local bots for some
// seats and the websocket server for the rest.
type Table struct {
	byAgent  map[string]world.CommandProvider
	fallback world.CommandProvider
}

func NewTable(fallback world.CommandProvider) *Table {
	return &Table{byAgent: map[string]world.CommandProvider{}, fallback: fallback}
}

func (t *Table) Set(agent string, p world.CommandProvider) { t.byAgent[agent] = p }

func (t *Table) NextCommand(ctx context.Context, agent string, s protocol.Sensors) (protocol.Command, error) {
	p, ok := t.byAgent[agent]
	if !ok {
		p = t.fallback
	}
	if p == nil {
		return protocol.Command{}, fmt.Errorf("no provider for %s", agent)
	}
	return p.NextCommand(ctx, agent, s)
}

// Finish forwards the summary once to every distinct provider that wants it.
func (t *Table) Finish(sum world.Summary) {
	seen := map[world.CommandProvider]bool{}
	all := make([]world.CommandProvider, 0, len(t.byAgent)+1)
	for _, p := range t.byAgent {
		all = append(all, p)
	}
	all = append(all, t.fallback)
	for _, p := range all {
		if p == nil || seen[p] {
			continue
		}
		seen[p] = true
		if f, ok := p.(world.Finisher); ok {
			f.Finish(sum)
		}
	}
}
