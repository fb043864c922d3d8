package registry

import (
	"fmt"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/world/kernel/model"
)

// Registry owns the agents of one run. Insertion order is stable and defines
// the dense index used by the collision arena and every per-tick iteration.
type Registry struct {
	agents []*model.Agent
	index  map[string]int

	pending map[string]protocol.Command
}

func New() *Registry {
	return &Registry{
		index:   map[string]int{},
		pending: map[string]protocol.Command{},
	}
}

func (r *Registry) Add(a *model.Agent) error {
	if a == nil || a.Name == "" {
		return fmt.Errorf("agent name required")
	}
	if _, dup := r.index[a.Name]; dup {
		return fmt.Errorf("duplicate agent %q", a.Name)
	}
	r.index[a.Name] = len(r.agents)
	r.agents = append(r.agents, a)
	return nil
}

func (r *Registry) Len() int { return len(r.agents) }

func (r *Registry) Get(name string) *model.Agent {
	if i, ok := r.index[name]; ok {
		return r.agents[i]
	}
	return nil
}

// All returns agents in insertion order. The slice is shared; do not append to it.
func (r *Registry) All() []*model.Agent { return r.agents }

func (r *Registry) Live() []*model.Agent {
	out := make([]*model.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		if a.Alive() {
			out = append(out, a)
		}
	}
	return out
}

func (r *Registry) LiveCount() int {
	n := 0
	for _, a := range r.agents {
		if a.Alive() {
			n++
		}
	}
	return n
}

func (r *Registry) SetCommand(name string, c protocol.Command) { r.pending[name] = c }

func (r *Registry) Command(name string) (protocol.Command, bool) {
	c, ok := r.pending[name]
	return c, ok
}

// ClearCommands discards every pending command; commands live for one tick.
func (r *Registry) ClearCommands() {
	for k := range r.pending {
		delete(r.pending, k)
	}
}
