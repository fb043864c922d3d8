package scripted

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/world"
)

// ErrExhausted means an agent's queue ran out and no fallback applies.
var ErrExhausted = errors.New("script exhausted")

// Provider replays fixed per-agent command queues.
type Provider struct {
	mu     sync.Mutex
	queues map[string][]protocol.Command
	next   map[string]int

	repeat bool
	idle   bool
}

type Option func(*Provider)

// Repeat restarts a queue from the top once it runs out.
func Repeat() Option { return func(p *Provider) { p.repeat = true } }

// IdleWhenDone answers with an empty command once a queue runs out.
func IdleWhenDone() Option { return func(p *Provider) { p.idle = true } }

func New(queues map[string][]protocol.Command, opts ...Option) *Provider {
	p := &Provider{queues: map[string][]protocol.Command{}, next: map[string]int{}}
	for k, v := range queues {
		p.queues[k] = append([]protocol.Command(nil), v...)
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// FromTicks rebuilds per-agent queues from a recorded tick log.
func FromTicks(entries []world.TickLogEntry) *Provider {
	q := map[string][]protocol.Command{}
	for _, e := range entries {
		for _, c := range e.Commands {
			q[c.Agent] = append(q[c.Agent], c.Command)
		}
	}
	return New(q)
}

// Push appends to an agent's queue.
func (p *Provider) Push(agent string, cmds ...protocol.Command) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queues[agent] = append(p.queues[agent], cmds...)
}

// Remaining is the number of unread commands for agent, ignoring Repeat.
func (p *Provider) Remaining(agent string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queues[agent]) - p.next[agent]
}

func (p *Provider) NextCommand(_ context.Context, agent string, _ protocol.Sensors) (protocol.Command, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q := p.queues[agent]
	i := p.next[agent]
	if i >= len(q) {
		switch {
		case p.repeat && len(q) > 0:
			i = 0
		case p.idle:
			return protocol.Command{}, nil
		default:
			return protocol.Command{}, fmt.Errorf("%w: %s after %d commands", ErrExhausted, agent, len(q))
		}
	}
	p.next[agent] = i + 1
	return q[i], nil
}
