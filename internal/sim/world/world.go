package world

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"sync/atomic"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world/kernel/grid"
	"gridarena.ai/internal/sim/world/kernel/model"
	"gridarena.ai/internal/sim/world/logic/sensors"
	"gridarena.ai/internal/sim/world/logic/terminate"
	"gridarena.ai/internal/sim/world/registry"
)

var (
	// ErrNoStartingLocation means no enterable, unoccupied, resource-free cell exists for a spawn.
	ErrNoStartingLocation = errors.New("no available starting location")
	// ErrMissingCommand means a live agent did not produce a command for the tick.
	ErrMissingCommand = errors.New("missing command")
	ErrTerminated     = errors.New("simulation terminated")
)

// CommandProvider is the decision-making collaborator. It is called once per
// live agent per tick, before any world mutation, with the agent's last snapshot.
type CommandProvider interface {
	NextCommand(ctx context.Context, agent string, sensors protocol.Sensors) (protocol.Command, error)
}

// Finisher is implemented by providers that want the end-of-run summary.
type Finisher interface {
	Finish(s Summary)
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// ResultRecorder is implemented by tick loggers that also persist the final summary.
type ResultRecorder interface {
	RecordResult(s Summary) error
}

type Observer interface {
	ObserveTick(s TickStats)
}

// EventSink receives each tick's events. When any sink is installed the
// world drains its buffer after every tick, so DrainEvents sees nothing.
type EventSink interface {
	WriteEvents(tick uint64, events []model.Event) error
}

type AgentSpec struct {
	Name   string          `json:"name"`
	Color  string          `json:"color,omitempty"`
	Start  *model.Location `json:"start,omitempty"`
	Facing string          `json:"facing,omitempty"`
}

type WorldConfig struct {
	RunID   string
	Sim     tuning.SimConfig
	Map     grid.MapDef
	Catalog *catalogs.Catalog
	// Agents defaults to the map's agent list.
	Agents []AgentSpec
}

// World is a single-threaded simulation. All state must be accessed only
// from the goroutine calling Step or Run; PublicState is the exception.
type World struct {
	cfg WorldConfig
	sim *tuning.SimConfig

	m    *grid.GridMap
	reg  *registry.Registry
	rng  *rand.Rand
	sens *sensors.Engine
	term *terminate.Checker

	tick       uint64
	phase      Phase
	lastDigest string

	lastSensors map[string]protocol.Sensors
	outbox      []protocol.Message
	events      []model.Event

	stopRequested bool
	totalFrags    int
	taxi          taxiState
	summary       *Summary

	logger      *log.Logger
	tickLoggers []TickLogger
	eventSinks  []EventSink
	observers   []Observer

	public atomic.Pointer[PublicState]
}

type Option func(*World)

func WithLogger(l *log.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithTickLogger may be given more than once; every logger sees every tick.
func WithTickLogger(t TickLogger) Option {
	return func(w *World) {
		if t != nil {
			w.tickLoggers = append(w.tickLoggers, t)
		}
	}
}

func WithEventSink(s EventSink) Option {
	return func(w *World) {
		if s != nil {
			w.eventSinks = append(w.eventSinks, s)
		}
	}
}

func WithObserver(o Observer) Option {
	return func(w *World) {
		if o != nil {
			w.observers = append(w.observers, o)
		}
	}
}

func New(cfg WorldConfig, opts ...Option) (*World, error) {
	if err := cfg.Sim.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg = cfg.withDefaults()
	if len(cfg.Agents) == 0 {
		return nil, fmt.Errorf("no agents configured")
	}
	m, err := cfg.Map.Build(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", cfg.Map.Name, err)
	}
	term, err := terminate.New(&cfg.Sim)
	if err != nil {
		return nil, err
	}
	w := &World{
		cfg:         cfg,
		m:           m,
		reg:         registry.New(),
		rng:         rand.New(rand.NewSource(cfg.Sim.Seed)),
		term:        term,
		lastSensors: map[string]protocol.Sensors{},
		logger:      log.New(io.Discard, "", 0),
	}
	w.sim = &w.cfg.Sim
	w.sens = sensors.New(m, w.rng)
	for _, o := range opts {
		o(w)
	}
	if err := w.spawnAll(); err != nil {
		return nil, err
	}
	if w.sim.Mode == tuning.ModeTaxi {
		if err := w.initTaxi(); err != nil {
			return nil, err
		}
	}
	w.senseAll()
	w.publish()
	return w, nil
}

// withDefaults fills the catalog and, when no agents are given, takes them from the map.
func (cfg WorldConfig) withDefaults() WorldConfig {
	if cfg.Catalog == nil {
		cfg.Catalog = catalogs.Builtin()
	}
	if len(cfg.Agents) == 0 {
		for _, s := range cfg.Map.Agents {
			spec := AgentSpec{Name: s.Name, Color: s.Color, Facing: s.Facing}
			if l, ok := s.Location(); ok {
				spec.Start = &l
			}
			cfg.Agents = append(cfg.Agents, spec)
		}
	}
	return cfg
}

// spawnAll places pinned agents first so random spawns cannot take their cells.
func (w *World) spawnAll() error {
	var floating []*model.Agent
	for i, spec := range w.cfg.Agents {
		a := &model.Agent{Name: spec.Name, Color: spec.Color, Kind: w.agentKind()}
		if a.Color == "" {
			a.Color = defaultColors[i%len(defaultColors)]
		}
		if err := w.reg.Add(a); err != nil {
			return err
		}
		w.resetLife(a)
		a.Resurrected = false
		if f, ok := model.ParseDirection(spec.Facing); ok {
			a.Facing = f
		} else {
			a.Facing = model.Direction(w.rng.Intn(4))
		}
		if spec.Start == nil {
			floating = append(floating, a)
			continue
		}
		l := *spec.Start
		if !w.m.Enterable(l) || w.m.Occupant(l) != nil {
			return fmt.Errorf("agent %s: start %v is blocked or taken", a.Name, l)
		}
		w.placeAgent(a, l)
	}
	for _, a := range floating {
		l, err := w.spawnLocation()
		if err != nil {
			return fmt.Errorf("agent %s: %w", a.Name, err)
		}
		w.placeAgent(a, l)
	}
	return nil
}

var defaultColors = []string{"red", "blue", "green", "yellow", "orange", "purple", "black", "white"}

func (w *World) agentKind() model.Kind {
	switch w.sim.Mode {
	case tuning.ModeEaters:
		return model.KindEater
	case tuning.ModeTaxi:
		return model.KindTaxi
	}
	return model.KindTank
}

func (w *World) placeAgent(a *model.Agent, l model.Location) {
	a.SetLoc(l)
	w.m.SetOccupant(l, a)
}

func (w *World) RunID() string                  { return w.cfg.RunID }
func (w *World) Tick() uint64                   { return w.tick }
func (w *World) Phase() Phase                   { return w.phase }
func (w *World) Config() *tuning.SimConfig      { return w.sim }
func (w *World) Map() *grid.GridMap             { return w.m }
func (w *World) Registry() *registry.Registry   { return w.reg }
func (w *World) Agents() []*model.Agent         { return w.reg.All() }
func (w *World) Agent(name string) *model.Agent { return w.reg.Get(name) }

// Sensors returns the snapshot the agent will decide its next command on.
func (w *World) Sensors(agent string) (protocol.Sensors, bool) {
	s, ok := w.lastSensors[agent]
	return s, ok
}

// DrainEvents returns and clears the events buffered since the last drain.
func (w *World) DrainEvents() []model.Event {
	out := w.events
	w.events = nil
	return out
}

// Summary is non-nil once the run has terminated.
func (w *World) Summary() *Summary { return w.summary }

func (w *World) emit(e model.Event) {
	e.Tick = w.tick
	w.events = append(w.events, e)
}

func (w *World) warn(agent, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.logger.Printf("tick=%d agent=%s warning: %s", w.tick, agent, msg)
	w.emit(model.Event{Agent: agent, Kind: model.EventWarning, Detail: msg})
}
