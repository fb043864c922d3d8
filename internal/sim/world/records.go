package world

import (
	"time"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world/kernel/grid"
	"gridarena.ai/internal/sim/world/logic/ballistics"
)

// RunHeader is written once at the start of a tick log. Together with the
// recorded commands it is enough to rebuild and re-step the run.
type RunHeader struct {
	RunID     string              `json:"run_id"`
	Config    tuning.SimConfig    `json:"config"`
	Map       grid.MapDef         `json:"map"`
	Templates []catalogs.Template `json:"templates"`
	Agents    []AgentSpec         `json:"agents"`
	StartedAt time.Time           `json:"started_at"`
}

type TickLogEntry struct {
	Tick     uint64            `json:"tick"`
	Commands []RecordedCommand `json:"commands,omitempty"`
	Frags    []ballistics.Frag `json:"frags,omitempty"`
	Scores   map[string]int    `json:"scores,omitempty"`
	Digest   string            `json:"digest"`
}

type RecordedCommand struct {
	Agent   string           `json:"agent"`
	Command protocol.Command `json:"command"`
}

// TickStats feeds observers such as the metrics registry.
type TickStats struct {
	Tick          uint64
	Duration      time.Duration
	Frags         int
	Collisions    map[string]int
	MissilesFired int
	MissilesLive  int
	AgentsLive    int
}

// Header describes this run for a tick log.
func (w *World) Header() RunHeader { return HeaderFor(w.cfg) }

// HeaderFor describes the run cfg will produce, so loggers can be opened before New.
func HeaderFor(cfg WorldConfig) RunHeader {
	cfg = cfg.withDefaults()
	return RunHeader{
		RunID:     cfg.RunID,
		Config:    cfg.Sim,
		Map:       cfg.Map,
		Templates: cfg.Catalog.Templates(),
		Agents:    append([]AgentSpec(nil), cfg.Agents...),
		StartedAt: time.Now().UTC(),
	}
}

// ConfigFromHeader rebuilds the world configuration recorded in h.
func ConfigFromHeader(h RunHeader) (WorldConfig, error) {
	cat, err := catalogs.FromTemplates(h.Templates)
	if err != nil {
		return WorldConfig{}, err
	}
	return WorldConfig{
		RunID:   h.RunID,
		Sim:     h.Config,
		Map:     h.Map,
		Catalog: cat,
		Agents:  h.Agents,
	}, nil
}
