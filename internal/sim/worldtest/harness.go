// Package worldtest drives whole runs through the world's exported API,
// using the shipped configs under configs/.
package worldtest

import (
	"context"
	"path/filepath"
	"testing"

	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/tuning"
	world "gridarena.ai/internal/sim/world"
	"gridarena.ai/internal/sim/world/kernel/grid"
)

const configDir = "../../../configs"

// ShippedConfig builds a world config from configs/tuning.yaml, configs/templates.yaml
// and configs/maps/<name>.yaml. The map's mode wins over the tuning file's.
func ShippedConfig(t *testing.T, mapName string, seed int64, maxTicks int) world.WorldConfig {
	t.Helper()
	sim, err := tuning.Load(filepath.Join(configDir, "tuning.yaml"))
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	cat, err := catalogs.Load(configDir)
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	m, err := grid.LoadMapFile(filepath.Join(configDir, "maps", mapName+".yaml"))
	if err != nil {
		t.Fatalf("load map %s: %v", mapName, err)
	}
	if m.Mode != "" {
		sim.Mode = m.Mode
	}
	sim.Seed = seed
	sim.MaxTicks = maxTicks
	return world.WorldConfig{RunID: "wt-" + mapName, Sim: sim, Map: m, Catalog: cat}
}

// Harness steps one world with one provider and keeps every tick's digest.
type Harness struct {
	T        *testing.T
	W        *world.World
	Provider world.CommandProvider

	Digests []string
}

func NewHarness(t *testing.T, cfg world.WorldConfig, p world.CommandProvider, opts ...world.Option) *Harness {
	t.Helper()
	w, err := world.New(cfg, opts...)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return &Harness{T: t, W: w, Provider: p}
}

// Step runs one tick and returns its digest.
func (h *Harness) Step() string {
	h.T.Helper()
	if err := h.W.Step(context.Background(), h.Provider); err != nil {
		h.T.Fatalf("step %d: %v", h.W.Tick()+1, err)
	}
	d := h.W.LastDigest()
	h.Digests = append(h.Digests, d)
	return d
}

// RunToEnd steps until the world terminates, failing after limit ticks.
func (h *Harness) RunToEnd(limit int) world.Summary {
	h.T.Helper()
	for i := 0; i < limit; i++ {
		h.Step()
		if s := h.W.Summary(); s != nil {
			return *s
		}
	}
	h.T.Fatalf("no termination within %d ticks", limit)
	return world.Summary{}
}
