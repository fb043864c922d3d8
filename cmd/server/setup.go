package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/world"
	"gridarena.ai/internal/sim/world/kernel/grid"
)

// resolveMap accepts a map name under <configs>/maps or a path to a yaml file.
func resolveMap(configDir, name string) (grid.MapDef, error) {
	path := name
	if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
		path = filepath.Join(configDir, "maps", name+".yaml")
	}
	return grid.LoadMapFile(path)
}

// loadCatalog falls back to the built-in templates when templates.yaml is absent.
func loadCatalog(configDir string) (*catalogs.Catalog, error) {
	cat, err := catalogs.Load(configDir)
	if os.IsNotExist(err) {
		return catalogs.Builtin(), nil
	}
	return cat, err
}

func worldParams(w *world.World, cat *catalogs.Catalog) protocol.WorldParams {
	cfg := w.Config()
	raw, _ := json.Marshal(cfg)
	sum := sha256.Sum256(raw)
	return protocol.WorldParams{
		MapName:       w.PublicState().MapName,
		Width:         w.Map().Width(),
		Height:        w.Map().Height(),
		TickRateHz:    cfg.TickRateHz,
		Seed:          cfg.Seed,
		MaxRadar:      cfg.Tank.MaxRadar,
		CatalogDigest: cat.Digest,
		TuningDigest:  hex.EncodeToString(sum[:]),
	}
}

// splitBots returns the agents driven locally. "all" selects every agent.
func splitBots(spec string, agents []world.AgentSpec) (map[string]bool, error) {
	out := map[string]bool{}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return out, nil
	}
	known := map[string]bool{}
	for _, a := range agents {
		known[a.Name] = true
	}
	if spec == "all" {
		return known, nil
	}
	for _, name := range strings.Split(spec, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !known[name] {
			return nil, fmt.Errorf("unknown bot agent %q", name)
		}
		out[name] = true
	}
	return out, nil
}
