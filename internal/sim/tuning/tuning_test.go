package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestParse_OverlaysDefaults(t *testing.T) {
	c, err := Parse([]byte(`
mode: Eaters
seed: 7
tank:
  collision_penalty: 50
terminate:
  expressions:
    - "Tick >= 10"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Mode != ModeEaters || c.Seed != 7 {
		t.Fatalf("mode/seed: %q %d", c.Mode, c.Seed)
	}
	if c.Tank.CollisionPenalty != 50 || c.Tank.MaxHealth != 1000 {
		t.Fatalf("overlay lost defaults: %+v", c.Tank)
	}
	if len(c.Terminate.Expressions) != 1 {
		t.Fatalf("expressions: %v", c.Terminate.Expressions)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := []string{
		"mode: chess\n",
		"tick_rate_hz: 0\n",
		"tank:\n  max_radar: 0\n",
		"tank:\n  missile_pack_respawn_chance: 101\n",
		"tank:\n  initial_missiles: 20\n  max_missiles: 10\n",
		"taxi:\n  fuel_start_min: 9\n  fuel_start_max: 3\n",
		"terminate:\n  expressions: ['  ']\n",
	}
	for _, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte("max_ticks: 250\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.MaxTicks != 250 {
		t.Fatalf("max ticks %d", c.MaxTicks)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
