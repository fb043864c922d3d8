package catalogs

import "testing"

func TestParse_Templates(t *testing.T) {
	raw := []byte(`
templates:
  - name: wall
    kind: wall
    symbol: "#"
  - name: health
    kind: health-charger
    symbol: H
    health_delta: 150
  - name: boom
    kind: explosion
    update: lifetime
  - name: pack
    kind: missile-pack
    missiles_delta: 5
    consumable: true
    properties:
      sprite: crate
`)
	c, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(c.Names) != 4 || c.Names[0] != "boom" {
		t.Fatalf("names: %v", c.Names)
	}
	w, _ := c.Get("wall")
	if !w.Blocking {
		t.Fatalf("walls must block")
	}
	h, _ := c.Get("health")
	if h.HealthDelta != 150 || !h.Kind.Charger() {
		t.Fatalf("health template: %+v", h)
	}
	b, _ := c.Get("boom")
	if b.Lifetime != 1 {
		t.Fatalf("lifetime default: %d", b.Lifetime)
	}
	p, _ := c.Get("pack")
	if !p.Consumable || p.MissilesDelta != 5 || p.Properties["sprite"] != "crate" {
		t.Fatalf("pack template: %+v", p)
	}
	if c.BySymbol["H"] != "health" {
		t.Fatalf("symbol index: %v", c.BySymbol)
	}
	if c.Digest == "" {
		t.Fatalf("missing digest")
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown kind": "templates:\n  - name: x\n    kind: lava\n",
		"empty name":   "templates:\n  - kind: wall\n",
		"duplicate":    "templates:\n  - name: x\n    kind: wall\n  - name: x\n    kind: food\n",
		"symbol clash": "templates:\n  - name: x\n    kind: wall\n    symbol: '#'\n  - name: y\n    kind: food\n    symbol: '#'\n",
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestBuiltin(t *testing.T) {
	c := Builtin()
	for _, n := range []string{Wall, HealthCharger, EnergyCharger, MissilePack, Missile, Explosion, Food, BonusFood, FuelStation, Passenger} {
		if _, ok := c.Get(n); !ok {
			t.Fatalf("builtin missing %s", n)
		}
	}
	if d, ok := c.FirstOfKind(KindDestination); !ok || d.Name != "blue" {
		t.Fatalf("first destination: %+v %v", d, ok)
	}
}

func TestFromTemplates_MatchesRecordedDefs(t *testing.T) {
	a := Builtin()
	b, err := FromTemplates(a.Templates())
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(b.Names) != len(a.Names) || b.BySymbol["M"] != MissilePack {
		t.Fatalf("rebuilt catalog differs: %v", b.Names)
	}
	if b.Digest == "" {
		t.Fatalf("missing digest")
	}
}
