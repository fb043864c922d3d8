package main

import (
	"testing"

	"gridarena.ai/internal/sim/world"
)

func TestSplitBots(t *testing.T) {
	agents := []world.AgentSpec{{Name: "red"}, {Name: "blue"}}
	all, err := splitBots("all", agents)
	if err != nil || !all["red"] || !all["blue"] {
		t.Fatalf("all: %v %v", all, err)
	}
	some, err := splitBots(" blue ,", agents)
	if err != nil || len(some) != 1 || !some["blue"] {
		t.Fatalf("some: %v %v", some, err)
	}
	if _, err := splitBots("green", agents); err == nil {
		t.Fatalf("unknown agent should fail")
	}
}

func TestResolveMap_ShippedMaps(t *testing.T) {
	for _, name := range []string{"arena", "eaters", "taxi"} {
		d, err := resolveMap("../../configs", name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if d.Name != name || len(d.Rows) == 0 {
			t.Fatalf("%s: %+v", name, d)
		}
	}
}
