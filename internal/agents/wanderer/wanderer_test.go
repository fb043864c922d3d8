package wanderer

import (
	"context"
	"errors"
	"testing"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world"
	"gridarena.ai/internal/sim/world/kernel/grid"
	"gridarena.ai/internal/sim/world/logic/sensors"
)

func decide(t *testing.T, s protocol.Sensors) protocol.Command {
	t.Helper()
	c, err := New(DefaultConfig()).NextCommand(context.Background(), s.Agent, s)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	return c
}

func TestTank_FiresAtSightedTankAndRaisesShields(t *testing.T) {
	s := protocol.Sensors{
		Kind:     sensors.Tank,
		Health:   1000,
		Energy:   500,
		Missiles: 3,
		Incoming: protocol.RelSet{Forward: true},
		Radar: protocol.RadarSensor{Status: true, Setting: 3, Distance: 2, Sights: [][]*protocol.RadarCell{
			nil,
			{{Kind: sensors.Open}, {Kind: sensors.Open}, {Kind: sensors.Open}},
			{{Kind: sensors.Open}, {Kind: sensors.Tank, Agent: "b"}, {Kind: sensors.Open}},
		}},
	}
	c := decide(t, s)
	if !c.Fire || !c.Shields || !c.ShieldsSetting {
		t.Fatalf("want fire with shields up: %+v", c)
	}
	if c.Radar {
		t.Fatalf("radar already on: %+v", c)
	}
}

func TestTank_TurnsWhenBlocked(t *testing.T) {
	c := decide(t, protocol.Sensors{Kind: sensors.Tank, Energy: 100, Blocked: protocol.RelSet{Forward: true, Right: true}, Radar: protocol.RadarSensor{Status: true}})
	if c.Move || !c.Rotate || c.RotateDirection != "left" {
		t.Fatalf("want rotate left: %+v", c)
	}
}

func TestEater_PrefersBonusFood(t *testing.T) {
	c := decide(t, protocol.Sensors{Kind: sensors.Eater, Vision: [][]string{
		{"wall", sensors.Food, "wall"},
		{sensors.Open, sensors.Open, sensors.BonusFood},
		{"wall", sensors.Open, "wall"},
	}})
	if !c.Move || c.MoveDirection != "east" {
		t.Fatalf("want east: %+v", c)
	}
}

func TestTaxi_PicksUpAndHeadsForPassenger(t *testing.T) {
	here := [2]int{2, 1}
	c := decide(t, protocol.Sensors{Kind: sensors.Taxi, Position: here, Taxi: &protocol.TaxiSensors{Fuel: 5, PassengerAt: &here}})
	if !c.Pickup {
		t.Fatalf("want pickup: %+v", c)
	}
	there := [2]int{0, 1}
	c = decide(t, protocol.Sensors{Kind: sensors.Taxi, Position: here, Taxi: &protocol.TaxiSensors{Fuel: 5, PassengerAt: &there}})
	if c.MoveDirection != "west" {
		t.Fatalf("want west: %+v", c)
	}
	c = decide(t, protocol.Sensors{Kind: sensors.Taxi, Taxi: &protocol.TaxiSensors{Fuel: 1, Cell: sensors.FuelStation}})
	if !c.Fillup {
		t.Fatalf("want fillup: %+v", c)
	}
}

func TestWanderersDriveATankRun(t *testing.T) {
	cfg := tuning.Defaults()
	cfg.Mode = tuning.ModeTank
	cfg.Seed = 11
	cfg.MaxTicks = 60
	rows := []string{
		"#########",
		"#   E   #",
		"#  # #  #",
		"#       #",
		"#H  M  H#",
		"#       #",
		"#  # #  #",
		"#   E   #",
		"#########",
	}
	run := func() []string {
		w, err := world.New(world.WorldConfig{
			RunID:  "wander",
			Sim:    cfg,
			Map:    grid.MapDef{Name: "wander", Rows: rows},
			Agents: []world.AgentSpec{{Name: "a"}, {Name: "b"}, {Name: "c"}},
		})
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		p := New(DefaultConfig())
		var digests []string
		for {
			err := w.Step(context.Background(), p)
			if errors.Is(err, world.ErrTerminated) {
				break
			}
			if err != nil {
				t.Fatalf("step: %v", err)
			}
			digests = append(digests, w.LastDigest())
		}
		if s := w.Summary(); s == nil || s.Reason == "" {
			t.Fatalf("run should end with a summary")
		}
		return digests
	}
	a, b := run(), run()
	if len(a) == 0 || len(a) != len(b) {
		t.Fatalf("tick counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("digest diverged at tick %d", i+1)
		}
	}
}
