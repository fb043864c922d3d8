package world

import (
	"fmt"

	"gridarena.ai/internal/protocol"
	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/world/kernel/grid"
	"gridarena.ai/internal/sim/world/kernel/model"
	"gridarena.ai/internal/sim/world/logic/collision"
	"gridarena.ai/internal/sim/world/logic/sensors"
)

// taxiState tracks the single passenger of a taxi run.
type taxiState struct {
	passenger   *grid.Object
	destination string
	carrier     string
	delivered   bool
	fuelOut     bool
}

// initTaxi puts the passenger on a random destination cell and assigns it a
// different destination color.
func (w *World) initTaxi() error {
	stops := w.m.LocationsOf(catalogs.KindDestination)
	if len(stops) < 2 {
		return fmt.Errorf("taxi map needs at least two destinations, has %d", len(stops))
	}
	src := w.rng.Intn(len(stops))
	dst := w.rng.Intn(len(stops) - 1)
	if dst >= src {
		dst++
	}
	tpl, ok := w.cfg.Catalog.FirstOfKind(catalogs.KindPassenger)
	if !ok {
		return fmt.Errorf("taxi needs a %s template", catalogs.KindPassenger)
	}
	p, err := w.m.Place(stops[src], tpl.Name)
	if err != nil {
		return err
	}
	w.taxi = taxiState{passenger: p, destination: stopColor(w.m.Cell(stops[dst]))}
	w.logger.Printf("taxi passenger at %v for %s", stops[src], w.taxi.destination)
	return nil
}

func stopColor(c *grid.Cell) string {
	if c == nil {
		return ""
	}
	d := c.First(catalogs.KindDestination)
	if d == nil {
		return ""
	}
	if d.Props.Color != "" {
		return d.Props.Color
	}
	return d.Template
}

func (w *World) stepTaxi(intents []intent, ts *tickState) error {
	cfg := &w.sim.Taxi
	agents := w.reg.All()

	for i, a := range agents {
		in := &intents[i]
		if in.move || in.pickup || in.putdown || in.fillup {
			a.AddScore(cfg.MoveReward)
		}
		if !in.move || cfg.DisableFuel {
			continue
		}
		if a.Fuel <= 0 {
			in.move = false
			a.AddScore(cfg.FuelExhaustedPenalty)
			w.taxi.fuelOut = true
			w.warn(a.Name, "out of fuel")
			continue
		}
		a.Fuel--
		a.Facing = in.dir
	}
	w.resolveMoves(intents, collision.Params{}, ts)

	for i, a := range agents {
		in := intents[i]
		switch {
		case in.fillup:
			w.fillUp(a)
		case in.pickup:
			w.pickUpPassenger(a)
		case in.putdown:
			w.putDownPassenger(a)
		}
	}
	return nil
}

func (w *World) illegal(a *model.Agent, format string, args ...any) {
	a.AddScore(w.sim.Taxi.IllegalActionPenalty)
	w.warn(a.Name, format, args...)
}

func (w *World) fillUp(a *model.Agent) {
	c := w.m.Cell(a.Loc)
	if c == nil || !c.Has(catalogs.KindFuelStation) {
		w.illegal(a, "fillup away from a fuel station")
		return
	}
	if a.Fuel >= w.sim.Taxi.FuelMax {
		w.warn(a.Name, "fillup with a full tank")
		return
	}
	n := w.sim.Taxi.FuelMax - a.Fuel
	a.Fuel = w.sim.Taxi.FuelMax
	w.emit(model.Event{Agent: a.Name, Kind: model.EventCharged, Loc: a.Loc, Amount: n, Detail: "fuel"})
}

func (w *World) pickUpPassenger(a *model.Agent) {
	p := w.taxi.passenger
	if a.Carrying || p == nil || w.taxi.carrier != "" || p.Loc != a.Loc || w.m.Cell(a.Loc).Get(p.Name) != p {
		w.illegal(a, "pickup with no passenger here")
		return
	}
	w.m.RemoveObject(p)
	a.Carrying = true
	w.taxi.carrier = a.Name
	w.emit(model.Event{Agent: a.Name, Kind: model.EventPickedUp, Loc: a.Loc, Detail: w.taxi.destination})
}

func (w *World) putDownPassenger(a *model.Agent) {
	if !a.Carrying {
		w.illegal(a, "putdown with no passenger aboard")
		return
	}
	if stopColor(w.m.Cell(a.Loc)) != w.taxi.destination {
		w.illegal(a, "putdown away from %s", w.taxi.destination)
		return
	}
	a.Carrying = false
	w.taxi.carrier = ""
	w.taxi.delivered = true
	a.AddScore(w.sim.Taxi.DeliveryAward)
	w.emit(model.Event{Agent: a.Name, Kind: model.EventDelivered, Loc: a.Loc, Amount: w.sim.Taxi.DeliveryAward, Detail: w.taxi.destination})
}

func (w *World) taxiSensors(a *model.Agent) *protocol.TaxiSensors {
	s := &protocol.TaxiSensors{Fuel: a.Fuel, Carrying: a.Carrying, Destination: w.taxi.destination}
	if c := w.m.Cell(a.Loc); c != nil {
		if c.Has(catalogs.KindFuelStation) {
			s.Cell = sensors.FuelStation
		} else {
			s.Cell = stopColor(c)
		}
	}
	if p := w.taxi.passenger; p != nil && w.taxi.carrier == "" && !w.taxi.delivered {
		s.PassengerVisible = true
		s.PassengerAt = &[2]int{p.Loc.X, p.Loc.Y}
	}
	return s
}
