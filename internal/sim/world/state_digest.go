package world

import (
	"crypto/sha256"
	"encoding/hex"

	"gridarena.ai/internal/sim/world/io/digestcodec"
	"gridarena.ai/internal/sim/world/kernel/grid"
)

// stateDigest hashes everything a replay must reproduce: the tick, every
// agent in registry order, every cell's objects and the taxi passenger.
func (w *World) stateDigest() string {
	h := sha256.New()
	var tmp [8]byte

	digestcodec.WriteU64(h, &tmp, w.tick)
	digestcodec.WriteString(h, &tmp, w.sim.Mode)
	w.digestAgents(h, &tmp)
	w.digestCells(h, &tmp)
	w.digestTaxi(h, &tmp)

	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) digestAgents(h digestcodec.Writer, tmp *[8]byte) {
	agents := w.reg.All()
	digestcodec.WriteU64(h, tmp, uint64(len(agents)))
	for _, a := range agents {
		digestcodec.WriteString(h, tmp, a.Name)
		digestcodec.WriteI64(h, tmp, int64(a.Loc.X))
		digestcodec.WriteI64(h, tmp, int64(a.Loc.Y))
		digestcodec.WriteU64(h, tmp, uint64(a.Facing))
		digestcodec.WriteI64(h, tmp, int64(a.Health))
		digestcodec.WriteI64(h, tmp, int64(a.Energy))
		digestcodec.WriteI64(h, tmp, int64(a.Missiles))
		digestcodec.WriteBool(h, a.Shields)
		digestcodec.WriteBool(h, a.Radar)
		digestcodec.WriteI64(h, tmp, int64(a.RadarPower))
		digestcodec.WriteI64(h, tmp, int64(a.Score))
		digestcodec.WriteI64(h, tmp, int64(a.ScoreDelta))
		digestcodec.WriteI64(h, tmp, int64(a.Kills))
		digestcodec.WriteI64(h, tmp, int64(a.Deaths))
		digestcodec.WriteI64(h, tmp, int64(a.Fuel))
		digestcodec.WriteBool(h, a.Carrying)
	}
}

func (w *World) digestCells(h digestcodec.Writer, tmp *[8]byte) {
	w.m.Each(func(c *grid.Cell) {
		objs := c.Objects()
		if len(objs) == 0 {
			return
		}
		digestcodec.WriteU64(h, tmp, uint64(w.m.Linear(c.Loc)))
		digestcodec.WriteU64(h, tmp, uint64(len(objs)))
		for _, o := range objs {
			digestcodec.WriteString(h, tmp, o.Name)
			digestcodec.WriteI64(h, tmp, int64(o.Age))
			if o.ID != 0 {
				digestcodec.WriteU64(h, tmp, uint64(o.ID))
				digestcodec.WriteString(h, tmp, o.Owner)
				digestcodec.WriteU64(h, tmp, uint64(o.Dir))
				digestcodec.WriteU64(h, tmp, uint64(o.Phase))
			}
			digestcodec.WriteSortedStringMap(h, tmp, o.Properties)
		}
	})
}

func (w *World) digestTaxi(h digestcodec.Writer, tmp *[8]byte) {
	t := w.taxi
	digestcodec.WriteString(h, tmp, t.destination)
	digestcodec.WriteString(h, tmp, t.carrier)
	digestcodec.WriteBool(h, t.delivered)
	digestcodec.WriteBool(h, t.fuelOut)
}
