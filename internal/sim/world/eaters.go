package world

import (
	"gridarena.ai/internal/sim/catalogs"
	"gridarena.ai/internal/sim/world/kernel/model"
	"gridarena.ai/internal/sim/world/logic/collision"
)

func (w *World) stepEaters(intents []intent, ts *tickState) error {
	cfg := &w.sim.Eaters
	agents := w.reg.All()
	for i, a := range agents {
		if intents[i].move {
			a.Facing = intents[i].dir
			if intents[i].jump {
				a.AddScore(-cfg.JumpPenalty)
			}
		}
	}

	// Eaters take no damage; collisions are settled in score below.
	res := w.resolveMoves(intents, collision.Params{}, ts)
	for _, g := range res.Groups {
		if g.Kind == collision.Wall && cfg.WallPenalty != 0 {
			agents[g.Members[0]].AddScore(-cfg.WallPenalty)
		}
	}
	for _, members := range mergeGroups(res.Groups, len(agents)) {
		if err := w.shareAndScatter(members); err != nil {
			return err
		}
	}

	for i, a := range agents {
		if intents[i].dontEat {
			continue
		}
		if n, pts := w.pickUp(a); n > 0 {
			w.emit(model.Event{Agent: a.Name, Kind: model.EventAte, Loc: a.Loc, Amount: pts})
		}
	}
	return nil
}

// shareAndScatter splits the members' combined score evenly, remainder to
// the earliest registered, then teleports each to a random free cell.
func (w *World) shareAndScatter(members []int) error {
	agents := w.reg.All()
	total := 0
	for _, m := range members {
		total += agents[m].Score + agents[m].ScoreDelta
	}
	n := len(members)
	share, rem := total/n, total%n
	if rem < 0 {
		share--
		rem += n
	}
	for k, m := range members {
		a := agents[m]
		want := share
		if k < rem {
			want++
		}
		a.ScoreDelta = want - a.Score
	}
	for _, m := range members {
		if err := w.teleport(agents[m]); err != nil {
			return err
		}
		a := agents[m]
		w.emit(model.Event{Agent: a.Name, Kind: model.EventRespawned, Loc: a.Loc, Detail: "scattered"})
	}
	return nil
}

// mergeGroups joins agent-vs-agent collision groups that share a member, so
// an eater caught in a cascade is scored and teleported once. Members and
// sets come back in registry order.
func mergeGroups(groups []collision.Group, n int) [][]int {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	in := make([]bool, n)
	for _, g := range groups {
		if g.Kind == collision.Wall {
			continue
		}
		for _, m := range g.Members {
			in[m] = true
			ra, rb := find(g.Members[0]), find(m)
			if ra < rb {
				parent[rb] = ra
			} else {
				parent[ra] = rb
			}
		}
	}
	var out [][]int
	slot := map[int]int{}
	for i := 0; i < n; i++ {
		if !in[i] {
			continue
		}
		r := find(i)
		k, ok := slot[r]
		if !ok {
			k = len(out)
			slot[r] = k
			out = append(out, nil)
		}
		out[k] = append(out[k], i)
	}
	return out
}

func (w *World) foodLeft() int {
	return w.m.CountKind(catalogs.KindFood) + w.m.CountKind(catalogs.KindBonusFood)
}
