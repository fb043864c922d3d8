package sensors

import (
	"gridarena.ai/internal/sim/world/kernel/model"
)

type Smell struct {
	Agent    string
	Color    string
	Distance int
}

// Smell searches breadth-first through enterable cells for the nearest other
// live agent and reports its path distance. Ties are broken with the shared
// RNG. maxDist <= 0 means the whole board.
func (e *Engine) Smell(a *model.Agent, live []*model.Agent, maxDist int) (Smell, bool) {
	if len(live) < 2 {
		return Smell{}, false
	}
	targets := make(map[*model.Agent]bool, len(live))
	for _, o := range live {
		if o != a && o.Alive() {
			targets[o] = true
		}
	}
	if len(targets) == 0 {
		return Smell{}, false
	}
	if maxDist <= 0 {
		maxDist = e.Map.Width() * e.Map.Height()
	}
	visited := map[model.Location]bool{a.Loc: true}
	frontier := []model.Location{a.Loc}
	for depth := 1; depth <= maxDist && len(frontier) > 0; depth++ {
		var next []model.Location
		var found []*model.Agent
		for _, l := range frontier {
			for _, d := range model.Directions {
				n := l.Add(d)
				if visited[n] || !e.Map.Enterable(n) {
					continue
				}
				visited[n] = true
				next = append(next, n)
				if o := e.Map.Occupant(n); o != nil && targets[o] {
					found = append(found, o)
				}
			}
		}
		if len(found) > 0 {
			pick := found[0]
			if len(found) > 1 {
				pick = found[e.Rng.Intn(len(found))]
			}
			return Smell{Agent: pick.Name, Color: pick.Color, Distance: depth}, true
		}
		frontier = next
	}
	return Smell{}, false
}

// Sound searches breadth-first through enterable cells up to maxDist and
// returns the absolute direction of the first step toward the nearest agent
// that moved or rotated this tick.
func (e *Engine) Sound(a *model.Agent, live []*model.Agent, maxDist int) (model.Direction, bool) {
	if len(live) < 2 || maxDist <= 0 {
		return 0, false
	}
	type node struct {
		loc    model.Location
		parent int
	}
	nodes := []node{{loc: a.Loc, parent: -1}}
	visited := map[model.Location]bool{a.Loc: true}
	frontier := []int{0}
	for depth := 1; depth <= maxDist && len(frontier) > 0; depth++ {
		var next, heard []int
		for _, ni := range frontier {
			for _, d := range model.Directions {
				l := nodes[ni].loc.Add(d)
				if visited[l] || !e.Map.Enterable(l) {
					continue
				}
				visited[l] = true
				nodes = append(nodes, node{loc: l, parent: ni})
				idx := len(nodes) - 1
				next = append(next, idx)
				if o := e.Map.Occupant(l); o != nil && o != a && o.Alive() && (o.Moved || o.Rotated) {
					heard = append(heard, idx)
				}
			}
		}
		if len(heard) > 0 {
			pick := heard[0]
			if len(heard) > 1 {
				pick = heard[e.Rng.Intn(len(heard))]
			}
			for nodes[pick].parent != 0 {
				pick = nodes[pick].parent
			}
			step := nodes[pick].loc
			for _, d := range model.Directions {
				if a.Loc.Add(d) == step {
					return d, true
				}
			}
		}
		frontier = next
	}
	return 0, false
}

// Vision returns a (2r+1)-square window of cell contents centred on a.
// Off-board cells read as walls.
func (e *Engine) Vision(a *model.Agent, r int) [][]string {
	out := make([][]string, 2*r+1)
	for dy := -r; dy <= r; dy++ {
		row := make([]string, 2*r+1)
		for dx := -r; dx <= r; dx++ {
			l := model.Location{X: a.Loc.X + dx, Y: a.Loc.Y + dy}
			c := e.Map.Cell(l)
			switch {
			case c == nil:
				row[dx+r] = Wall
			case c.Occupant != nil && c.Occupant != a:
				row[dx+r] = string(c.Occupant.Kind)
			default:
				row[dx+r] = ContentOf(c)
			}
		}
		out[dy+r] = row
	}
	return out
}
