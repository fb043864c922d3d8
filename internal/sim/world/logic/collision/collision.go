package collision

import (
	"sort"

	"gridarena.ai/internal/sim/world/kernel/model"
)

type GroupKind string

const (
	Wall  GroupKind = "wall"
	Cross GroupKind = "cross"
	Chain GroupKind = "chain"
)

// Board is the part of the grid the resolver needs. Enterable must be false off the board.
type Board interface {
	Enterable(l model.Location) bool
	Linear(l model.Location) int
}

// Intent is one agent's locomotion for the tick, indexed like the registry.
type Intent struct {
	Origin model.Location
	Dest   model.Location
	Move   bool
	// OnCharger makes cross and chain hits lethal.
	OnCharger bool
}

type Params struct {
	Penalty     int
	WallPenalty int
}

type Group struct {
	Kind    GroupKind      `json:"kind"`
	Cell    model.Location `json:"cell"`
	Members []int          `json:"members"`
}

type Result struct {
	Dest      []model.Location
	Moved     []bool
	Cancelled []bool
	Damage    []int
	Lethal    []bool
	Groups    []Group
}

type resolver struct {
	in  []Intent
	b   Board
	p   Params
	out *Result

	moving  []bool
	buckets map[int][]int
	slot    []int
}

// Resolve turns intents into a conflict-free set of destinations.
// It never fails; a cancelled move is a normal outcome.
func Resolve(in []Intent, b Board, p Params) Result {
	n := len(in)
	out := Result{
		Dest:      make([]model.Location, n),
		Moved:     make([]bool, n),
		Cancelled: make([]bool, n),
		Damage:    make([]int, n),
		Lethal:    make([]bool, n),
	}
	r := &resolver{
		in:      in,
		b:       b,
		p:       p,
		out:     &out,
		moving:  make([]bool, n),
		buckets: map[int][]int{},
		slot:    make([]int, n),
	}
	for i, it := range in {
		out.Dest[i] = it.Origin
		r.moving[i] = it.Move && it.Dest != it.Origin
		if r.moving[i] {
			out.Dest[i] = it.Dest
		}
	}
	r.wallPass()
	r.crossPass()
	r.chainPass()
	for i := range in {
		out.Moved[i] = r.moving[i]
	}
	return out
}

func (r *resolver) wallPass() {
	for i, it := range r.in {
		if !r.moving[i] || r.b.Enterable(it.Dest) {
			continue
		}
		r.stop(i)
		r.out.Damage[i] += r.p.WallPenalty
		r.out.Groups = append(r.out.Groups, Group{Kind: Wall, Cell: it.Dest, Members: []int{i}})
	}
}

// crossPass pairs are taken from the full intent table so the outcome does not
// depend on which of the two is visited first.
func (r *resolver) crossPass() {
	byOrigin := make(map[model.Location]int, len(r.in))
	for i, it := range r.in {
		byOrigin[it.Origin] = i
	}
	var pairs [][2]int
	for i, it := range r.in {
		if !it.Move || it.Dest == it.Origin {
			continue
		}
		j, ok := byOrigin[it.Dest]
		if !ok || j <= i {
			continue
		}
		other := r.in[j]
		if other.Move && other.Dest == it.Origin {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	for _, pr := range pairs {
		for _, k := range pr {
			if r.moving[k] {
				r.stop(k)
			}
			r.hit(k, r.p.Penalty)
		}
		r.out.Groups = append(r.out.Groups, Group{Kind: Cross, Cell: r.in[pr[0]].Dest, Members: []int{pr[0], pr[1]}})
	}
}

func (r *resolver) chainPass() {
	for i := range r.in {
		r.place(i)
	}
	keys := make([]int, 0, len(r.buckets))
	for k := range r.buckets {
		keys = append(keys, k)
	}
	// Visit buckets by their lowest member so the order follows the registry.
	sort.Slice(keys, func(a, b int) bool { return minOf(r.buckets[keys[a]]) < minOf(r.buckets[keys[b]]) })
	for _, k := range keys {
		if len(r.buckets[k]) > 1 {
			r.collide(k)
		}
	}
}

func (r *resolver) place(i int) int {
	k := r.b.Linear(r.out.Dest[i])
	r.slot[i] = k
	r.buckets[k] = append(r.buckets[k], i)
	return k
}

// insert and cancel recurse into each other. Every cancel turns one mover
// into a stationary agent, so the recursion is bounded by the number of movers.
func (r *resolver) insert(i int) {
	k := r.place(i)
	if len(r.buckets[k]) > 1 {
		r.collide(k)
	}
}

func (r *resolver) cancel(i int) {
	k := r.slot[i]
	b := r.buckets[k]
	for j, m := range b {
		if m == i {
			r.buckets[k] = append(b[:j:j], b[j+1:]...)
			break
		}
	}
	if len(r.buckets[k]) == 0 {
		delete(r.buckets, k)
	}
	r.stop(i)
	r.insert(i)
}

func (r *resolver) collide(k int) {
	members := append([]int(nil), r.buckets[k]...)
	sort.Ints(members)
	dmg := (len(members) - 1) * r.p.Penalty
	for _, m := range members {
		r.hit(m, dmg)
	}
	r.out.Groups = append(r.out.Groups, Group{Kind: Chain, Cell: r.out.Dest[members[0]], Members: members})
	for _, m := range members {
		if r.moving[m] {
			r.cancel(m)
		}
	}
}

func (r *resolver) stop(i int) {
	r.moving[i] = false
	r.out.Cancelled[i] = true
	r.out.Dest[i] = r.in[i].Origin
}

func (r *resolver) hit(i, dmg int) {
	r.out.Damage[i] += dmg
	if r.in[i].OnCharger && dmg > 0 {
		r.out.Lethal[i] = true
	}
}

func minOf(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
