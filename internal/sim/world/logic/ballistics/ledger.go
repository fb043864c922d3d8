package ballistics

// Ledger queues the tick's frags. Deaths are resolved after all hits land,
// so repeated hits on one victim only produce one frag while every assailant
// of that tick is still credited.
type Ledger struct {
	dead       []string
	isDead     map[string]bool
	assailants map[string][]string
}

type Frag struct {
	Victim     string   `json:"victim"`
	Assailants []string `json:"assailants,omitempty"`
}

func NewLedger() *Ledger {
	return &Ledger{isDead: map[string]bool{}, assailants: map[string][]string{}}
}

func (l *Ledger) Hit(victim, shooter string) {
	for _, s := range l.assailants[victim] {
		if s == shooter {
			return
		}
	}
	l.assailants[victim] = append(l.assailants[victim], shooter)
}

func (l *Ledger) MarkDead(victim string) {
	if l.isDead[victim] {
		return
	}
	l.isDead[victim] = true
	l.dead = append(l.dead, victim)
}

func (l *Ledger) Dead(victim string) bool { return l.isDead[victim] }

// Frags lists victims in the order they died.
func (l *Ledger) Frags() []Frag {
	out := make([]Frag, 0, len(l.dead))
	for _, v := range l.dead {
		out = append(out, Frag{Victim: v, Assailants: append([]string(nil), l.assailants[v]...)})
	}
	return out
}
