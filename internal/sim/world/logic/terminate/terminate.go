package terminate

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"gridarena.ai/internal/sim/tuning"
)

// Reasons a run ends.
const (
	ReasonWinningScore  = "winning_score"
	ReasonMaxTicks      = "max_ticks"
	ReasonStopCommand   = "stop_command"
	ReasonNoFood        = "no_food"
	ReasonDelivered     = "passenger_delivered"
	ReasonFuelExhausted = "fuel_exhausted"
	ReasonNoAgents      = "no_agents"
	ReasonExpression    = "expression"
)

// Env is what termination predicates see after each tick. Expressions refer
// to its fields and methods by name, e.g. `Tick >= 500 && LiveAgents < 2`.
type Env struct {
	Mode         string
	Tick         int
	MaxTicks     int
	WinningScore int
	TopScore     int
	Scores       map[string]int
	Agents       int
	LiveAgents   int
	FoodLeft     int
	MissilesLive int
	Frags        int
	TotalFrags   int
	Stopped      bool
	Delivered    bool
	FuelOut      bool
}

func (e Env) Score(agent string) int { return e.Scores[agent] }

type rule struct {
	src  string
	prog *vm.Program
}

type Checker struct {
	mode  string
	rules []rule
}

// New compiles the configured expressions up front so a bad predicate fails
// at startup rather than mid-run.
func New(cfg *tuning.SimConfig) (*Checker, error) {
	c := &Checker{mode: cfg.Mode}
	for _, src := range cfg.Terminate.Expressions {
		src = strings.TrimSpace(src)
		prog, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile termination %q: %w", src, err)
		}
		c.rules = append(c.rules, rule{src: src, prog: prog})
	}
	return c, nil
}

// Check returns the first matching reason, built-ins before expressions.
func (c *Checker) Check(env Env) (string, bool, error) {
	if env.Stopped {
		return ReasonStopCommand, true, nil
	}
	switch c.mode {
	case tuning.ModeTank:
		if env.WinningScore > 0 && env.TopScore >= env.WinningScore {
			return ReasonWinningScore, true, nil
		}
	case tuning.ModeEaters:
		if env.FoodLeft == 0 {
			return ReasonNoFood, true, nil
		}
	case tuning.ModeTaxi:
		if env.Delivered {
			return ReasonDelivered, true, nil
		}
		if env.FuelOut {
			return ReasonFuelExhausted, true, nil
		}
	}
	if env.Agents > 0 && env.LiveAgents == 0 {
		return ReasonNoAgents, true, nil
	}
	if env.MaxTicks > 0 && env.Tick >= env.MaxTicks {
		return ReasonMaxTicks, true, nil
	}
	for _, r := range c.rules {
		out, err := vm.Run(r.prog, env)
		if err != nil {
			return "", false, fmt.Errorf("termination %q: %w", r.src, err)
		}
		if hit, _ := out.(bool); hit {
			return ReasonExpression + ": " + r.src, true, nil
		}
	}
	return "", false, nil
}
