package agent

import (
	"log/slog"
	"math/rand"

	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/rules"
)

// Orchestrator sequences one turn for a roster: every live unit decides from
// the turn-start state, then units act one at a time in roster order.
// Earlier actions in a turn can change a shared target before later units
// act on it, but never change what a later unit decided.
type Orchestrator struct {
	notifiers []Notifier
	rng       *rand.Rand
}

// NewOrchestrator uses rng for every random effect. A nil rng gets a fixed seed.
func NewOrchestrator(rng *rand.Rand, notifiers ...Notifier) *Orchestrator {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Orchestrator{notifiers: notifiers, rng: rng}
}

// AddNotifier registers another outcome collaborator.
func (o *Orchestrator) AddNotifier(n Notifier) {
	o.notifiers = append(o.notifiers, n)
}

// RunTurn advances the world by one turn and returns one outcome per unit that acted.
func (o *Orchestrator) RunTurn(agents []*Agent, world *model.World) []model.TurnOutcome {
	if world != nil {
		world.Turn++
	}

	type pending struct {
		agent *Agent
		dec   rules.Decision
	}
	var plans []pending
	for _, a := range agents {
		if !a.Unit.Alive() {
			continue
		}
		plans = append(plans, pending{agent: a, dec: a.Decide(world)})
	}

	outcomes := make([]model.TurnOutcome, 0, len(plans))
	for _, p := range plans {
		// A unit felled earlier this turn cannot carry out its order.
		if !p.agent.Unit.Alive() {
			slog.Debug("unit fell before acting", "unit", p.agent.Unit.Name)
			continue
		}
		out := p.agent.Act(p.dec, world, o.rng)
		outcomes = append(outcomes, out)
		fanOut(o.notifiers, out)
	}
	return outcomes
}

// Run plays up to turns turns and stops early once the battle is decided.
func (o *Orchestrator) Run(agents []*Agent, world *model.World, turns int) []model.TurnOutcome {
	var all []model.TurnOutcome
	for i := 0; i < turns; i++ {
		all = append(all, o.RunTurn(agents, world)...)
		if BattleOver(agents) {
			slog.Info("battle decided", "turn", i+1)
			break
		}
	}
	return all
}

// BattleOver is true when no unit is left standing, or when at least one unit
// was engaged and every engaged, living unit has lost its target.
func BattleOver(agents []*Agent) bool {
	engaged, alive := false, false
	for _, a := range agents {
		if !a.Unit.Alive() {
			continue
		}
		alive = true
		if a.Target == nil {
			continue
		}
		engaged = true
		if a.Target.Alive() {
			return false
		}
	}
	return !alive || engaged
}
