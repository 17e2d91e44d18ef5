package agent

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/policy"
	"github.com/nstehr/vimy/vimy-tactics/rules"
)

// Agent owns the decision-making for a single unit: its priority tree, its
// policy weights and its current engagement.
type Agent struct {
	Unit    *model.Unit
	Target  *model.Unit
	Support *model.Unit
	Weights *policy.Weights

	doctrine rules.Doctrine
	tree     *rules.Node
}

// New builds an agent whose tree is compiled from the doctrine.
func New(unit *model.Unit, d rules.Doctrine) (*Agent, error) {
	d.Validate()
	tree, err := rules.CompileDoctrine(d)
	if err != nil {
		return nil, err
	}
	return newAgent(unit, d, tree), nil
}

// NewWithTree builds an agent around a custom tree. The tree is compiled here.
func NewWithTree(unit *model.Unit, d rules.Doctrine, tree *rules.Node) (*Agent, error) {
	d.Validate()
	if err := rules.Compile(tree); err != nil {
		return nil, fmt.Errorf("agent %q: %w", unit.Name, err)
	}
	return newAgent(unit, d, tree), nil
}

func newAgent(unit *model.Unit, d rules.Doctrine, tree *rules.Node) *Agent {
	return &Agent{
		Unit:     unit,
		Weights:  policy.New(d.InitialWeights),
		doctrine: d,
		tree:     tree,
	}
}

// Engage assigns the unit's target and support. Either may be nil.
func (a *Agent) Engage(target, support *model.Unit) {
	a.Target = target
	a.Support = support
}

func (a *Agent) Doctrine() rules.Doctrine { return a.doctrine }

// Decide runs the tree and the scorer against the state as it is now. The
// orchestrator calls it for every unit before any unit acts.
func (a *Agent) Decide(world *model.World) rules.Decision {
	snap := rules.BuildSnapshot(a.Unit, a.Target, a.Support, world, a.doctrine.SpecialResource)
	env := rules.NewTreeEnv(a.Unit, a.Target, a.Support, world, snap)

	dec := rules.Decision{Scores: rules.ScoreAll(a.doctrine.Candidates, snap)}
	if f, ok := rules.Evaluate(a.tree, env); ok {
		dec.Forced = f
		dec.IsForced = true
	}
	return dec
}

// Act resolves a decision against live state and feeds the reward back into
// the unit's weights.
func (a *Agent) Act(dec rules.Decision, world *model.World, rng *rand.Rand) model.TurnOutcome {
	out := rules.Resolve(dec, a.Weights, rules.Combat{
		Self:    a.Unit,
		Target:  a.Target,
		Support: a.Support,
		World:   world,
	}, &a.doctrine, rng)
	out.WeightAfter = a.Weights.Update(out.Action, out.Reward, a.doctrine.LearningRate)

	slog.Debug("unit acted",
		"unit", a.Unit.Name,
		"action", out.Action,
		"forced", out.Forced,
		"rule", out.ForcedBy,
		"reward", out.Reward,
		"weight", out.WeightAfter,
	)
	return out
}
