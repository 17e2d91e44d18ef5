package rules

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

// WeightReader exposes policy weights to ranking.
type WeightReader interface {
	Weight(kind model.ActionKind) float64
}

// Combat is the live state an action's effects are applied to.
type Combat struct {
	Self    *model.Unit
	Target  *model.Unit
	Support *model.Unit
	World   *model.World
}

// Decision is what the tree and the scorer produced for one unit this turn.
type Decision struct {
	Forced   Forced
	IsForced bool
	Scores   map[model.ActionKind]float64
}

// ActionFunc applies one action's effects and fills in the outcome's deltas and reward.
type ActionFunc func(c Combat, d *Doctrine, rng *rand.Rand, out *model.TurnOutcome)

var actionEffects = map[model.ActionKind]ActionFunc{
	model.Attack:           ActionAttack,
	model.AggressiveAttack: ActionAggressiveAttack,
	model.SpecialAttack:    ActionSpecialAttack,
	model.Retreat:          ActionRetreat,
	model.SeekSupport:      ActionSeekSupport,
	model.Manage:           ActionManage,
	model.Research:         ActionResearch,
	model.Romance:          ActionRomance,
	model.Move:             ActionMove,
	model.Idle:             ActionIdle,
}

// Select picks the turn's action. A forced action is returned untouched;
// otherwise the candidate with the highest score*weight wins, with ties going
// to the kind declared first in model.ActionPriority. With no usable
// candidate the unit idles.
func Select(dec Decision, weights WeightReader, candidates []model.ActionKind) model.ActionKind {
	if dec.IsForced {
		return dec.Forced.Action
	}
	allowed := make(map[model.ActionKind]bool, len(candidates))
	for _, k := range candidates {
		allowed[k] = true
	}

	best := model.Idle
	bestRank := math.Inf(-1)
	for _, k := range model.ActionPriority {
		if !allowed[k] {
			continue
		}
		score, ok := dec.Scores[k]
		if !ok {
			score = NeutralScore
		}
		rank := score * weights.Weight(k)
		if math.IsNaN(rank) {
			continue
		}
		if rank > bestRank {
			best, bestRank = k, rank
		}
	}
	return best
}

// Resolve selects the action, applies its effects to the live combat state and
// computes the reward. It never fails: an action whose target, ally or
// resource is missing resolves as a no-op with the invalid reward.
func Resolve(dec Decision, weights WeightReader, c Combat, d *Doctrine, rng *rand.Rand) model.TurnOutcome {
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	kind := Select(dec, weights, d.Candidates)
	out := model.TurnOutcome{
		Action: kind,
		Forced: dec.IsForced,
	}
	if dec.IsForced {
		out.ForcedBy = dec.Forced.Rule
	}
	if c.Self != nil {
		out.UnitID = c.Self.ID
		out.UnitName = c.Self.Name
	}
	if c.World != nil {
		out.Turn = c.World.Turn
	}

	fn, ok := actionEffects[kind]
	if !ok {
		invalid(&out, d, "no effect registered")
		return out
	}
	fn(c, d, rng, &out)
	return out
}

func invalid(out *model.TurnOutcome, d *Doctrine, reason string) {
	out.Invalid = true
	out.Reward = d.Rewards.Invalid
	out.Deltas = model.Deltas{}
	slog.Warn("invalid action resolved as no-op", "unit", out.UnitName, "action", out.Action, "reason", reason)
}

func ActionAttack(c Combat, d *Doctrine, _ *rand.Rand, out *model.TurnOutcome) {
	strike(c, d, d.NormalMultiplier, d.Rewards.AttackHit, out)
}

func ActionAggressiveAttack(c Combat, d *Doctrine, _ *rand.Rand, out *model.TurnOutcome) {
	strike(c, d, d.AggressiveMultiplier, d.Rewards.AggressiveHit, out)
}

// ActionSpecialAttack spends the scarce resource before striking. The tree
// checks availability, but a same-turn spend by an earlier unit can still
// exhaust the pool.
func ActionSpecialAttack(c Combat, d *Doctrine, _ *rand.Rand, out *model.TurnOutcome) {
	if !c.Target.Alive() || c.Self == nil {
		invalid(out, d, "no live target")
		return
	}
	if c.World == nil || !c.World.Resources.Spend(d.SpecialResource, d.SpecialCost) {
		invalid(out, d, "special resource unavailable")
		return
	}
	strike(c, d, d.SpecialMultiplier, d.Rewards.SpecialHit, out)
	out.Deltas.Resource = d.SpecialResource
	out.Deltas.ResourceSpent = d.SpecialCost
}

func strike(c Combat, d *Doctrine, multiplier, hitReward float64, out *model.TurnOutcome) {
	if !c.Target.Alive() || c.Self == nil {
		invalid(out, d, "no live target")
		return
	}
	out.Target = c.Target.Name
	out.Deltas.Damage = c.Target.TakeDamage(c.Self.Attack * multiplier)

	switch {
	case !c.Target.Alive():
		out.Eliminated = true
		out.Reward = d.Rewards.Critical
	case c.Target.HealthRatio() <= d.CriticalRatio:
		out.Reward = d.Rewards.Critical
	default:
		out.Reward = hitReward
	}
	slog.Debug("strike resolved", "unit", out.UnitName, "target", out.Target, "damage", out.Deltas.Damage, "targetHp", c.Target.HP)
}

func ActionRetreat(_ Combat, d *Doctrine, _ *rand.Rand, out *model.TurnOutcome) {
	out.Reward = d.Rewards.Retreat
}

func ActionIdle(_ Combat, d *Doctrine, _ *rand.Rand, out *model.TurnOutcome) {
	out.Reward = d.Rewards.Idle
}

func ActionSeekSupport(c Combat, d *Doctrine, _ *rand.Rand, out *model.TurnOutcome) {
	if c.Self == nil || !c.Support.Alive() {
		invalid(out, d, "no support unit available")
		return
	}
	out.Target = c.Support.Name
	out.Deltas.Healing = c.Self.Heal(d.HealAmount)
	out.Reward = d.Rewards.Support
}

func ActionManage(c Combat, d *Doctrine, rng *rand.Rand, out *model.TurnOutcome) {
	if c.World == nil {
		invalid(out, d, "no faction to manage")
		return
	}
	gain := d.MoraleGainMin
	if span := d.MoraleGainMax - d.MoraleGainMin; span > 0 {
		gain += rng.Intn(span + 1)
	}
	before := c.World.FactionMorale
	c.World.FactionMorale = clamp(before+float64(gain), 0, 100)
	out.Deltas.MoraleChange = c.World.FactionMorale - before
	if c.World.FactionMorale > 50 {
		out.Reward = d.Rewards.ManageHigh
	} else {
		out.Reward = d.Rewards.ManageLow
	}
}

func ActionResearch(c Combat, d *Doctrine, _ *rand.Rand, out *model.TurnOutcome) {
	if c.World == nil {
		invalid(out, d, "no research facility")
		return
	}
	// Research at the tech ceiling cannot advance, so nothing is spent.
	if c.World.TechLevel >= MaxTechLevel || !c.World.Resources.Spend(d.ResearchResource, d.ResearchCost) {
		out.Reward = d.Rewards.ResearchFailure
		return
	}
	before := c.World.TechLevel
	c.World.TechLevel = clamp(before+1, 0, MaxTechLevel)
	out.Deltas.Resource = d.ResearchResource
	out.Deltas.ResourceSpent = d.ResearchCost
	out.Deltas.TechChange = c.World.TechLevel - before
	out.Reward = d.Rewards.ResearchSuccess
}

func ActionRomance(c Combat, d *Doctrine, rng *rand.Rand, out *model.TurnOutcome) {
	if c.World == nil || len(c.World.Allies) == 0 {
		invalid(out, d, "no ally present")
		return
	}
	ally := c.World.Allies[rng.Intn(len(c.World.Allies))]
	before := ally.Affinity
	ally.Affinity = clamp(before+d.RomanceAffinity, 0, 100)
	out.Target = ally.Name
	out.Deltas.AffinityChange = ally.Affinity - before
	out.Reward = d.Rewards.Romance
}

func ActionMove(c Combat, d *Doctrine, _ *rand.Rand, out *model.TurnOutcome) {
	if c.World == nil || !c.Target.Alive() {
		invalid(out, d, "no target to close on")
		return
	}
	step := math.Min(d.MoveStep, c.World.DistanceToTarget)
	c.World.DistanceToTarget -= step
	out.Target = c.Target.Name
	out.Deltas.DistanceChange = -step
	out.Reward = d.Rewards.Move
}
