package rules

import (
	"maps"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

// Snapshot signal keys.
const (
	SignalAverageAffinity    = "average_affinity"
	SignalFactionMorale      = "faction_morale"
	SignalTechLevel          = "tech_level"
	SignalEnemyHealthRatio   = "enemy_health_ratio"
	SignalDistanceToTarget   = "distance_to_target"
	SignalSelfHealth         = "self_health"
	SignalSelfAttack         = "self_attack"
	SignalSupportHealthRatio = "support_health_ratio"
	SignalSpecialResource    = "special_resource"
)

// MaxDistance is the distance reported when there is no target.
const MaxDistance = 20.0

// MaxTechLevel is the top of the tech_level scale.
const MaxTechLevel = 10.0

// Snapshot is the flat set of named signals visible to scoring and tree
// evaluation for one turn. It is never mutated after BuildSnapshot returns.
type Snapshot struct {
	signals map[string]float64
}

// BuildSnapshot normalizes raw game signals. Missing inputs default to neutral
// values so downstream stages never need nil checks.
func BuildSnapshot(self, target, support *model.Unit, world *model.World, specialResource string) Snapshot {
	s := map[string]float64{
		SignalAverageAffinity:    0,
		SignalFactionMorale:      0,
		SignalTechLevel:          0,
		SignalEnemyHealthRatio:   1.0,
		SignalDistanceToTarget:   MaxDistance,
		SignalSelfHealth:         self.HealthRatio(),
		SignalSelfAttack:         0,
		SignalSupportHealthRatio: 0,
		SignalSpecialResource:    0,
	}
	if self != nil {
		s[SignalSelfAttack] = self.Attack
	}
	if world != nil {
		s[SignalAverageAffinity] = world.AverageAffinity()
		s[SignalFactionMorale] = world.FactionMorale
		s[SignalTechLevel] = world.TechLevel
		s[SignalSpecialResource] = float64(world.Resources.Available(specialResource))
	}
	if target.Alive() {
		s[SignalEnemyHealthRatio] = target.HealthRatio()
		if world != nil {
			s[SignalDistanceToTarget] = world.DistanceToTarget
		}
	}
	if support.Alive() {
		s[SignalSupportHealthRatio] = support.HealthRatio()
	}
	return Snapshot{signals: s}
}

// Get returns the named signal, or 0 for an unknown key.
func (s Snapshot) Get(key string) float64 {
	return s.signals[key]
}

// Signals returns a copy of every signal.
func (s Snapshot) Signals() map[string]float64 {
	return maps.Clone(s.signals)
}

// TreeEnv is the turn-start view a Condition expression is evaluated against.
// Unit fields are copies so conditions observe the state as of turn start.
type TreeEnv struct {
	Self      model.Unit
	Target    *model.Unit
	Support   *model.Unit
	Resources model.ResourcePool
	Snapshot  Snapshot
}

// NewTreeEnv copies the actor, target, support and resource stock.
func NewTreeEnv(self, target, support *model.Unit, world *model.World, snap Snapshot) TreeEnv {
	env := TreeEnv{Snapshot: snap}
	if self != nil {
		env.Self = *self
	}
	if target != nil {
		t := *target
		env.Target = &t
	}
	if support != nil {
		s := *support
		env.Support = &s
	}
	if world != nil {
		env.Resources = maps.Clone(world.Resources)
	}
	return env
}

func (e TreeEnv) Health() float64      { return e.Self.HP }
func (e TreeEnv) MaxHealth() float64   { return e.Self.MaxHP }
func (e TreeEnv) HealthRatio() float64 { return e.Self.HealthRatio() }
func (e TreeEnv) Attack() float64      { return e.Self.Attack }
func (e TreeEnv) Morale() float64      { return e.Self.Morale }
func (e TreeEnv) Aggression() float64  { return e.Self.Aggression }

func (e TreeEnv) HasTarget() bool { return e.Target.Alive() }

func (e TreeEnv) TargetHealth() float64 {
	if !e.Target.Alive() {
		return 0
	}
	return e.Target.HP
}

// SupportAvailable is true when a support unit is assigned and still has health.
func (e TreeEnv) SupportAvailable() bool { return e.Support.Alive() }

func (e TreeEnv) SupportHealth() float64 {
	if e.Support == nil {
		return 0
	}
	return e.Support.HP
}

func (e TreeEnv) Resource(name string) int { return e.Resources.Available(name) }

func (e TreeEnv) Signal(key string) float64 { return e.Snapshot.Get(key) }
