package model

import (
	"strings"

	"github.com/google/uuid"
)

type Unit struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	HP         float64 `json:"hp"`
	MaxHP      float64 `json:"maxHp"`
	Attack     float64 `json:"attack"`
	Morale     float64 `json:"morale"`
	Aggression float64 `json:"aggression"`
}

// NewUnit creates a unit at full health with a fresh id.
func NewUnit(name string, hp, attack float64) *Unit {
	return &Unit{
		ID:         uuid.NewString(),
		Name:       name,
		HP:         hp,
		MaxHP:      hp,
		Attack:     attack,
		Morale:     100,
		Aggression: 0.5,
	}
}

func (u *Unit) Alive() bool { return u != nil && u.HP > 0 }

// HealthRatio is HP/MaxHP, or 0 when MaxHP is unset.
func (u *Unit) HealthRatio() float64 {
	if u == nil || u.MaxHP <= 0 {
		return 0
	}
	return u.HP / u.MaxHP
}

// TakeDamage subtracts damage and returns the amount actually removed.
func (u *Unit) TakeDamage(damage float64) float64 {
	before := u.HP
	u.HP = clamp(u.HP-damage, 0, u.MaxHP)
	return before - u.HP
}

// Heal adds amount and returns the amount actually restored.
func (u *Unit) Heal(amount float64) float64 {
	before := u.HP
	u.HP = clamp(u.HP+amount, 0, u.MaxHP)
	return u.HP - before
}

type Ally struct {
	Name     string  `json:"name"`
	Affinity float64 `json:"affinity"`
}

// ResourcePool is the external stock of scarce resources, keyed case-insensitively.
type ResourcePool map[string]int

func (p ResourcePool) Available(name string) int {
	return p[strings.ToLower(name)]
}

// Spend deducts n of name if at least n is available.
func (p ResourcePool) Spend(name string, n int) bool {
	key := strings.ToLower(name)
	if p == nil || n < 0 || p[key] < n {
		return false
	}
	p[key] -= n
	return true
}

func (p ResourcePool) Add(name string, n int) {
	p[strings.ToLower(name)] += n
}

// World holds the numeric signals produced by the economy, character and map
// collaborators. The engine reads them and mutates them only through action effects.
type World struct {
	Turn             int          `json:"turn"`
	FactionMorale    float64      `json:"factionMorale"`
	TechLevel        float64      `json:"techLevel"`
	DistanceToTarget float64      `json:"distanceToTarget"`
	Resources        ResourcePool `json:"resources"`
	Allies           []*Ally      `json:"allies"`
}

func (w *World) AverageAffinity() float64 {
	if w == nil || len(w.Allies) == 0 {
		return 0
	}
	sum := 0.0
	for _, a := range w.Allies {
		sum += a.Affinity
	}
	return sum / float64(len(w.Allies))
}

// Deltas are the numeric consequences applied by one resolved action.
type Deltas struct {
	Damage         float64 `json:"damage,omitempty"`
	Healing        float64 `json:"healing,omitempty"`
	ResourceSpent  int     `json:"resourceSpent,omitempty"`
	Resource       string  `json:"resource,omitempty"`
	MoraleChange   float64 `json:"moraleChange,omitempty"`
	TechChange     float64 `json:"techChange,omitempty"`
	AffinityChange float64 `json:"affinityChange,omitempty"`
	DistanceChange float64 `json:"distanceChange,omitempty"`
}

type TurnOutcome struct {
	Turn        int        `json:"turn"`
	UnitID      string     `json:"unitId"`
	UnitName    string     `json:"unitName"`
	Action      ActionKind `json:"action"`
	Forced      bool       `json:"forced"`
	ForcedBy    string     `json:"forcedBy,omitempty"`
	Target      string     `json:"target,omitempty"`
	Reward      float64    `json:"reward"`
	Deltas      Deltas     `json:"deltas"`
	Invalid     bool       `json:"invalid,omitempty"`
	Eliminated  bool       `json:"eliminated,omitempty"`
	WeightAfter float64    `json:"weightAfter"`
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
