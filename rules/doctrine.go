package rules

import (
	"math"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

// Doctrine is the tunable posture of a roster: tree thresholds, damage tiers,
// the reward table and the learning parameters. Every field has a usable default
// and Validate clamps out-of-range values instead of rejecting them.
type Doctrine struct {
	Name string `json:"name" yaml:"name"`

	RetreatHealth       float64 `json:"retreat_health" yaml:"retreat_health"`
	SupportHealth       float64 `json:"support_health" yaml:"support_health"`
	AggressionThreshold float64 `json:"aggression_threshold" yaml:"aggression_threshold"`
	MinAttack           float64 `json:"min_attack" yaml:"min_attack"`

	SpecialResource string `json:"special_resource" yaml:"special_resource"`
	SpecialCost     int    `json:"special_cost" yaml:"special_cost"`

	NormalMultiplier     float64 `json:"normal_multiplier" yaml:"normal_multiplier"`
	AggressiveMultiplier float64 `json:"aggressive_multiplier" yaml:"aggressive_multiplier"`
	SpecialMultiplier    float64 `json:"special_multiplier" yaml:"special_multiplier"`
	CriticalRatio        float64 `json:"critical_ratio" yaml:"critical_ratio"`

	HealAmount       float64 `json:"heal_amount" yaml:"heal_amount"`
	ResearchResource string  `json:"research_resource" yaml:"research_resource"`
	ResearchCost     int     `json:"research_cost" yaml:"research_cost"`
	MoraleGainMin    int     `json:"morale_gain_min" yaml:"morale_gain_min"`
	MoraleGainMax    int     `json:"morale_gain_max" yaml:"morale_gain_max"`
	RomanceAffinity  float64 `json:"romance_affinity" yaml:"romance_affinity"`
	MoveStep         float64 `json:"move_step" yaml:"move_step"`

	LearningRate   float64                      `json:"learning_rate" yaml:"learning_rate"`
	InitialWeights map[model.ActionKind]float64 `json:"initial_weights" yaml:"initial_weights"`
	Candidates     []model.ActionKind           `json:"candidates" yaml:"candidates"`

	Rewards RewardTable `json:"rewards" yaml:"rewards"`
}

// RewardTable is the single fixed mapping from action outcome to reward.
// Rewards are coarse constants, not a continuous utility.
type RewardTable struct {
	Critical        float64 `json:"critical" yaml:"critical"`
	AttackHit       float64 `json:"attack_hit" yaml:"attack_hit"`
	AggressiveHit   float64 `json:"aggressive_hit" yaml:"aggressive_hit"`
	SpecialHit      float64 `json:"special_hit" yaml:"special_hit"`
	Support         float64 `json:"support" yaml:"support"`
	ManageHigh      float64 `json:"manage_high" yaml:"manage_high"`
	ManageLow       float64 `json:"manage_low" yaml:"manage_low"`
	ResearchSuccess float64 `json:"research_success" yaml:"research_success"`
	ResearchFailure float64 `json:"research_failure" yaml:"research_failure"`
	Romance         float64 `json:"romance" yaml:"romance"`
	Move            float64 `json:"move" yaml:"move"`
	Retreat         float64 `json:"retreat" yaml:"retreat"`
	Idle            float64 `json:"idle" yaml:"idle"`
	Invalid         float64 `json:"invalid" yaml:"invalid"`
}

// DefaultRewards returns the reward table used unless a config overrides it.
func DefaultRewards() RewardTable {
	return RewardTable{
		Critical:        1.0,
		AttackHit:       0.3,
		AggressiveHit:   0.4,
		SpecialHit:      0.5,
		Support:         0.8,
		ManageHigh:      0.7,
		ManageLow:       0.3,
		ResearchSuccess: 0.9,
		ResearchFailure: 0.2,
		Romance:         0.6,
		Move:            0.5,
		Retreat:         0.2,
		Idle:            0.1,
		Invalid:         0.1,
	}
}

// DefaultCandidates is every kind except Idle, which is the fallback when
// nothing else ranks.
func DefaultCandidates() []model.ActionKind {
	out := make([]model.ActionKind, 0, len(model.ActionPriority))
	for _, k := range model.ActionPriority {
		if k != model.Idle {
			out = append(out, k)
		}
	}
	return out
}

// DefaultDoctrine returns the baseline skirmish doctrine.
func DefaultDoctrine() Doctrine {
	return Doctrine{
		Name:                 "Skirmish",
		RetreatHealth:        20,
		SupportHealth:        50,
		AggressionThreshold:  0.8,
		MinAttack:            0,
		SpecialResource:      "ether",
		SpecialCost:          1,
		NormalMultiplier:     1.0,
		AggressiveMultiplier: 1.5,
		SpecialMultiplier:    3.0,
		CriticalRatio:        0.25,
		HealAmount:           30,
		ResearchResource:     "credits",
		ResearchCost:         50,
		MoraleGainMin:        5,
		MoraleGainMax:        15,
		RomanceAffinity:      10,
		MoveStep:             5,
		LearningRate:         0.1,
		Candidates:           DefaultCandidates(),
		Rewards:              DefaultRewards(),
	}
}

// Validate clamps all values to their valid ranges.
func (d *Doctrine) Validate() {
	d.RetreatHealth = math.Max(d.RetreatHealth, 0)
	d.SupportHealth = math.Max(d.SupportHealth, d.RetreatHealth)
	d.AggressionThreshold = clamp(d.AggressionThreshold, 0, 1)
	d.MinAttack = math.Max(d.MinAttack, 0)
	d.SpecialCost = clampInt(d.SpecialCost, 1, 100)
	d.NormalMultiplier = math.Max(d.NormalMultiplier, 0)
	d.AggressiveMultiplier = math.Max(d.AggressiveMultiplier, d.NormalMultiplier)
	d.SpecialMultiplier = math.Max(d.SpecialMultiplier, d.AggressiveMultiplier)
	d.CriticalRatio = clamp(d.CriticalRatio, 0, 1)
	d.HealAmount = math.Max(d.HealAmount, 0)
	d.ResearchCost = clampInt(d.ResearchCost, 0, 1_000_000)
	d.MoraleGainMin = clampInt(d.MoraleGainMin, 0, 100)
	d.MoraleGainMax = clampInt(d.MoraleGainMax, d.MoraleGainMin, 100)
	d.RomanceAffinity = clamp(d.RomanceAffinity, 0, 100)
	d.MoveStep = math.Max(d.MoveStep, 0)
	d.LearningRate = clamp(d.LearningRate, 0, 1)
	if d.InitialWeights != nil {
		weights := make(map[model.ActionKind]float64, len(d.InitialWeights))
		for k, w := range d.InitialWeights {
			weights[k] = clamp(w, 0, 1)
		}
		d.InitialWeights = weights
	}
	if d.SpecialResource == "" {
		d.SpecialResource = "ether"
	}
	if d.ResearchResource == "" {
		d.ResearchResource = "credits"
	}
	d.Candidates = dedupeCandidates(d.Candidates)
}

// dedupeCandidates drops unknown and repeated kinds and restores priority order.
func dedupeCandidates(in []model.ActionKind) []model.ActionKind {
	if len(in) == 0 {
		return DefaultCandidates()
	}
	want := make(map[model.ActionKind]bool, len(in))
	for _, k := range in {
		if k.Valid() {
			want[k] = true
		}
	}
	out := make([]model.ActionKind, 0, len(want))
	for _, k := range model.ActionPriority {
		if want[k] {
			out = append(out, k)
		}
	}
	return out
}

// clampInt restricts v to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// clamp restricts v to [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
