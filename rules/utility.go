package rules

import "github.com/nstehr/vimy/vimy-tactics/model"

// NeutralScore is returned for kinds without a formula.
const NeutralScore = 0.5

// Score rates how attractive kind is in the given snapshot. Each formula reads
// one or two signals and the result is clamped to [0, 1] so out-of-range
// inputs cannot distort ranking.
func Score(kind model.ActionKind, s Snapshot) float64 {
	enemy := s.Get(SignalEnemyHealthRatio)
	self := s.Get(SignalSelfHealth)

	var v float64
	switch kind {
	case model.Attack:
		v = 1 - enemy
	case model.AggressiveAttack:
		v = (1 - enemy) * self
	case model.SpecialAttack:
		if s.Get(SignalSpecialResource) < 1 {
			return 0
		}
		v = enemy
	case model.Retreat:
		v = 1 - self
	case model.SeekSupport:
		v = (1 - self) * s.Get(SignalSupportHealthRatio)
	case model.Manage:
		v = s.Get(SignalFactionMorale) / 100
	case model.Research:
		v = s.Get(SignalTechLevel) / MaxTechLevel
	case model.Romance:
		v = s.Get(SignalAverageAffinity) / 100
	case model.Move:
		v = 1 - s.Get(SignalDistanceToTarget)/MaxDistance
	default:
		return NeutralScore
	}
	return clamp(v, 0, 1)
}

// ScoreAll scores every kind in kinds.
func ScoreAll(kinds []model.ActionKind, s Snapshot) map[model.ActionKind]float64 {
	out := make(map[model.ActionKind]float64, len(kinds))
	for _, k := range kinds {
		out[k] = Score(k, s)
	}
	return out
}
