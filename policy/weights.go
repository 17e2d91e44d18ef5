// Package policy holds the per-unit action preference weights that bias
// utility ranking and drift with observed rewards.
package policy

import (
	"maps"
	"math"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

const (
	// DefaultWeight is reported for kinds with no stored weight.
	DefaultWeight = 0.5
	// DefaultLearningRate scales each reward before it is added to a weight.
	DefaultLearningRate = 0.1
)

// Weights maps each ActionKind to a preference in [0, 1]. A unit owns its
// Weights exclusively and only that unit's turn resolution updates it.
type Weights struct {
	values map[model.ActionKind]float64
}

// New creates a store seeded from initial. Seeds are clamped to [0, 1];
// unknown kinds and NaN seeds are dropped.
func New(initial map[model.ActionKind]float64) *Weights {
	w := &Weights{values: make(map[model.ActionKind]float64, len(model.ActionPriority))}
	for k, v := range initial {
		if !k.Valid() || math.IsNaN(v) {
			continue
		}
		w.values[k] = clamp(v)
	}
	return w
}

// Weight returns the stored weight for kind, or DefaultWeight.
func (w *Weights) Weight(kind model.ActionKind) float64 {
	if v, ok := w.values[kind]; ok {
		return v
	}
	return DefaultWeight
}

// Update nudges kind's weight by reward*learningRate and clamps the result.
// It returns the new weight. A NaN reward or rate leaves the weight unchanged.
func (w *Weights) Update(kind model.ActionKind, reward, learningRate float64) float64 {
	old := w.Weight(kind)
	next := old + reward*learningRate
	if math.IsNaN(next) {
		return old
	}
	w.values[kind] = clamp(next)
	return w.values[kind]
}

// Snapshot returns a copy of every explicitly stored weight.
func (w *Weights) Snapshot() map[model.ActionKind]float64 {
	return maps.Clone(w.values)
}

// All returns the effective weight of every declared kind.
func (w *Weights) All() map[model.ActionKind]float64 {
	out := make(map[model.ActionKind]float64, len(model.ActionPriority))
	for _, k := range model.ActionPriority {
		out[k] = w.Weight(k)
	}
	return out
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
