package policy

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

func TestWeight_DefaultsToHalf(t *testing.T) {
	w := New(nil)
	for _, k := range model.ActionPriority {
		assert.Equal(t, DefaultWeight, w.Weight(k), "kind %s", k)
	}
}

func TestNew_ClampsSeeds(t *testing.T) {
	w := New(map[model.ActionKind]float64{
		model.Attack:  1.7,
		model.Retreat: -0.4,
		model.Manage:  math.NaN(),
		model.Romance: 0.6,
	})
	assert.Equal(t, 1.0, w.Weight(model.Attack))
	assert.Equal(t, 0.0, w.Weight(model.Retreat))
	assert.Equal(t, DefaultWeight, w.Weight(model.Manage))
	assert.Equal(t, 0.6, w.Weight(model.Romance))
}

func TestUpdate_SingleStep(t *testing.T) {
	w := New(nil)
	got := w.Update(model.Attack, 0.8, DefaultLearningRate)
	assert.InDelta(t, 0.58, got, 1e-12)
	assert.InDelta(t, 0.58, w.Weight(model.Attack), 1e-12)
}

func TestUpdate_OnlyTouchesSelectedKind(t *testing.T) {
	w := New(nil)
	before := w.All()
	w.Update(model.Retreat, 0.2, DefaultLearningRate)
	after := w.All()
	for _, k := range model.ActionPriority {
		if k == model.Retreat {
			continue
		}
		assert.Equal(t, before[k], after[k], "kind %s changed", k)
	}
	assert.InDelta(t, 0.52, after[model.Retreat], 1e-12)
}

func TestUpdate_StaysInUnitInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	rewards := []float64{math.MaxFloat64, -math.MaxFloat64, math.Inf(1), math.Inf(-1), 1e308, -1e308, 0}
	for trial := 0; trial < 50; trial++ {
		w := New(map[model.ActionKind]float64{model.Attack: rng.Float64()})
		for step := 0; step < 500; step++ {
			var r float64
			if step%3 == 0 {
				r = rewards[rng.Intn(len(rewards))]
			} else {
				r = (rng.Float64() - 0.5) * 1000
			}
			lr := rng.Float64()
			got := w.Update(model.Attack, r, lr)
			require.False(t, math.IsNaN(got), "trial %d step %d: NaN weight", trial, step)
			require.GreaterOrEqual(t, got, 0.0, "trial %d step %d", trial, step)
			require.LessOrEqual(t, got, 1.0, "trial %d step %d", trial, step)
		}
	}
}

func TestUpdate_IgnoresNaN(t *testing.T) {
	w := New(map[model.ActionKind]float64{model.Move: 0.3})
	got := w.Update(model.Move, math.NaN(), DefaultLearningRate)
	assert.Equal(t, 0.3, got)
	got = w.Update(model.Move, math.Inf(1), 0)
	assert.Equal(t, 0.3, got, "Inf*0 is NaN and must be ignored")
}

func TestSnapshot_IsCopy(t *testing.T) {
	w := New(map[model.ActionKind]float64{model.Attack: 0.4})
	snap := w.Snapshot()
	snap[model.Attack] = 0.9
	assert.Equal(t, 0.4, w.Weight(model.Attack))
}
