// Package metrics exposes turn outcomes as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

const namespace = "vimy_tactics"

// Recorder counts actions, observes rewards and tracks the latest policy
// weight per unit and action.
type Recorder struct {
	// Labels: unit, action, forced (true, false)
	ActionsTotal *prometheus.CounterVec

	// Labels: action
	Rewards *prometheus.HistogramVec

	// Labels: unit, action
	Weights *prometheus.GaugeVec

	// Labels: action
	NoOpsTotal *prometheus.CounterVec

	EliminationsTotal prometheus.Counter

	// Highest turn number seen.
	Turn prometheus.Gauge
}

// NewRecorder registers every metric with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		ActionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Resolved actions by unit, action and whether the priority tree forced them",
		}, []string{"unit", "action", "forced"}),
		Rewards: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reward",
			Help:      "Reward returned by each resolved action",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}, []string{"action"}),
		Weights: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "policy_weight",
			Help:      "Policy weight after the most recent update",
		}, []string{"unit", "action"}),
		NoOpsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "noop_actions_total",
			Help:      "Actions that could not be carried out",
		}, []string{"action"}),
		EliminationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eliminations_total",
			Help:      "Targets reduced to zero health",
		}),
		Turn: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "turn",
			Help:      "Most recent turn played",
		}),
	}
}

func (r *Recorder) Notify(out model.TurnOutcome) {
	action := out.Action.String()
	forced := "false"
	if out.Forced {
		forced = "true"
	}
	r.ActionsTotal.WithLabelValues(out.UnitName, action, forced).Inc()
	r.Rewards.WithLabelValues(action).Observe(out.Reward)
	r.Weights.WithLabelValues(out.UnitName, action).Set(out.WeightAfter)
	if out.Invalid {
		r.NoOpsTotal.WithLabelValues(action).Inc()
	}
	if out.Eliminated {
		r.EliminationsTotal.Inc()
	}
	r.Turn.Set(float64(out.Turn))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
