package agent

import (
	"log/slog"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

// Notifier receives every resolved outcome. Logging, journaling and metrics
// collaborators implement it; the engine never depends on what they do.
type Notifier interface {
	Notify(out model.TurnOutcome)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(out model.TurnOutcome)

func (f NotifierFunc) Notify(out model.TurnOutcome) { f(out) }

// LogNotifier writes each outcome as a structured log line.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(out model.TurnOutcome) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		"turn", out.Turn,
		"unit", out.UnitName,
		"action", out.Action,
		"reward", out.Reward,
		"weight", out.WeightAfter,
	}
	if out.Forced {
		attrs = append(attrs, "forcedBy", out.ForcedBy)
	}
	if out.Target != "" {
		attrs = append(attrs, "target", out.Target)
	}
	if out.Deltas.Damage > 0 {
		attrs = append(attrs, "damage", out.Deltas.Damage)
	}
	if out.Deltas.Healing > 0 {
		attrs = append(attrs, "healing", out.Deltas.Healing)
	}
	if out.Deltas.ResourceSpent > 0 {
		attrs = append(attrs, "spent", out.Deltas.ResourceSpent, "resource", out.Deltas.Resource)
	}
	if out.Eliminated {
		attrs = append(attrs, "eliminated", true)
	}
	if out.Invalid {
		logger.Warn("turn outcome (no-op)", attrs...)
		return
	}
	logger.Info("turn outcome", attrs...)
}

// fanOut delivers an outcome to every notifier in order.
func fanOut(notifiers []Notifier, out model.TurnOutcome) {
	for _, n := range notifiers {
		if n != nil {
			n.Notify(out)
		}
	}
}
