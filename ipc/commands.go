package ipc

import "github.com/nstehr/vimy/vimy-tactics/model"

// TurnCommand asks the session to play Turns turns (at least one).
type TurnCommand struct {
	Turns int `json:"turns"`
}

// TurnResult reports every outcome from a turn command and the state after it.
type TurnResult struct {
	Outcomes []model.TurnOutcome                     `json:"outcomes"`
	Units    []model.Unit                            `json:"units"`
	World    model.World                             `json:"world"`
	Weights  map[string]map[model.ActionKind]float64 `json:"weights"`
	Over     bool                                    `json:"over"`
}
