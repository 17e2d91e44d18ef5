package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nstehr/vimy/vimy-tactics/agent"
	"github.com/nstehr/vimy/vimy-tactics/model"
)

var (
	simTurns int
	simSeed  int64

	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Play the configured scenario locally and log every outcome",
		RunE:  runSimulate,
	}
)

func init() {
	simulateCmd.Flags().IntVar(&simTurns, "turns", 0, "Turns to play (overrides the scenario)")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "Random seed (overrides the scenario)")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	fmt.Println(banner)

	if cmd.Flags().Changed("turns") {
		cfg.Scenario.Turns = simTurns
	}
	if cmd.Flags().Changed("seed") {
		cfg.Scenario.Seed = simSeed
	}

	j, err := openJournal(cfg.Server.Journal)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	s := agent.NewSession(cfg.Doctrine, notifiers(j)...)
	if err := s.Start(cfg.Scenario.Hello("simulation")); err != nil {
		return fmt.Errorf("scenario: %w", err)
	}
	slog.Info("simulation starting",
		"doctrine", cfg.Doctrine.Name,
		"turns", cfg.Scenario.Turns,
		"seed", cfg.Scenario.Seed,
	)

	res, err := s.Play(cfg.Scenario.Turns)
	if err != nil {
		return err
	}

	for _, u := range res.Units {
		slog.Info("unit", "name", u.Name, "hp", u.HP, "maxHp", u.MaxHP, "alive", u.Alive())
	}
	for name, weights := range res.Weights {
		attrs := []any{"unit", name}
		for _, k := range model.ActionPriority {
			if w, ok := weights[k]; ok {
				attrs = append(attrs, k.String(), w)
			}
		}
		slog.Info("policy weights", attrs...)
	}
	slog.Info("simulation finished",
		"turn", res.World.Turn,
		"outcomes", len(res.Outcomes),
		"over", res.Over,
		"morale", res.World.FactionMorale,
		"tech", res.World.TechLevel,
	)

	if j != nil {
		counts, err := j.ActionCounts(context.Background(), "")
		if err != nil {
			return err
		}
		attrs := make([]any, 0, 2*len(counts))
		for _, k := range model.ActionPriority {
			if n, ok := counts[k]; ok {
				attrs = append(attrs, k.String(), n)
			}
		}
		slog.Info("journal action counts", attrs...)
	}
	return nil
}
