package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nstehr/vimy/vimy-tactics/agent"
	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/journal"
)

const banner = `
██╗   ██╗██╗███╗   ███╗██╗   ██╗
██║   ██║██║████╗ ████║╚██╗ ██╔╝
██║   ██║██║██╔████╔██║ ╚████╔╝
╚██╗ ██╔╝██║██║╚██╔╝██║  ╚██╔╝
 ╚████╔╝ ██║██║ ╚═╝ ██║   ██║
  ╚═══╝  ╚═╝╚═╝     ╚═╝   ╚═╝

Doctrine-Driven Tactical Intelligence`

var (
	configPath  string
	logLevel    string
	journalPath string

	rootCmd = &cobra.Command{
		Use:           "vimy-tactics",
		Short:         "Per-unit tactical decision engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults are used when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides the config)")
	rootCmd.PersistentFlags().StringVar(&journalPath, "journal", "", "SQLite file that records every turn outcome")

	rootCmd.AddCommand(simulateCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// setup loads the config and installs the default logger.
func setup() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if journalPath != "" {
		cfg.Server.Journal = journalPath
	}

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return level, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}

// openJournal returns nil when no journal path is configured.
func openJournal(path string) (*journal.Journal, error) {
	if path == "" {
		return nil, nil
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal %s: %w", path, err)
	}
	slog.Info("journaling outcomes", "path", path, "session", j.Session())
	return j, nil
}

// notifiers assembles the outcome collaborators shared by both commands.
func notifiers(j *journal.Journal, extra ...agent.Notifier) []agent.Notifier {
	out := []agent.Notifier{agent.LogNotifier{}}
	if j != nil {
		out = append(out, j)
	}
	return append(out, extra...)
}
