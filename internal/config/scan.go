package config

import (
	"log/slog"

	"github.com/mazrean/kizuna/internal/manifest"
	"github.com/mazrean/kizuna/internal/scan"
)

// ScanCmd extracts Register and Add calls into a manifest.
type ScanCmd struct {
	Output   string   `kong:"short='o',default='kizuna.yaml',help='Output manifest path'"`
	Patterns []string `kong:"arg,optional,help='Go package patterns to scan',default='./...'"`
}

// Run executes the scan command.
func (c *ScanCmd) Run(cli *CLI) error {
	setupLogger(cli.LogLevel)

	slog.Info("Scanning registrations", "patterns", c.Patterns)

	m, warnings, err := scan.NewExtractor().Packages(c.Patterns...)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		slog.Warn(w.Message, "pos", w.Pos)
	}
	if len(m.Services) == 0 {
		slog.Warn("No registrations found, no manifest generated")
		return nil
	}

	if err := m.Validate(); err != nil {
		return err
	}
	if err := manifest.WriteFile(c.Output, m); err != nil {
		return err
	}

	slog.Info("Generated wiring manifest", "output", c.Output, "services", len(m.Services))
	return nil
}
