// Package config provides CLI configuration and application logic for kizuna.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI is the root command configuration with subcommands.
type CLI struct {
	LogLevel string           `kong:"short='l',help='Log level',enum='debug,info,warn,error',default='info'"`
	Check    CheckCmd         `kong:"cmd,default='withargs',help='Activate wiring manifests and report the result (default)'"`
	Graph    GraphCmd         `kong:"cmd,help='Print the wiring graph of a manifest in Graphviz DOT'"`
	Scan     ScanCmd          `kong:"cmd,help='Extract registrations from Go packages into a manifest'"`
	Version  kong.VersionFlag `kong:"short='v',help='Show version and exit.'"`

	out io.Writer
}

func (cli *CLI) stdout() io.Writer {
	if cli.out == nil {
		return os.Stdout
	}
	return cli.out
}

func Run() error {
	var cli CLI
	kongCtx := kong.Parse(&cli,
		kong.Name("kizuna"),
		kong.Description("Check service wiring graphs for the kizuna dependency injection container"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": fmt.Sprintf("%s (%s) released on %s", version, commit, date),
		},
	)

	return kongCtx.Run(&cli)
}

func setupLogger(level string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
