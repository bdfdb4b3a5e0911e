// Package commands implements the docportal command line.
package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docportal/internal/config"
	"git.home.luguber.info/inful/docportal/internal/observability"
)

// LogLevelEnv overrides the log level when --verbose is not given.
const LogLevelEnv = "DOCPORTAL_LOG_LEVEL"

// Global is passed to every command.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docportal.yaml" env:"DOCPORTAL_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build the portal homepage, sitemap and build report"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	Validate ValidateCmd `cmd:"" help:"Validate the configuration and feature registry"`
	Preview  PreviewCmd  `cmd:"" help:"Serve the portal with live reload, rebuilding on changes"`
	Daemon   DaemonCmd   `cmd:"" help:"Serve the portal and rebuild on a schedule"`
	Sitemap  SitemapCmd  `cmd:"" help:"Filter the URLs of an existing sitemap"`
	Features FeaturesCmd `cmd:"" help:"Render the feature section as HTML"`
	History  HistoryCmd  `cmd:"" help:"Show recent builds from the event log"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	level := parseLogLevel(c.Verbose)
	logger := slog.New(observability.NewContextHandler(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

// parseLogLevel honors --verbose first, then DOCPORTAL_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(LogLevelEnv))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loadConfig(ctx context.Context, root *CLI) (*config.Config, error) {
	return config.Load(ctx, root.Config)
}
