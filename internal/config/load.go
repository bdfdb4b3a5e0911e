package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/logfields"
)

// CurrentVersion is the config file format version written by Init.
const CurrentVersion = "1"

// DefaultEnvFiles are loaded, when present, before the config file is read.
var DefaultEnvFiles = []string{".env", ".env.local"}

type loadOptions struct {
	lookuper envconfig.Lookuper
	envFiles []string
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithLookuper replaces the process environment for expansion and overrides.
// Env files are not loaded when a lookuper is set.
func WithLookuper(l envconfig.Lookuper) LoadOption {
	return func(o *loadOptions) {
		o.lookuper = l
		o.envFiles = nil
	}
}

// WithEnvFiles sets the env files loaded before reading the config.
func WithEnvFiles(files ...string) LoadOption {
	return func(o *loadOptions) { o.envFiles = files }
}

// envOverrides are the environment variables that take precedence over the file.
type envOverrides struct {
	SiteURL       string `env:"DOCPORTAL_SITE_URL"`
	BaseURL       string `env:"DOCPORTAL_BASE_URL"`
	DocsDir       string `env:"DOCPORTAL_DOCS_DIR"`
	OutputDir     string `env:"DOCPORTAL_OUTPUT_DIR"`
	StateDir      string `env:"DOCPORTAL_STATE_DIR"`
	OnBrokenLinks string `env:"DOCPORTAL_ON_BROKEN_LINKS"`
	EventsEnabled string `env:"DOCPORTAL_EVENTS_ENABLED"`
	NATSURL       string `env:"DOCPORTAL_NATS_URL"`
	OTLPEndpoint  string `env:"DOCPORTAL_OTLP_ENDPOINT"`
	Addr          string `env:"DOCPORTAL_ADDR"`
}

// Load reads the config file at path, expands ${VAR} references, applies
// environment overrides and defaults, and validates the result.
func Load(ctx context.Context, path string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{envFiles: DefaultEnvFiles}
	for _, opt := range opts {
		opt(&o)
	}
	loadEnvFiles(o.envFiles)
	if o.lookuper == nil {
		o.lookuper = envconfig.OsLookuper()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewError(errors.CategoryNotFound, "configuration file not found").
				WithContext("path", path).
				UserAction().
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", path).
			Build()
	}

	expanded := os.Expand(string(data), func(key string) string {
		v, _ := o.lookuper.Lookup(key)
		return v
	})

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").
			WithContext("path", path).
			UserAction().
			Build()
	}

	if err := applyEnvOverrides(ctx, &cfg, o.lookuper); err != nil {
		return nil, err
	}
	cfg.SourcePath = path
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFiles(files []string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// godotenv.Load never overrides variables already set.
		if err := godotenv.Load(f); err != nil {
			slog.Warn("Failed to load env file", logfields.Path(f), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded env file", logfields.Path(f))
	}
}

func applyEnvOverrides(ctx context.Context, cfg *Config, l envconfig.Lookuper) error {
	var env envOverrides
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &env, Lookuper: l}); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to read environment overrides").Build()
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Site.URL, env.SiteURL)
	set(&cfg.Site.BaseURL, env.BaseURL)
	set(&cfg.Docs.Dir, env.DocsDir)
	set(&cfg.Output.Directory, env.OutputDir)
	set(&cfg.State.Directory, env.StateDir)
	set(&cfg.Links.OnBrokenLinks, env.OnBrokenLinks)
	set(&cfg.Events.NATSURL, env.NATSURL)
	set(&cfg.Telemetry.OTLPEndpoint, env.OTLPEndpoint)
	set(&cfg.Daemon.Addr, env.Addr)

	if env.EventsEnabled != "" {
		enabled, err := strconv.ParseBool(env.EventsEnabled)
		if err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid DOCPORTAL_EVENTS_ENABLED").
				WithContext("value", env.EventsEnabled).
				UserAction().
				Build()
		}
		cfg.Events.Enabled = enabled
	}
	return nil
}
