package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/docportal/internal/features"
	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/linkcheck"
	"git.home.luguber.info/inful/docportal/internal/sitemap"
)

// MinDaemonInterval is the shortest accepted rebuild interval.
const MinDaemonInterval = time.Minute

// ValidateConfig validates a configuration after defaults were applied.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	steps := []func() error{
		cv.validateSite,
		cv.validateDocs,
		cv.validateTheme,
		cv.validateFeatures,
		cv.validateSitemap,
		cv.validateLinks,
		cv.validatePaths,
		cv.validateEvents,
		cv.validateDaemon,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return errors.ValidationError(fmt.Sprintf(format, args...)).
		WithContext("field", field).
		UserAction().
		Build()
}

func (cv *configurationValidator) validateSite() error {
	s := cv.config.Site
	if strings.TrimSpace(s.Title) == "" {
		return invalid("site.title", "site title cannot be empty")
	}
	if s.URL == "" {
		return invalid("site.url", "site url is required")
	}
	u, err := url.Parse(s.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("site.url", "site url must be an absolute http(s) url: %q", s.URL)
	}
	if u.Path != "" && u.Path != "/" {
		return invalid("site.url", "site url must not carry a path, use base_url: %q", s.URL)
	}
	if !strings.HasPrefix(s.BaseURL, "/") || !strings.HasSuffix(s.BaseURL, "/") {
		return invalid("site.base_url", "base_url must start and end with '/': %q", s.BaseURL)
	}
	return nil
}

func (cv *configurationValidator) validateDocs() error {
	d := cv.config.Docs
	if strings.TrimSpace(d.Dir) == "" {
		return invalid("docs.dir", "docs directory cannot be empty")
	}
	if !strings.HasPrefix(d.RouteBasePath, "/") {
		return invalid("docs.route_base_path", "route_base_path must start with '/': %q", d.RouteBasePath)
	}
	return nil
}

func (cv *configurationValidator) validateTheme() error {
	t := cv.config.Theme
	switch t.ColorMode.DefaultMode {
	case "light", "dark":
	default:
		return invalid("theme.color_mode.default_mode", "default_mode must be light or dark: %q", t.ColorMode.DefaultMode)
	}
	if t.AccentColor != "" && !features.IsColor(t.AccentColor) {
		return invalid("theme.accent_color", "accent_color %q is not a hex or named color", t.AccentColor)
	}
	switch cv.config.Footer.Style {
	case "light", "dark":
	default:
		return invalid("footer.style", "footer style must be light or dark: %q", cv.config.Footer.Style)
	}
	for i, item := range cv.config.Navbar.Items {
		switch item.Position {
		case "", "left", "right":
		default:
			return invalid(fmt.Sprintf("navbar.items[%d].position", i), "position must be left or right: %q", item.Position)
		}
		if item.Href == "" {
			return invalid(fmt.Sprintf("navbar.items[%d].href", i), "navbar item href cannot be empty")
		}
	}
	return nil
}

func (cv *configurationValidator) validateFeatures() error {
	if err := cv.config.Registry().Validate(); err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid features").
			WithContext("field", "features").
			UserAction().
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateSitemap() error {
	sm := cv.config.Sitemap
	switch sitemap.LastmodMode(sm.Lastmod) {
	case sitemap.LastmodDate, sitemap.LastmodDateTime, sitemap.LastmodNone:
	default:
		return invalid("sitemap.lastmod", "lastmod must be date, datetime or none: %q", sm.Lastmod)
	}
	switch sitemap.ChangeFreq(sm.ChangeFreq) {
	case sitemap.ChangeFreqAlways, sitemap.ChangeFreqHourly, sitemap.ChangeFreqDaily,
		sitemap.ChangeFreqWeekly, sitemap.ChangeFreqMonthly, sitemap.ChangeFreqYearly, sitemap.ChangeFreqNever:
	default:
		return invalid("sitemap.changefreq", "unknown changefreq %q", sm.ChangeFreq)
	}
	if sm.Priority != nil && (*sm.Priority < 0 || *sm.Priority > 1) {
		return invalid("sitemap.priority", "priority must be between 0 and 1: %v", *sm.Priority)
	}
	if sm.Filename == "" || strings.ContainsAny(sm.Filename, `/\`) {
		return invalid("sitemap.filename", "filename must be a plain file name: %q", sm.Filename)
	}
	for i, p := range sm.IgnorePatterns {
		if !strings.HasPrefix(p, "/") {
			return invalid(fmt.Sprintf("sitemap.ignore_patterns[%d]", i), "ignore pattern must start with '/': %q", p)
		}
		if !sitemap.ValidGlob(p) {
			return invalid(fmt.Sprintf("sitemap.ignore_patterns[%d]", i), "malformed ignore pattern: %q", p)
		}
	}
	return nil
}

func (cv *configurationValidator) validateLinks() error {
	if _, err := linkcheck.ParsePolicy(cv.config.Links.OnBrokenLinks); err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid on_broken_links").
			WithContext("field", "links.on_broken_links").
			UserAction().
			Build()
	}
	return nil
}

func (cv *configurationValidator) validatePaths() error {
	out := filepath.Clean(cv.config.Output.Directory)
	docs := filepath.Clean(cv.config.Docs.Dir)
	if out == "." || out == "/" {
		return invalid("output.directory", "output directory %q would clean the working tree", cv.config.Output.Directory)
	}
	if out == docs {
		return invalid("output.directory", "output directory must differ from the docs directory")
	}
	if strings.TrimSpace(cv.config.State.Directory) == "" {
		return invalid("state.directory", "state directory cannot be empty")
	}
	if !cv.config.Output.Clean {
		return nil
	}
	// Cleaning removes everything below the output directory.
	kept := []struct{ field, path string }{
		{"docs.dir", cv.config.Docs.Dir},
		{"docs.static_dir", cv.config.Docs.StaticDir},
		{"state.directory", cv.config.State.Directory},
		{"config file", cv.config.SourcePath},
	}
	for _, k := range kept {
		if k.path != "" && within(cv.config.Output.Directory, k.path) {
			return invalid("output.directory", "cleaned output directory %q contains %s %q", cv.config.Output.Directory, k.field, k.path)
		}
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (cv *configurationValidator) validateEvents() error {
	e := cv.config.Events
	if !e.Enabled {
		return nil
	}
	if _, err := url.Parse(e.NATSURL); err != nil || e.NATSURL == "" {
		return invalid("events.nats_url", "invalid nats url %q", e.NATSURL)
	}
	if strings.ContainsAny(e.Subject, " *>") || e.Subject == "" {
		return invalid("events.subject", "subject must be a literal NATS subject: %q", e.Subject)
	}
	return nil
}

func (cv *configurationValidator) validateDaemon() error {
	d := cv.config.Daemon
	if d.Interval < MinDaemonInterval {
		return invalid("daemon.interval", "interval must be at least %s: %s", MinDaemonInterval, d.Interval)
	}
	if d.Debounce < 0 {
		return invalid("daemon.debounce", "debounce cannot be negative")
	}
	return nil
}
