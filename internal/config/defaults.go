package config

import (
	"strings"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// DefaultAppliers lists the domain appliers in the order ApplyDefaults runs them.
var DefaultAppliers = []DefaultApplier{
	&SiteDefaultApplier{},
	&DocsDefaultApplier{},
	&ThemeDefaultApplier{},
	&SitemapDefaultApplier{},
	&LinksDefaultApplier{},
	&OutputDefaultApplier{},
	&EventsDefaultApplier{},
	&DaemonDefaultApplier{},
}

// ApplyDefaults runs every domain applier against cfg.
func ApplyDefaults(cfg *Config) error {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	for _, a := range DefaultAppliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// SiteDefaultApplier handles site metadata defaults.
type SiteDefaultApplier struct{}

func (s *SiteDefaultApplier) Domain() string { return "site" }

func (s *SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Documentation"
	}
	if cfg.Site.BaseURL == "" {
		cfg.Site.BaseURL = "/"
	}
	if !strings.HasSuffix(cfg.Site.BaseURL, "/") {
		cfg.Site.BaseURL += "/"
	}
	cfg.Site.URL = strings.TrimSuffix(cfg.Site.URL, "/")
	if cfg.Site.TrailingSlash == nil {
		cfg.Site.TrailingSlash = Bool(true)
	}
	if cfg.Site.Lang == "" {
		cfg.Site.Lang = "en"
	}
	if cfg.Navbar.Title == "" {
		cfg.Navbar.Title = cfg.Site.Title
	}
	return nil
}

// DocsDefaultApplier handles docs corpus defaults.
type DocsDefaultApplier struct{}

func (d *DocsDefaultApplier) Domain() string { return "docs" }

func (d *DocsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Docs.Dir == "" {
		cfg.Docs.Dir = "docs"
	}
	if cfg.Docs.StaticDir == "" {
		cfg.Docs.StaticDir = "static"
	}
	if cfg.Docs.RouteBasePath == "" {
		cfg.Docs.RouteBasePath = "/"
	}
	if cfg.Docs.PageSize < 0 {
		cfg.Docs.PageSize = 0
	}
	if cfg.Docs.Tags == nil {
		cfg.Docs.Tags = Bool(true)
	}
	if cfg.Docs.ShowLastUpdateTime == nil {
		cfg.Docs.ShowLastUpdateTime = Bool(true)
	}
	return nil
}

// ThemeDefaultApplier handles theme defaults.
type ThemeDefaultApplier struct{}

func (t *ThemeDefaultApplier) Domain() string { return "theme" }

func (t *ThemeDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Theme.ColorMode.DefaultMode = strings.ToLower(strings.TrimSpace(cfg.Theme.ColorMode.DefaultMode))
	if cfg.Theme.ColorMode.DefaultMode == "" {
		cfg.Theme.ColorMode.DefaultMode = "light"
	}
	if cfg.Theme.InlineIcons == nil {
		cfg.Theme.InlineIcons = Bool(true)
	}
	if cfg.Theme.Prism.Theme == "" {
		cfg.Theme.Prism.Theme = "github"
	}
	if cfg.Theme.Prism.DarkTheme == "" {
		cfg.Theme.Prism.DarkTheme = "dracula"
	}
	if cfg.Footer.Style == "" {
		cfg.Footer.Style = "dark"
	}
	return nil
}

// SitemapDefaultApplier handles sitemap defaults. Pattern lists are only
// defaulted when omitted; an explicit empty list disables them.
type SitemapDefaultApplier struct{}

func (s *SitemapDefaultApplier) Domain() string { return "sitemap" }

func (s *SitemapDefaultApplier) ApplyDefaults(cfg *Config) error {
	sm := &cfg.Sitemap
	if sm.Enabled == nil {
		sm.Enabled = Bool(true)
	}
	if sm.Filename == "" {
		sm.Filename = "sitemap.xml"
	}
	sm.Lastmod = strings.ToLower(strings.TrimSpace(sm.Lastmod))
	if sm.Lastmod == "" {
		sm.Lastmod = "date"
	}
	sm.ChangeFreq = strings.ToLower(strings.TrimSpace(sm.ChangeFreq))
	if sm.ChangeFreq == "" {
		sm.ChangeFreq = "weekly"
	}
	if sm.Priority == nil {
		p := 0.5
		sm.Priority = &p
	}
	if sm.IgnorePatterns == nil {
		sm.IgnorePatterns = []string{"/tags/**"}
	}
	if sm.ExcludeContaining == nil {
		sm.ExcludeContaining = []string{"/page/"}
	}
	return nil
}

// LinksDefaultApplier handles link checking defaults.
type LinksDefaultApplier struct{}

func (l *LinksDefaultApplier) Domain() string { return "links" }

func (l *LinksDefaultApplier) ApplyDefaults(cfg *Config) error {
	if strings.TrimSpace(cfg.Links.OnBrokenLinks) == "" {
		cfg.Links.OnBrokenLinks = "throw"
	}
	return nil
}

// OutputDefaultApplier handles output and state directory defaults.
type OutputDefaultApplier struct{}

func (o *OutputDefaultApplier) Domain() string { return "output" }

func (o *OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "build"
	}
	if cfg.State.Directory == "" {
		cfg.State.Directory = ".docportal"
	}
	return nil
}

// EventsDefaultApplier handles notification and telemetry defaults.
type EventsDefaultApplier struct{}

func (e *EventsDefaultApplier) Domain() string { return "events" }

func (e *EventsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Events.NATSURL == "" {
		cfg.Events.NATSURL = "nats://127.0.0.1:4222"
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = "docportal.builds"
	}
	if cfg.Events.Stream == "" {
		cfg.Events.Stream = "DOCPORTAL_BUILDS"
	}
	if cfg.Events.KVBucket == "" {
		cfg.Events.KVBucket = "docportal"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "docportal"
	}
	return nil
}

// DaemonDefaultApplier handles preview and daemon defaults.
type DaemonDefaultApplier struct{}

func (d *DaemonDefaultApplier) Domain() string { return "daemon" }

func (d *DaemonDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Daemon.Addr == "" {
		cfg.Daemon.Addr = ":8080"
	}
	if cfg.Daemon.Interval == 0 {
		cfg.Daemon.Interval = time.Hour
	}
	if cfg.Daemon.Debounce == 0 {
		cfg.Daemon.Debounce = 500 * time.Millisecond
	}
	return nil
}
