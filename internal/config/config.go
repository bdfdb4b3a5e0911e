// Package config loads and validates the docportal configuration file.
package config

import (
	"time"

	"git.home.luguber.info/inful/docportal/internal/features"
)

// Config is the docportal configuration.
type Config struct {
	Version   string                       `yaml:"version"`
	Site      SiteConfig                   `yaml:"site"`
	Docs      DocsConfig                   `yaml:"docs"`
	Theme     ThemeConfig                  `yaml:"theme"`
	Navbar    NavbarConfig                 `yaml:"navbar"`
	Hero      HeroConfig                   `yaml:"hero,omitempty"`
	Footer    FooterConfig                 `yaml:"footer"`
	Features  []features.ContentDescriptor `yaml:"features"`
	Sitemap   SitemapConfig                `yaml:"sitemap"`
	Links     LinksConfig                  `yaml:"links"`
	Output    OutputConfig                 `yaml:"output"`
	State     StateConfig                  `yaml:"state"`
	Events    EventsConfig                 `yaml:"events,omitempty"`
	Telemetry TelemetryConfig              `yaml:"telemetry,omitempty"`
	Daemon    DaemonConfig                 `yaml:"daemon,omitempty"`

	// SourcePath is the file the configuration was loaded from.
	SourcePath string `yaml:"-"`
}

// SiteConfig is the site metadata.
type SiteConfig struct {
	Title            string `yaml:"title"`
	Tagline          string `yaml:"tagline,omitempty"`
	URL              string `yaml:"url"`      // scheme and host
	BaseURL          string `yaml:"base_url"` // path prefix
	Favicon          string `yaml:"favicon,omitempty"`
	TrailingSlash    *bool  `yaml:"trailing_slash,omitempty"`
	OrganizationName string `yaml:"organization_name,omitempty"`
	ProjectName      string `yaml:"project_name,omitempty"`
	Lang             string `yaml:"lang,omitempty"`
}

// DocsConfig locates the documentation corpus.
type DocsConfig struct {
	Dir                string `yaml:"dir"`
	StaticDir          string `yaml:"static_dir,omitempty"`
	RouteBasePath      string `yaml:"route_base_path"`
	PageSize           int    `yaml:"page_size,omitempty"`
	Tags               *bool  `yaml:"tags,omitempty"`
	IncludeDrafts      bool   `yaml:"include_drafts,omitempty"`
	ShowLastUpdateTime *bool  `yaml:"show_last_update_time,omitempty"`
}

// ThemeConfig is the theme configuration.
type ThemeConfig struct {
	AccentColor     string          `yaml:"accent_color,omitempty"`
	TintBackgrounds bool            `yaml:"tint_backgrounds,omitempty"`
	InlineIcons     *bool           `yaml:"inline_icons,omitempty"`
	ColorMode       ColorModeConfig `yaml:"color_mode"`
	Prism           PrismConfig     `yaml:"prism,omitempty"`
}

// ColorModeConfig selects the default color mode.
type ColorModeConfig struct {
	DefaultMode   string `yaml:"default_mode"`
	DisableSwitch bool   `yaml:"disable_switch"`
}

// PrismConfig names the code highlight themes.
type PrismConfig struct {
	Theme               string   `yaml:"theme,omitempty"`
	DarkTheme           string   `yaml:"dark_theme,omitempty"`
	AdditionalLanguages []string `yaml:"additional_languages,omitempty"`
}

// NavbarConfig is the top navigation.
type NavbarConfig struct {
	Title string      `yaml:"title,omitempty"`
	Logo  *LogoConfig `yaml:"logo,omitempty"`
	Items []NavItem   `yaml:"items,omitempty"`
}

// LogoConfig is the navbar logo.
type LogoConfig struct {
	Alt string `yaml:"alt"`
	Src string `yaml:"src"`
}

// NavItem is a navbar link.
type NavItem struct {
	Label    string `yaml:"label"`
	Href     string `yaml:"href"`
	Position string `yaml:"position,omitempty"` // left or right
}

// HeroConfig is the homepage banner.
type HeroConfig struct {
	CTA *LinkConfig `yaml:"cta,omitempty"`
}

// LinkConfig is a labelled link.
type LinkConfig struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// FooterConfig is the page footer.
type FooterConfig struct {
	Style     string         `yaml:"style,omitempty"`
	Links     []FooterColumn `yaml:"links,omitempty"`
	Copyright string         `yaml:"copyright,omitempty"`
}

// FooterColumn is a titled group of footer links.
type FooterColumn struct {
	Title string       `yaml:"title"`
	Items []LinkConfig `yaml:"items"`
}

// SitemapConfig controls sitemap generation.
type SitemapConfig struct {
	Enabled           *bool    `yaml:"enabled,omitempty"`
	Filename          string   `yaml:"filename"`
	Lastmod           string   `yaml:"lastmod"` // date, datetime or none
	ChangeFreq        string   `yaml:"changefreq"`
	Priority          *float64 `yaml:"priority,omitempty"`
	IgnorePatterns    []string `yaml:"ignore_patterns,omitempty"`
	ExcludeContaining []string `yaml:"exclude_containing,omitempty"`
	Gzip              bool     `yaml:"gzip,omitempty"`
}

// LinksConfig controls link checking.
type LinksConfig struct {
	OnBrokenLinks string `yaml:"on_broken_links"`
}

// OutputConfig controls the output directory.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"`
}

// StateConfig locates the state and event databases.
type StateConfig struct {
	Directory string `yaml:"directory"`
}

// EventsConfig configures NATS build notifications.
type EventsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	NATSURL  string `yaml:"nats_url,omitempty"`
	Subject  string `yaml:"subject,omitempty"`
	Stream   string `yaml:"stream,omitempty"`
	KVBucket string `yaml:"kv_bucket,omitempty"`
}

// TelemetryConfig configures trace export.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
	ServiceName  string `yaml:"service_name,omitempty"`
}

// DaemonConfig configures the long-running modes.
type DaemonConfig struct {
	Addr     string        `yaml:"addr,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"`
	Watch    bool          `yaml:"watch,omitempty"`
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// BoolValue returns *b, or def when b is nil.
func BoolValue(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
