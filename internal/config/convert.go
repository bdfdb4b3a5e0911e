package config

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/docportal/internal/content"
	"git.home.luguber.info/inful/docportal/internal/features"
	"git.home.luguber.info/inful/docportal/internal/homepage"
	"git.home.luguber.info/inful/docportal/internal/linkcheck"
	"git.home.luguber.info/inful/docportal/internal/version"
)

// Registry returns the feature registry in configured order.
func (c *Config) Registry() features.Registry {
	return features.NewRegistry(c.Features...)
}

// StyleOptions returns the feature styling derived from the theme.
func (c *Config) StyleOptions() features.StyleOptions {
	return features.StyleOptions{Fallback: c.Theme.AccentColor, TintBackground: c.Theme.TintBackgrounds}
}

// Router returns the document router for the configured base paths.
func (c *Config) Router() content.Router {
	return content.Router{
		BasePath:      path.Join(c.Site.BaseURL, c.Docs.RouteBasePath),
		TrailingSlash: BoolValue(c.Site.TrailingSlash, true),
	}
}

// LinkPolicy returns the broken link policy. The value is validated by Load.
func (c *Config) LinkPolicy() linkcheck.Policy {
	p, err := linkcheck.ParsePolicy(c.Links.OnBrokenLinks)
	if err != nil {
		return linkcheck.PolicyThrow
	}
	return p
}

// SiteURL returns the absolute url of the site root, with a trailing slash.
func (c *Config) SiteURL() string {
	return strings.TrimSuffix(c.Site.URL, "/") + c.Site.BaseURL
}

// SitemapPath returns the site-relative path of the sitemap, or "" when disabled.
func (c *Config) SitemapPath() string {
	if !BoolValue(c.Sitemap.Enabled, true) {
		return ""
	}
	return c.Site.BaseURL + c.Sitemap.Filename
}

// AssetURL resolves a static asset reference against the base url. Absolute
// urls and rooted paths are returned unchanged.
func (c *Config) AssetURL(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "/") || strings.Contains(ref, "://") {
		return ref
	}
	return c.Site.BaseURL + ref
}

// HomepageSite returns the landing page view model.
func (c *Config) HomepageSite() homepage.Site {
	site := homepage.Site{
		Title:     c.Site.Title,
		Tagline:   c.Site.Tagline,
		BaseURL:   c.Site.BaseURL,
		Lang:      c.Site.Lang,
		Favicon:   c.AssetURL(c.Site.Favicon),
		Sitemap:   c.SitemapPath(),
		Generator: "docportal " + version.Version,
		ColorMode: homepage.ColorMode{
			Default:       c.Theme.ColorMode.DefaultMode,
			DisableSwitch: c.Theme.ColorMode.DisableSwitch,
		},
		Prism: homepage.Prism{
			Theme:               c.Theme.Prism.Theme,
			DarkTheme:           c.Theme.Prism.DarkTheme,
			AdditionalLanguages: c.Theme.Prism.AdditionalLanguages,
		},
		Navbar: homepage.Navbar{Title: c.Navbar.Title},
		Footer: homepage.Footer{Style: c.Footer.Style, Copyright: c.Footer.Copyright},
	}
	if c.Navbar.Logo != nil {
		site.Navbar.Logo = &homepage.Logo{Alt: c.Navbar.Logo.Alt, Src: c.AssetURL(c.Navbar.Logo.Src)}
	}
	for _, it := range c.Navbar.Items {
		site.Navbar.Items = append(site.Navbar.Items, homepage.NavItem{Label: it.Label, Href: it.Href, Position: it.Position})
	}
	if c.Hero.CTA != nil {
		site.Hero.CTA = &homepage.Link{Label: c.Hero.CTA.Label, Href: c.Hero.CTA.Href}
	}
	for _, col := range c.Footer.Links {
		out := homepage.FooterColumn{Title: col.Title}
		for _, l := range col.Items {
			out.Items = append(out.Items, homepage.Link{Label: l.Label, Href: l.Href})
		}
		site.Footer.Columns = append(site.Footer.Columns, out)
	}
	return site
}
