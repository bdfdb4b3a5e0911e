package content

import (
	"slices"
	"strings"
)

// Kind distinguishes authored documents from generated listing pages.
type Kind string

const (
	KindDoc        Kind = "doc"
	KindTagIndex   Kind = "tag_index"
	KindTag        Kind = "tag"
	KindPagination Kind = "pagination"
)

// Page is one route of the site.
type Page struct {
	URL    string // route path, e.g. /standards/intro/
	Kind   Kind
	Title  string
	Source string // slash-separated path relative to the docs dir; empty for listings
	Tags   []string

	// Unlisted pages are routable but kept out of listings and the sitemap.
	Unlisted       bool
	SitemapExclude bool
	Fingerprint    string
}

// InSitemap reports whether the page may be listed in the sitemap.
func (p Page) InSitemap() bool {
	return !p.Unlisted && !p.SitemapExclude
}

// Corpus is the discovered set of pages.
type Corpus struct {
	Docs     []Page // ordered by URL
	Listings []Page // tag index, tags (by name), then pagination pages
}

// Pages returns docs followed by listings.
func (c *Corpus) Pages() []Page {
	out := make([]Page, 0, len(c.Docs)+len(c.Listings))
	out = append(out, c.Docs...)
	return append(out, c.Listings...)
}

// Routes returns the set of known route paths. Both slash forms of every route are
// present so links resolve regardless of trailing slash style.
func (c *Corpus) Routes() map[string]bool {
	routes := make(map[string]bool, 2*(len(c.Docs)+len(c.Listings)))
	for _, p := range c.Pages() {
		routes[p.URL] = true
		if p.URL != "/" {
			routes[strings.TrimSuffix(p.URL, "/")] = true
			routes[strings.TrimSuffix(p.URL, "/")+"/"] = true
		}
	}
	return routes
}

// Tags returns the distinct tags of listed docs in sorted order.
func (c *Corpus) Tags() []string {
	var tags []string
	for _, d := range c.Docs {
		if d.Unlisted {
			continue
		}
		for _, t := range d.Tags {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}
	slices.Sort(tags)
	return tags
}
