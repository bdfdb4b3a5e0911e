// Package sitemap turns the site's generated pages into a sitemap listing.
//
// Items are produced by an external generator, post-processed by pure filters
// (Filter, IgnorePatterns) and persisted as sitemap XML.
package sitemap

import "time"

// ChangeFreq is the sitemap <changefreq> hint.
type ChangeFreq string

const (
	ChangeFreqAlways  ChangeFreq = "always"
	ChangeFreqHourly  ChangeFreq = "hourly"
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
	ChangeFreqYearly  ChangeFreq = "yearly"
	ChangeFreqNever   ChangeFreq = "never"
)

// Artifact is one generated page of the site.
type Artifact struct {
	URL        string
	LastMod    time.Time // zero means unknown
	ChangeFreq ChangeFreq
	Priority   float64 // negative means unset
	Source     string  // source document path relative to the docs dir; empty for generated listings

	raw string // verbatim <url> record when read through ReadDocument
}

// URLs returns the artifact urls in order.
func URLs(artifacts []Artifact) []string {
	urls := make([]string, len(artifacts))
	for i, a := range artifacts {
		urls[i] = a.URL
	}
	return urls
}
