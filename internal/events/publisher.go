// Package events announces completed builds to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// BuildNotification is published after every build.
type BuildNotification struct {
	BuildID     string    `json:"build_id"`
	Outcome     string    `json:"outcome"`
	SiteURL     string    `json:"site_url"`
	SitemapURL  string    `json:"sitemap_url,omitempty"`
	Pages       int       `json:"pages"`
	SitemapURLs int       `json:"sitemap_urls"`
	ChangedURLs []string  `json:"changed_urls,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// Encode returns the wire form of n.
func (n BuildNotification) Encode() ([]byte, error) {
	return json.Marshal(n)
}

// Publisher delivers build notifications.
type Publisher interface {
	Publish(ctx context.Context, n BuildNotification) error
	Close() error
}

// Noop drops notifications.
type Noop struct{}

func (Noop) Publish(context.Context, BuildNotification) error { return nil }
func (Noop) Close() error                                     { return nil }
