// Package lastmod resolves the last-modified time of published pages.
package lastmod

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docportal/internal/content"
	"git.home.luguber.info/inful/docportal/internal/logfields"
)

// Resolver returns the last-modified time of a page. A zero time means unknown.
type Resolver interface {
	Resolve(ctx context.Context, page content.Page) (time.Time, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, page content.Page) (time.Time, error)

func (f ResolverFunc) Resolve(ctx context.Context, page content.Page) (time.Time, error) {
	return f(ctx, page)
}

// Chain tries resolvers in order and returns the first known time. Resolver
// errors are logged and the next resolver is tried.
type Chain []Resolver

func (c Chain) Resolve(ctx context.Context, page content.Page) (time.Time, error) {
	for _, r := range c {
		t, err := r.Resolve(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return time.Time{}, ctx.Err()
			}
			slog.Warn("lastmod resolver failed", logfields.URL(page.URL), logfields.Error(err))
			continue
		}
		if !t.IsZero() {
			return t, nil
		}
	}
	return time.Time{}, nil
}
