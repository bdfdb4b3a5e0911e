package lastmod

import (
	"context"
	"sync"
	"time"

	"git.home.luguber.info/inful/docportal/internal/content"
	"git.home.luguber.info/inful/docportal/internal/state"
)

// FingerprintResolver dates a page by the first build that saw its current content
// fingerprint. Changes are buffered until Commit.
type FingerprintResolver struct {
	store state.Store
	now   func() time.Time

	mu      sync.Mutex
	pending []state.Record
}

// FingerprintOption configures a FingerprintResolver.
type FingerprintOption func(*FingerprintResolver)

// WithClock overrides the time source.
func WithClock(now func() time.Time) FingerprintOption {
	return func(r *FingerprintResolver) { r.now = now }
}

// NewFingerprintResolver returns a resolver backed by store.
func NewFingerprintResolver(store state.Store, opts ...FingerprintOption) *FingerprintResolver {
	r := &FingerprintResolver{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the stored time when the fingerprint is unchanged, otherwise the
// current time.
func (r *FingerprintResolver) Resolve(ctx context.Context, page content.Page) (time.Time, error) {
	if page.Fingerprint == "" {
		return time.Time{}, nil
	}
	rec, ok, err := r.store.Get(ctx, page.URL)
	if err != nil {
		return time.Time{}, err
	}
	if ok && rec.Fingerprint == page.Fingerprint && rec.Source == page.Source {
		return rec.LastMod, nil
	}

	t := r.now().UTC()
	r.mu.Lock()
	r.pending = append(r.pending, state.Record{URL: page.URL, Source: page.Source, Fingerprint: page.Fingerprint, LastMod: t})
	r.mu.Unlock()
	return t, nil
}

// Pending returns the records that changed since the last Commit.
func (r *FingerprintResolver) Pending() []state.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]state.Record(nil), r.pending...)
}

// Commit persists pending changes and returns how many records were written.
func (r *FingerprintResolver) Commit(ctx context.Context) (int, error) {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	if len(pending) == 0 {
		return 0, nil
	}
	if err := r.store.PutAll(ctx, pending); err != nil {
		r.mu.Lock()
		r.pending = append(pending, r.pending...)
		r.mu.Unlock()
		return 0, err
	}
	return len(pending), nil
}
