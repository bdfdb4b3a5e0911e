package build

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/docportal/internal/config"
	"git.home.luguber.info/inful/docportal/internal/content"
	"git.home.luguber.info/inful/docportal/internal/events"
	"git.home.luguber.info/inful/docportal/internal/lastmod"
	"git.home.luguber.info/inful/docportal/internal/logfields"
	"git.home.luguber.info/inful/docportal/internal/sitemap"
)

// Exclusion reasons reported to metrics and the build report.
const (
	ExcludedUnlisted          = "unlisted"
	ExcludedIgnorePattern     = "ignore_pattern"
	ExcludedExcludeContaining = "exclude_containing"
)

func (g *Generator) stageGenerateSitemap(ctx context.Context, bs *BuildState) error {
	sm := g.cfg.Sitemap
	if !config.BoolValue(sm.Enabled, true) {
		return errSkipped
	}

	post := []sitemap.PostProcessor{g.counting(bs, ExcludedIgnorePattern, sitemap.IgnorePatterns(sm.IgnorePatterns))}
	for _, pattern := range sm.ExcludeContaining {
		post = append(post, g.counting(bs, ExcludedExcludeContaining, sitemap.ExcludeContaining(pattern)))
	}

	items, err := sitemap.CreateItems(ctx, func(ctx context.Context) ([]sitemap.Artifact, error) {
		return g.defaultItems(ctx, bs)
	}, post...)
	if err != nil {
		return err
	}

	written, err := sitemap.WriteFile(filepath.Join(bs.OutputDir, sm.Filename), items,
		sitemap.WriteOptions{Lastmod: sitemap.LastmodMode(sm.Lastmod), Gzip: sm.Gzip})
	for _, p := range written {
		if rel, rerr := filepath.Rel(bs.OutputDir, p); rerr == nil {
			bs.Report.Outputs = append(bs.Report.Outputs, filepath.ToSlash(rel))
		}
	}
	if err != nil {
		return err
	}

	bs.Sitemap = items
	bs.Report.SitemapURLs = len(items)
	g.recorder.SetSitemapURLs(len(items))
	if bs.fingerprints != nil {
		for _, r := range bs.fingerprints.Pending() {
			bs.Report.ChangedURLs = append(bs.Report.ChangedURLs, r.URL)
		}
		slices.Sort(bs.Report.ChangedURLs)
	}
	slog.InfoContext(ctx, "Sitemap written", logfields.Count(len(items)), logfields.Path(written[0]))
	return nil
}

// defaultItems produces one artifact per sitemap-eligible page, preceded by the
// homepage when no document is routed to the site root.
func (g *Generator) defaultItems(ctx context.Context, bs *BuildState) ([]sitemap.Artifact, error) {
	sm := g.cfg.Sitemap
	priority := -1.0
	if sm.Priority != nil {
		priority = *sm.Priority
	}
	freq := sitemap.ChangeFreq(sm.ChangeFreq)
	origin := strings.TrimSuffix(g.cfg.Site.URL, "/")
	withLastmod := sm.Lastmod != string(sitemap.LastmodNone) && config.BoolValue(g.cfg.Docs.ShowLastUpdateTime, true)
	resolvers := lastmod.Chain(g.resolvers)

	pages := bs.Corpus.Pages()
	items := make([]sitemap.Artifact, 0, len(pages)+1)
	if !bs.Corpus.Routes()[g.cfg.Site.BaseURL] {
		items = append(items, sitemap.Artifact{URL: origin + g.cfg.Site.BaseURL, ChangeFreq: freq, Priority: priority})
	}

	unlisted := 0
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !p.InSitemap() {
			unlisted++
			continue
		}
		a := sitemap.Artifact{URL: origin + p.URL, ChangeFreq: freq, Priority: priority, Source: p.Source}
		if p.Kind == content.KindDoc {
			t, err := g.resolveLastmod(ctx, bs, resolvers, p)
			if err != nil {
				return nil, err
			}
			if withLastmod {
				a.LastMod = t
			}
		}
		items = append(items, a)
	}
	if unlisted > 0 {
		g.recorder.AddExcludedURLs(ExcludedUnlisted, unlisted)
		bs.Report.Excluded[ExcludedUnlisted] += unlisted
	}
	return items, nil
}

// resolveLastmod consults the configured resolvers and falls back to the
// fingerprint store. Fingerprints are always tracked so changed pages are known.
func (g *Generator) resolveLastmod(ctx context.Context, bs *BuildState, resolvers lastmod.Chain, p content.Page) (time.Time, error) {
	var tracked time.Time
	if bs.fingerprints != nil {
		t, err := bs.fingerprints.Resolve(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return time.Time{}, ctx.Err()
			}
			slog.WarnContext(ctx, "Fingerprint tracking failed", logfields.URL(p.URL), logfields.Error(err))
		}
		tracked = t
	}
	t, err := resolvers.Resolve(ctx, p)
	if err != nil {
		return time.Time{}, err
	}
	if t.IsZero() {
		t = tracked
	}
	return t, nil
}

// counting wraps a post-processor to record how many artifacts it dropped.
func (g *Generator) counting(bs *BuildState, reason string, pp sitemap.PostProcessor) sitemap.PostProcessor {
	return func(in []sitemap.Artifact) []sitemap.Artifact {
		out := pp(in)
		if dropped := len(in) - len(out); dropped > 0 {
			g.recorder.AddExcludedURLs(reason, dropped)
			bs.Report.Excluded[reason] += dropped
		}
		return out
	}
}

func (g *Generator) stagePersistState(ctx context.Context, bs *BuildState) error {
	if bs.fingerprints == nil {
		return errSkipped
	}
	n, err := bs.fingerprints.Commit(ctx)
	if err != nil {
		return newWarnStageError(StagePersistState, err)
	}
	bs.Report.StateWritten = n

	keep := make([]string, 0, len(bs.Corpus.Docs))
	for _, p := range bs.Corpus.Docs {
		keep = append(keep, p.URL)
	}
	pruned, err := g.state.Prune(ctx, keep)
	if err != nil {
		return newWarnStageError(StagePersistState, err)
	}
	if pruned > 0 {
		slog.InfoContext(ctx, "Pruned stale page state", logfields.Count(pruned))
	}
	return nil
}

func (g *Generator) stagePublishEvents(ctx context.Context, bs *BuildState) error {
	if !g.cfg.Events.Enabled {
		return errSkipped
	}
	bs.Report.deriveOutcome()
	now := g.now()
	n := events.BuildNotification{
		BuildID:     bs.BuildID,
		Outcome:     string(bs.Report.Outcome),
		SiteURL:     g.cfg.SiteURL(),
		Pages:       bs.Report.Docs + bs.Report.Listings,
		SitemapURLs: bs.Report.SitemapURLs,
		ChangedURLs: bs.Report.ChangedURLs,
		DurationMS:  now.Sub(bs.Report.Start).Milliseconds(),
		Timestamp:   now.UTC(),
	}
	if p := g.cfg.SitemapPath(); p != "" {
		n.SitemapURL = strings.TrimSuffix(g.cfg.Site.URL, "/") + p
	}
	if err := g.publisher.Publish(ctx, n); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return newWarnStageError(StagePublishEvents, err)
	}
	slog.DebugContext(ctx, "Published build notification", logfields.Subject(g.cfg.Events.Subject))
	return nil
}
