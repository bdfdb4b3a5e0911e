package build

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docportal/internal/config"
	"git.home.luguber.info/inful/docportal/internal/content"
	"git.home.luguber.info/inful/docportal/internal/features"
	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/homepage"
	"git.home.luguber.info/inful/docportal/internal/linkcheck"
)

func (g *Generator) stageDiscoverContent(ctx context.Context, bs *BuildState) error {
	corpus, err := content.Discover(ctx, content.Options{
		DocsDir:       g.cfg.Docs.Dir,
		Router:        g.cfg.Router(),
		PageSize:      g.cfg.Docs.PageSize,
		Tags:          config.BoolValue(g.cfg.Docs.Tags, true),
		IncludeDrafts: g.cfg.Docs.IncludeDrafts || bs.Request.IncludeDrafts,
	})
	if err != nil {
		return err
	}
	bs.Corpus = corpus
	bs.Report.Docs = len(corpus.Docs)
	bs.Report.Listings = len(corpus.Listings)

	kinds := map[content.Kind]int{
		content.KindDoc:        0,
		content.KindTagIndex:   0,
		content.KindTag:        0,
		content.KindPagination: 0,
	}
	for _, p := range corpus.Pages() {
		kinds[p.Kind]++
	}
	for k, n := range kinds {
		g.recorder.SetPages(string(k), n)
	}

	if len(corpus.Docs) == 0 {
		return newWarnStageError(StageDiscoverContent, errors.ContentError("no documents found").
			WithContext("path", g.cfg.Docs.Dir).Build())
	}
	return nil
}

func (g *Generator) stageRenderHomepage(ctx context.Context, bs *BuildState) error {
	reg := g.cfg.Registry()
	bs.Report.Features = reg.Len()

	opts := []homepage.Option{
		homepage.WithFeatureRenderer(features.NewRenderer(features.WithStyle(g.cfg.StyleOptions()))),
		homepage.WithClock(g.now),
	}
	if config.BoolValue(g.cfg.Theme.InlineIcons, true) {
		opts = append(opts, homepage.WithIconInliner(homepage.SVGInliner{StaticDir: g.cfg.Docs.StaticDir}))
	}

	var buf bytes.Buffer
	if err := homepage.NewRenderer(opts...).Render(&buf, g.cfg.HomepageSite(), reg); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(bs.OutputDir, "index.html")
	// #nosec G306 -- the homepage is public content
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write homepage").WithContext("path", path).Build()
	}
	bs.Homepage = buf.Bytes()
	bs.Report.Outputs = append(bs.Report.Outputs, "index.html")
	return nil
}

func (g *Generator) stageCheckLinks(_ context.Context, bs *BuildState) error {
	policy := g.cfg.LinkPolicy()
	if policy == linkcheck.PolicyIgnore {
		return errSkipped
	}

	links, err := linkcheck.Extract(bytes.NewReader(bs.Homepage), g.cfg.SiteURL())
	if err != nil {
		return err
	}

	routes := bs.Corpus.Routes()
	routes[g.cfg.Site.BaseURL] = true
	if p := g.cfg.SitemapPath(); p != "" {
		routes[p] = true
	}
	checker := linkcheck.Checker{Routes: routes, AssetExists: assetExists(bs.OutputDir, g.cfg.Site.BaseURL)}
	broken := checker.Check(g.cfg.Site.BaseURL, links)

	for _, l := range links {
		if l.IsInternal {
			bs.Report.Links++
		}
	}
	for _, b := range broken {
		bs.Report.BrokenLinks = append(bs.Report.BrokenLinks, b.String())
	}
	g.recorder.SetBrokenLinks(len(broken))

	if err := linkcheck.Apply(policy, broken); err != nil {
		return newFatalStageError(StageCheckLinks, err)
	}
	if len(broken) > 0 {
		return newWarnStageError(StageCheckLinks, fmt.Errorf("%d broken link(s)", len(broken)))
	}
	return nil
}
