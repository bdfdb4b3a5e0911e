package commands

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docportal/internal/build"
	"git.home.luguber.info/inful/docportal/internal/config"
	"git.home.luguber.info/inful/docportal/internal/eventstore"
	ferrors "git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/sitemap"
)

const svgIcon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><path d="M0 0h10v10H0z"/></svg>`

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
}

// newProject lays out docs and static assets and returns a validated config
// pointing at them.
func newProject(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"docs/intro.md":                "---\ntitle: Intro\ntags: [community]\n---\n# Intro\n",
		"docs/guides/setup.md":         "# Setup\n",
		"static/img/partner-place.svg": svgIcon,
		"static/img/open-place.svg":    svgIcon,
		"static/img/standards.svg":     svgIcon,
		"static/img/logo.svg":          svgIcon,
		"static/img/favicon.ico":       "ico",
	})
	cfg := config.Example()
	cfg.Docs.Dir = filepath.Join(root, "docs")
	cfg.Docs.StaticDir = filepath.Join(root, "static")
	cfg.Output.Directory = filepath.Join(root, "build")
	cfg.State.Directory = filepath.Join(root, "state")
	require.NoError(t, config.ApplyDefaults(cfg))
	require.NoError(t, config.ValidateConfig(cfg))
	return cfg
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site", "docportal.yaml")
	require.NoError(t, RunInit(path, false))

	cfg, err := config.Load(t.Context(), path, config.WithEnvFiles())
	require.NoError(t, err)
	assert.Equal(t, config.Example().Site.Title, cfg.Site.Title)
	assert.Equal(t, 3, cfg.Registry().Len())

	err = RunInit(path, false)
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryConfig, ferrors.GetCategory(err))

	require.NoError(t, RunInit(path, true))
}

func TestRunValidate(t *testing.T) {
	cfg := newProject(t)

	var out bytes.Buffer
	require.NoError(t, RunValidate(t.Context(), &out, cfg, true))
	assert.Contains(t, out.String(), "Configuration valid: 3 feature(s)")
	assert.Contains(t, out.String(), "Content: 2 doc(s)")
}

func TestRunValidate_MissingDocs(t *testing.T) {
	cfg := newProject(t)
	cfg.Docs.Dir = filepath.Join(t.TempDir(), "nope")

	var out bytes.Buffer
	require.NoError(t, RunValidate(t.Context(), &out, cfg, false))
	require.Error(t, RunValidate(t.Context(), &out, cfg, true))
}

func TestRunBuild(t *testing.T) {
	cfg := newProject(t)

	var out bytes.Buffer
	require.NoError(t, RunBuild(t.Context(), &out, cfg, build.Request{Trigger: build.TriggerCLI}, true))

	report, err := build.LoadReport(cfg.Output.Directory)
	require.NoError(t, err)
	assert.Equal(t, build.OutcomeSuccess, report.Outcome)
	assert.Contains(t, out.String(), "build="+report.BuildID)
	assert.FileExists(t, filepath.Join(cfg.Output.Directory, "index.html"))
	assert.FileExists(t, filepath.Join(cfg.Output.Directory, "sitemap.xml"))
	assert.FileExists(t, filepath.Join(cfg.State.Directory, StateDBFile))
	assert.FileExists(t, filepath.Join(cfg.State.Directory, EventsDBFile))
}

func TestRunBuild_StrictFailsOnWarnings(t *testing.T) {
	cfg := newProject(t)
	cfg.Features[1].URL = "/missing/"
	cfg.Links.OnBrokenLinks = "warn"

	var out bytes.Buffer
	req := build.Request{Trigger: build.TriggerCLI}
	require.NoError(t, RunBuild(t.Context(), &out, cfg, req, false))
	assert.Contains(t, out.String(), "broken link:")

	out.Reset()
	err := RunBuild(t.Context(), &out, cfg, req, true)
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryBuild, ferrors.GetCategory(err))
}

func TestRunBuild_BrokenLinksFail(t *testing.T) {
	cfg := newProject(t)
	cfg.Features[0].URL = "/missing/"

	var out bytes.Buffer
	err := RunBuild(t.Context(), &out, cfg, build.Request{Trigger: build.TriggerCLI}, false)
	require.Error(t, err)
	assert.Contains(t, out.String(), "outcome=failed")
}

func TestRunHistory(t *testing.T) {
	cfg := newProject(t)

	var out bytes.Buffer
	require.NoError(t, RunHistory(t.Context(), &out, cfg, 10, false))
	assert.Equal(t, "No builds recorded\n", out.String())

	require.NoError(t, RunBuild(t.Context(), &bytes.Buffer{}, cfg, build.Request{Trigger: build.TriggerCLI}, false))
	report, err := build.LoadReport(cfg.Output.Directory)
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, RunHistory(t.Context(), &out, cfg, 10, false))
	assert.Contains(t, out.String(), "BUILD")
	assert.Contains(t, out.String(), report.BuildID)

	out.Reset()
	require.NoError(t, RunHistory(t.Context(), &out, cfg, 10, true))
	var builds []eventstore.BuildSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &builds))
	require.Len(t, builds, 1)
	assert.Equal(t, report.BuildID, builds[0].BuildID)
	assert.Equal(t, build.TriggerCLI, builds[0].Trigger)
}

func TestRunFeatures(t *testing.T) {
	cfg := newProject(t)

	var plain bytes.Buffer
	require.NoError(t, RunFeatures(&plain, cfg, false))
	assert.Contains(t, plain.String(), `data-feature="partner-place"`)
	assert.Contains(t, plain.String(), `<img src=`)

	var inlined bytes.Buffer
	require.NoError(t, RunFeatures(&inlined, cfg, true))
	assert.Contains(t, inlined.String(), "<svg")
	assert.Equal(t, 3, strings.Count(inlined.String(), "data-feature="))
}

func TestRunSitemap(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sitemap.xml")
	_, err := sitemap.WriteFile(src, []sitemap.Artifact{
		{URL: "https://example.com/", Priority: -1},
		{URL: "https://example.com/intro/", Priority: -1},
		{URL: "https://example.com/page/2/", Priority: -1},
		{URL: "https://example.com/tags/community/", Priority: -1},
	}, sitemap.WriteOptions{Lastmod: sitemap.LastmodNone})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, RunSitemap(t.Context(), &out, SitemapCmd{File: src, Exclude: []string{"/page/"}}))
	items, err := sitemap.Read(&out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com/",
		"https://example.com/intro/",
		"https://example.com/tags/community/",
	}, sitemap.URLs(items))

	dst := filepath.Join(dir, "filtered.xml")
	require.NoError(t, RunSitemap(t.Context(), &out, SitemapCmd{
		File:    src,
		Exclude: []string{"/page/"},
		Ignore:  []string{"/tags/**"},
		Out:     dst,
		Gzip:    true,
	}))
	items, err = sitemap.ReadFile(dst + ".gz")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/", "https://example.com/intro/"}, sitemap.URLs(items))
}

func TestRunSitemap_KeepsRecordsVerbatim(t *testing.T) {
	src := filepath.Join(t.TempDir(), "sitemap.xml")
	body := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:image="http://www.google.com/schemas/sitemap-image/1.1">
  <url><loc>https://example.com/a/</loc><lastmod>2024-03-05T23:30:00-05:00</lastmod><priority>0.25</priority><image:image><image:loc>https://example.com/a.png</image:loc></image:image></url>
  <url><loc>https://example.com/page/2/</loc></url>
</urlset>
`
	require.NoError(t, os.WriteFile(src, []byte(body), 0o600))

	var out bytes.Buffer
	require.NoError(t, RunSitemap(t.Context(), &out, SitemapCmd{File: src, Exclude: []string{"/page/"}}))
	assert.Contains(t, out.String(), `xmlns:image="http://www.google.com/schemas/sitemap-image/1.1"`)
	assert.Contains(t, out.String(), "<priority>0.25</priority>")
	assert.Contains(t, out.String(), "<lastmod>2024-03-05T23:30:00-05:00</lastmod>")
	assert.Contains(t, out.String(), "<image:image><image:loc>https://example.com/a.png</image:loc></image:image>")
	assert.NotContains(t, out.String(), "/page/2/")
}

func TestRunSitemap_GzipNeedsOut(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sitemap.xml")
	_, err := sitemap.WriteFile(src, nil, sitemap.WriteOptions{})
	require.NoError(t, err)

	err = RunSitemap(t.Context(), &bytes.Buffer{}, SitemapCmd{File: src, Gzip: true})
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryValidation, ferrors.GetCategory(err))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		env     string
		verbose bool
		want    slog.Level
	}{
		{"", false, slog.LevelInfo},
		{"", true, slog.LevelDebug},
		{"error", true, slog.LevelDebug},
		{"DEBUG", false, slog.LevelDebug},
		{"warning", false, slog.LevelWarn},
		{"error", false, slog.LevelError},
		{"bogus", false, slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(LogLevelEnv, tt.env)
			assert.Equal(t, tt.want, parseLogLevel(tt.verbose))
		})
	}
}
