package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
)

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	return dir
}

func urls(pages []Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.URL
	}
	return out
}

func TestDiscover_RoutesTitlesAndSkips(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"intro.md":                 "---\ntitle: Welcome\ntags: [community]\n---\nHello\n",
		"standards/intro.md":       "# Coding Standards\n\nText\n",
		"standards/02-naming.md":   "Body without heading\n",
		"standards/draft.md":       "---\ndraft: true\n---\n# Draft\n",
		"standards/_partial.md":    "# Partial\n",
		"_snippets/shared.md":      "# Shared\n",
		"partners/index.mdx":       "---\ntags: [partners, community]\nunlisted: true\n---\n# Partners\n",
		"partners/hidden.md":       "---\nsitemap_exclude: true\n---\n# Hidden\n",
		"partners/image.png":       "not markdown",
		".github/README.md":        "# ignored\n",
	})

	corpus, err := Discover(t.Context(), Options{
		DocsDir: dir,
		Router:  Router{BasePath: "/", TrailingSlash: true},
		Tags:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"/intro/", "/partners/", "/partners/hidden/", "/standards/intro/", "/standards/naming/"}, urls(corpus.Docs))

	byURL := map[string]Page{}
	for _, p := range corpus.Docs {
		byURL[p.URL] = p
	}
	assert.Equal(t, "Welcome", byURL["/intro/"].Title)
	assert.Equal(t, "Coding Standards", byURL["/standards/intro/"].Title)
	assert.Equal(t, "Naming", byURL["/standards/naming/"].Title)
	assert.Equal(t, "standards/02-naming.md", byURL["/standards/naming/"].Source)
	assert.True(t, byURL["/partners/"].Unlisted)
	assert.False(t, byURL["/partners/"].InSitemap())
	assert.False(t, byURL["/partners/hidden/"].InSitemap())
	assert.True(t, byURL["/intro/"].InSitemap())
	assert.NotEmpty(t, byURL["/intro/"].Fingerprint)

	// unlisted docs do not contribute tags
	assert.Equal(t, []string{"/tags/", "/tags/community/"}, urls(corpus.Listings))
}

func TestDiscover_IncludeDrafts(t *testing.T) {
	dir := writeDocs(t, map[string]string{"wip.md": "---\ndraft: true\n---\n# WIP\n"})

	corpus, err := Discover(t.Context(), Options{DocsDir: dir, Router: Router{TrailingSlash: true}, IncludeDrafts: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"/wip/"}, urls(corpus.Docs))
}

func TestDiscover_Pagination(t *testing.T) {
	files := map[string]string{}
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		files[n+".md"] = "# " + n + "\n"
	}
	dir := writeDocs(t, files)

	corpus, err := Discover(t.Context(), Options{DocsDir: dir, Router: Router{BasePath: "/", TrailingSlash: true}, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"/page/2/", "/page/3/"}, urls(corpus.Listings))
	for _, p := range corpus.Listings {
		assert.Equal(t, KindPagination, p.Kind)
	}
}

func TestDiscover_Routes(t *testing.T) {
	dir := writeDocs(t, map[string]string{"intro.md": "# Intro\n"})
	corpus, err := Discover(t.Context(), Options{DocsDir: dir, Router: Router{TrailingSlash: true}})
	require.NoError(t, err)

	routes := corpus.Routes()
	assert.True(t, routes["/intro/"])
	assert.True(t, routes["/intro"])
	assert.False(t, routes["/missing/"])
}

func TestDiscover_Errors(t *testing.T) {
	_, err := Discover(t.Context(), Options{DocsDir: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryContent))

	dir := writeDocs(t, map[string]string{"bad.md": "---\ntitle: [unclosed\n---\n"})
	_, err = Discover(t.Context(), Options{DocsDir: dir})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryContent))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = Discover(ctx, Options{DocsDir: writeDocs(t, map[string]string{"a.md": "# A\n"})})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDiscover_DuplicateRouteLaterWins(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"a.md": "---\nslug: /same\n---\n# A\n",
		"b.md": "---\nslug: /same\n---\n# B\n",
	})
	corpus, err := Discover(t.Context(), Options{DocsDir: dir, Router: Router{TrailingSlash: true}})
	require.NoError(t, err)
	require.Len(t, corpus.Docs, 1)
	assert.Equal(t, "B", corpus.Docs[0].Title)
}

func TestDiscover_TagsSharingSlugShareOnePage(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"a.md": "---\ntags: [Go, C++]\n---\n# A\n",
		"b.md": "---\ntags: [go, C]\n---\n# B\n",
		"c.md": "---\ntags: ['+++']\n---\n# C\n",
	})

	corpus, err := Discover(t.Context(), Options{
		DocsDir: dir,
		Router:  Router{BasePath: "/", TrailingSlash: true},
		Tags:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"/tags/", "/tags/c/", "/tags/go/"}, urls(corpus.Listings))
	assert.Equal(t, []string{"C", "C++"}, corpus.Listings[1].Tags)
	assert.Equal(t, []string{"Go", "go"}, corpus.Listings[2].Tags)

	routes := corpus.Routes()
	assert.True(t, routes["/tags/go/"])
}
