package lastmod

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docportal/internal/content"
	"git.home.luguber.info/inful/docportal/internal/state"
)

func commitFile(t *testing.T, repo *git.Repository, root, rel, body string, when time.Time) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(rel)
	require.NoError(t, err)
	_, err = wt.Commit("update "+rel, &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: when},
	})
	require.NoError(t, err)
}

func TestGitResolver_LastCommitTouchingFile(t *testing.T) {
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)

	first := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	second := time.Date(2024, 2, 20, 9, 0, 0, 0, time.UTC)
	commitFile(t, repo, root, "docs/intro.md", "# Intro\n", first)
	commitFile(t, repo, root, "docs/standards.md", "# Standards\n", second)

	resolver, err := NewGitResolver(filepath.Join(root, "docs"))
	require.NoError(t, err)

	got, err := resolver.Resolve(t.Context(), content.Page{URL: "/intro/", Source: "intro.md"})
	require.NoError(t, err)
	assert.True(t, first.Equal(got), "got %s", got)

	got, err = resolver.Resolve(t.Context(), content.Page{URL: "/standards/", Source: "standards.md"})
	require.NoError(t, err)
	assert.True(t, second.Equal(got), "got %s", got)

	got, err = resolver.Resolve(t.Context(), content.Page{URL: "/tags/"})
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = resolver.Resolve(t.Context(), content.Page{URL: "/new/", Source: "uncommitted.md"})
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestNewGitResolver_NotARepository(t *testing.T) {
	_, err := NewGitResolver(t.TempDir())
	require.Error(t, err)
}

func TestFingerprintResolver_TracksChanges(t *testing.T) {
	store, err := state.NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	resolver := NewFingerprintResolver(store, WithClock(func() time.Time { return clock }))
	ctx := t.Context()
	page := content.Page{URL: "/intro/", Source: "intro.md", Fingerprint: "fp-1"}

	got, err := resolver.Resolve(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, clock, got)
	require.Len(t, resolver.Pending(), 1)

	n, err := resolver.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, resolver.Pending())

	// unchanged content keeps the first-seen time
	clock = clock.Add(72 * time.Hour)
	got, err = resolver.Resolve(ctx, page)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Empty(t, resolver.Pending())

	// changed content is dated now
	page.Fingerprint = "fp-2"
	got, err = resolver.Resolve(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, clock, got)

	got, err = resolver.Resolve(ctx, content.Page{URL: "/page/2/"})
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestChain_FirstKnownWins(t *testing.T) {
	known := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	failing := ResolverFunc(func(context.Context, content.Page) (time.Time, error) {
		return time.Time{}, errors.New("boom")
	})
	unknown := ResolverFunc(func(context.Context, content.Page) (time.Time, error) { return time.Time{}, nil })
	fixed := ResolverFunc(func(context.Context, content.Page) (time.Time, error) { return known, nil })

	got, err := Chain{failing, unknown, fixed}.Resolve(t.Context(), content.Page{URL: "/a/"})
	require.NoError(t, err)
	assert.Equal(t, known, got)

	got, err = Chain{unknown}.Resolve(t.Context(), content.Page{URL: "/a/"})
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
