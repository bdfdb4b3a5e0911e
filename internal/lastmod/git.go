package lastmod

import (
	"context"
	stderrors "errors"
	"io"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/docportal/internal/content"
	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
)

// GitResolver uses the committer time of the last commit touching a page's source.
type GitResolver struct {
	repo   *git.Repository
	prefix string // docs dir relative to the worktree root, slash-separated

	mu    sync.Mutex
	cache map[string]time.Time
}

// NewGitResolver opens the repository containing docsDir.
func NewGitResolver(docsDir string) (*GitResolver, error) {
	abs, err := filepath.Abs(docsDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve docs dir").Build()
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "docs dir is not inside a git repository").
			WithContext("path", docsDir).Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "open worktree").Build()
	}
	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		root = wt.Filesystem.Root()
	}
	if resolved, evalErr := filepath.EvalSymlinks(abs); evalErr == nil {
		abs = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGit, "docs dir outside worktree").Build()
	}
	prefix := filepath.ToSlash(rel)
	if prefix == "." {
		prefix = ""
	}
	return &GitResolver{repo: repo, prefix: prefix, cache: make(map[string]time.Time)}, nil
}

// Resolve returns the time of the most recent commit touching the page source.
// Generated pages and uncommitted files resolve to zero.
func (g *GitResolver) Resolve(ctx context.Context, page content.Page) (time.Time, error) {
	if page.Source == "" {
		return time.Time{}, nil
	}
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	file := strings.TrimPrefix(path.Join(g.prefix, page.Source), "/")

	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.cache[file]; ok {
		return t, nil
	}

	head, err := g.repo.Head()
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, errors.WrapError(err, errors.CategoryGit, "resolve HEAD").Build()
	}
	iter, err := g.repo.Log(&git.LogOptions{From: head.Hash(), FileName: &file})
	if err != nil {
		return time.Time{}, errors.WrapError(err, errors.CategoryGit, "read git log").WithContext("path", file).Build()
	}
	defer iter.Close()

	c, err := iter.Next()
	if stderrors.Is(err, io.EOF) {
		g.cache[file] = time.Time{}
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, errors.WrapError(err, errors.CategoryGit, "walk git log").WithContext("path", file).Build()
	}
	t := c.Committer.When.UTC()
	g.cache[file] = t
	return t, nil
}
