package build

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/logfields"
)

// stagePrepareOutput empties the output directory when configured and copies the
// static assets into it.
func (g *Generator) stagePrepareOutput(ctx context.Context, bs *BuildState) error {
	out := bs.OutputDir
	if g.cfg.Output.Clean {
		if err := cleanDir(out); err != nil {
			return newFatalStageError(StagePrepareOutput, errors.WrapError(err, errors.CategoryFileSystem, "failed to clean output directory").
				WithContext("path", out).Build())
		}
	}
	if err := os.MkdirAll(out, 0o750); err != nil {
		return newFatalStageError(StagePrepareOutput, errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", out).Build())
	}

	static := g.cfg.Docs.StaticDir
	info, err := os.Stat(static)
	if err != nil || !info.IsDir() {
		slog.DebugContext(ctx, "No static directory", logfields.Path(static))
		return nil
	}
	n, err := copyTree(ctx, static, out)
	if err != nil {
		if ctx.Err() != nil {
			return newCanceledStageError(StagePrepareOutput, ctx.Err())
		}
		return newFatalStageError(StagePrepareOutput, errors.WrapError(err, errors.CategoryFileSystem, "failed to copy static assets").
			WithContext("path", static).Build())
	}
	slog.DebugContext(ctx, "Copied static assets", logfields.Count(n))
	return nil
}

// cleanDir removes the contents of dir, keeping dir itself so servers holding it
// keep working.
func cleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// copyTree copies the regular files under src into dst, skipping dot files, and
// returns how many were copied.
func copyTree(ctx context.Context, src, dst string) (int, error) {
	count := 0
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p != src && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := copyFile(p, target); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

func copyFile(src, dst string) error {
	// #nosec G304 -- src comes from walking the configured static dir
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	// #nosec G302 G304 -- static assets are published content
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// assetExists reports whether a site path names a file in the output directory.
func assetExists(outputDir, baseURL string) func(string) bool {
	return func(sitePath string) bool {
		rel := strings.TrimPrefix(sitePath, strings.TrimSuffix(baseURL, "/"))
		rel = strings.TrimPrefix(rel, "/")
		if rel == "" || !filepath.IsLocal(filepath.FromSlash(rel)) {
			return false
		}
		info, err := os.Stat(filepath.Join(outputDir, filepath.FromSlash(rel)))
		return err == nil && info.Mode().IsRegular()
	}
}
