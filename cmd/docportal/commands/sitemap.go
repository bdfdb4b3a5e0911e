package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	ferrors "git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/logfields"
	"git.home.luguber.info/inful/docportal/internal/sitemap"
)

// SitemapCmd implements the 'sitemap' command.
type SitemapCmd struct {
	File    string   `arg:"" help:"Sitemap file to read (.xml or .xml.gz)" type:"existingfile"`
	Exclude []string `short:"e" help:"Drop URLs containing this substring (repeatable)"`
	Ignore  []string `short:"i" help:"Drop URLs whose path matches this glob (repeatable)"`
	Out     string   `short:"o" help:"Write the filtered sitemap here instead of stdout"`
	Gzip    bool     `help:"Also write <out>.gz"`
}

func (s *SitemapCmd) Run(_ *Global, _ *CLI) error {
	return RunSitemap(context.Background(), os.Stdout, *s)
}

// RunSitemap reads a sitemap, applies the exclusions in order and writes the rest.
// Kept records are copied verbatim.
func RunSitemap(ctx context.Context, stdout io.Writer, s SitemapCmd) error {
	doc, err := sitemap.ReadDocumentFile(s.File)
	if err != nil {
		return err
	}
	before := 0
	read := func(context.Context) ([]sitemap.Artifact, error) {
		items := doc.Artifacts()
		before = len(items)
		return items, nil
	}
	post := make([]sitemap.PostProcessor, 0, len(s.Exclude)+1)
	for _, pattern := range s.Exclude {
		post = append(post, sitemap.ExcludeContaining(pattern))
	}
	if len(s.Ignore) > 0 {
		post = append(post, sitemap.IgnorePatterns(s.Ignore))
	}
	items, err := sitemap.CreateItems(ctx, read, post...)
	if err != nil {
		return err
	}
	slog.Debug("Filtered sitemap", logfields.Path(s.File), logfields.Count(len(items)), slog.Int("removed", before-len(items)))

	opts := sitemap.WriteOptions{Lastmod: sitemap.LastmodDate, Gzip: s.Gzip}
	if s.Out == "" {
		if s.Gzip {
			return ferrors.ValidationError("--gzip requires --out").Build()
		}
		return doc.Write(stdout, items, opts)
	}
	written, err := doc.WriteFile(s.Out, items, opts)
	if err != nil {
		return err
	}
	for _, path := range written {
		slog.Info("Wrote sitemap", logfields.Path(path), logfields.Count(len(items)))
	}
	return nil
}
