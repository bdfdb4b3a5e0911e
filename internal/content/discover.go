package content

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/frontmatter"
	"git.home.luguber.info/inful/docportal/internal/logfields"
)

// Options configures discovery.
type Options struct {
	DocsDir string
	Router  Router

	// PageSize is the number of docs per generated listing page. Zero disables
	// pagination pages.
	PageSize int
	// Tags enables the /tags/ listings.
	Tags bool
	// IncludeDrafts keeps draft documents (preview builds).
	IncludeDrafts bool
}

// Discover walks the docs directory and returns the corpus.
func Discover(ctx context.Context, opts Options) (*Corpus, error) {
	info, err := os.Stat(opts.DocsDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "docs directory not accessible").
			WithContext("path", opts.DocsDir).UserAction().Build()
	}
	if !info.IsDir() {
		return nil, errors.ContentError("docs path is not a directory").WithContext("path", opts.DocsDir).UserAction().Build()
	}

	md := goldmark.New()
	var docs []Page
	seen := make(map[string]string)

	walkErr := filepath.WalkDir(opts.DocsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		name := d.Name()
		if p != opts.DocsDir && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isMarkdown(name) {
			return nil
		}

		rel, err := filepath.Rel(opts.DocsDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		page, keep, err := loadDoc(md, opts, p, rel)
		if err != nil {
			return err
		}
		if !keep {
			slog.Debug("Skipping draft", logfields.Path(rel))
			return nil
		}
		if prev, dup := seen[page.URL]; dup {
			slog.Warn("Duplicate route, later document wins", logfields.URL(page.URL), logfields.Path(rel), slog.String("previous", prev))
			docs = slicesDeleteURL(docs, page.URL)
		}
		seen[page.URL] = rel
		docs = append(docs, page)
		return nil
	})
	if walkErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if _, ok := errors.AsClassified(walkErr); ok {
			return nil, walkErr
		}
		return nil, errors.WrapError(walkErr, errors.CategoryContent, "failed to walk docs directory").
			WithContext("path", opts.DocsDir).Build()
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].URL < docs[j].URL })
	corpus := &Corpus{Docs: docs}
	corpus.Listings = listings(corpus, opts)
	return corpus, nil
}

func loadDoc(md goldmark.Markdown, opts Options, abs, rel string) (Page, bool, error) {
	// #nosec G304 -- path comes from walking the configured docs dir
	raw, err := os.ReadFile(abs)
	if err != nil {
		return Page{}, false, errors.WrapError(err, errors.CategoryFileSystem, "failed to read document").WithContext("path", rel).Build()
	}
	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return Page{}, false, errors.WrapError(err, errors.CategoryContent, "invalid frontmatter").WithContext("path", rel).UserAction().Build()
	}
	if doc.Bool("draft") && !opts.IncludeDrafts {
		return Page{}, false, nil
	}

	fp, err := frontmatter.Fingerprint(doc)
	if err != nil {
		return Page{}, false, errors.WrapError(err, errors.CategoryContent, "failed to fingerprint document").WithContext("path", rel).Build()
	}

	title := doc.String("title")
	if title == "" {
		title = firstHeading(md, doc.Body)
	}
	if title == "" {
		base := path.Base(rel)
		title = titleFromName(strings.TrimSuffix(base, path.Ext(base)))
	}

	return Page{
		URL:            opts.Router.Route(rel, doc.String("slug"), doc.String("id")),
		Kind:           KindDoc,
		Title:          title,
		Source:         rel,
		Tags:           doc.Strings("tags"),
		Unlisted:       doc.Bool("unlisted"),
		SitemapExclude: doc.Bool("sitemap_exclude"),
		Fingerprint:    fp,
	}, true, nil
}

func listings(c *Corpus, opts Options) []Page {
	var out []Page
	if opts.Tags {
		// Tags sharing a slug ("Go", "go") share one page; tags without a slug get none.
		var tagPages []Page
		bySlug := map[string]int{}
		for _, t := range c.Tags() {
			slug := TagSlug(t)
			if slug == "" {
				continue
			}
			if i, ok := bySlug[slug]; ok {
				tagPages[i].Tags = append(tagPages[i].Tags, t)
				continue
			}
			bySlug[slug] = len(tagPages)
			tagPages = append(tagPages, Page{URL: opts.Router.Listing("tags", slug), Kind: KindTag, Title: t, Tags: []string{t}})
		}
		if len(tagPages) > 0 {
			out = append(out, Page{URL: opts.Router.Listing("tags"), Kind: KindTagIndex, Title: "Tags"})
			out = append(out, tagPages...)
		}
	}
	if opts.PageSize > 0 {
		listed := 0
		for _, d := range c.Docs {
			if !d.Unlisted {
				listed++
			}
		}
		total := (listed + opts.PageSize - 1) / opts.PageSize
		for n := 2; n <= total; n++ {
			out = append(out, Page{URL: opts.Router.Listing("page", strconv.Itoa(n)), Kind: KindPagination, Title: "Page " + strconv.Itoa(n)})
		}
	}
	return out
}

func isMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".mdx":
		return true
	}
	return false
}

func slicesDeleteURL(pages []Page, url string) []Page {
	out := pages[:0]
	for _, p := range pages {
		if p.URL != url {
			out = append(out, p)
		}
	}
	return out
}
