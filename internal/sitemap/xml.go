package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"

	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
)

// Namespace is the sitemap protocol XML namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// LastmodMode selects how <lastmod> is written.
type LastmodMode string

const (
	LastmodDate     LastmodMode = "date"
	LastmodDateTime LastmodMode = "datetime"
	LastmodNone     LastmodMode = "none"
)

// WriteOptions controls XML serialization.
type WriteOptions struct {
	Lastmod LastmodMode
	Gzip    bool // also write <filename>.gz
}

type urlset struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	XMLName    xml.Name `xml:"url"`
	Loc        string   `xml:"loc"`
	LastMod    string   `xml:"lastmod,omitempty"`
	ChangeFreq string   `xml:"changefreq,omitempty"`
	Priority   string   `xml:"priority,omitempty"`
}

// Write serializes artifacts as a sitemap urlset, in order.
func Write(w io.Writer, artifacts []Artifact, opts WriteOptions) error {
	set := urlset{Xmlns: Namespace, URLs: make([]urlEntry, 0, len(artifacts))}
	for _, a := range artifacts {
		set.URLs = append(set.URLs, entryFor(a, opts))
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return err
	}
	return enc.Close()
}

func entryFor(a Artifact, opts WriteOptions) urlEntry {
	e := urlEntry{Loc: a.URL, ChangeFreq: string(a.ChangeFreq)}
	if !a.LastMod.IsZero() {
		switch opts.Lastmod {
		case LastmodDate:
			e.LastMod = a.LastMod.Format(time.DateOnly)
		case LastmodDateTime:
			e.LastMod = a.LastMod.Format(time.RFC3339)
		}
	}
	if a.Priority >= 0 {
		e.Priority = strconv.FormatFloat(a.Priority, 'f', -1, 64)
	}
	return e
}

// WriteFile writes the sitemap to path (and path+".gz" when requested) and returns
// the written paths.
func WriteFile(path string, artifacts []Artifact, opts WriteOptions) ([]string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, artifacts, opts); err != nil {
		return nil, errors.WrapError(err, errors.CategorySitemap, "failed to encode sitemap").Build()
	}
	return writeOut(path, buf.Bytes(), opts.Gzip)
}

func writeOut(path string, data []byte, compressed bool) ([]string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create sitemap directory").WithContext("path", path).Build()
	}
	// #nosec G306 -- sitemap is public content
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to write sitemap").WithContext("path", path).Build()
	}
	written := []string{path}
	if !compressed {
		return written, nil
	}
	gzPath := path + ".gz"
	if err := writeGzip(gzPath, data); err != nil {
		return written, errors.WrapError(err, errors.CategoryFileSystem, "failed to write compressed sitemap").WithContext("path", gzPath).Build()
	}
	return append(written, gzPath), nil
}

func writeGzip(path string, data []byte) error {
	// #nosec G304 G302 -- path derived from configured output directory
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	zw, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		_ = f.Close()
		return err
	}
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		_ = f.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Read parses a sitemap urlset. Unknown elements are ignored; a missing priority
// reads back as -1.
func Read(r io.Reader) ([]Artifact, error) {
	var set urlset
	if err := xml.NewDecoder(r).Decode(&set); err != nil {
		return nil, errors.WrapError(err, errors.CategorySitemap, "failed to parse sitemap").Build()
	}
	out := make([]Artifact, 0, len(set.URLs))
	for _, e := range set.URLs {
		a, err := e.artifact()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (e urlEntry) artifact() (Artifact, error) {
	a := Artifact{URL: e.Loc, ChangeFreq: ChangeFreq(e.ChangeFreq), Priority: -1}
	if e.LastMod != "" {
		t, err := parseLastmod(e.LastMod)
		if err != nil {
			return Artifact{}, errors.WrapError(err, errors.CategorySitemap, "invalid lastmod").WithContext("loc", e.Loc).Build()
		}
		a.LastMod = t
	}
	if e.Priority != "" {
		p, err := strconv.ParseFloat(e.Priority, 64)
		if err != nil {
			return Artifact{}, errors.WrapError(err, errors.CategorySitemap, "invalid priority").WithContext("loc", e.Loc).Build()
		}
		a.Priority = p
	}
	return a, nil
}

// ReadFile reads a sitemap file, transparently decompressing .gz files.
func ReadFile(path string) ([]Artifact, error) {
	var out []Artifact
	err := withFile(path, func(r io.Reader) error {
		var err error
		out, err = Read(r)
		return err
	})
	return out, err
}

func withFile(path string, fn func(io.Reader) error) error {
	// #nosec G304 -- path supplied by the operator
	f, err := os.Open(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to open sitemap").WithContext("path", path).Build()
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if filepath.Ext(path) == ".gz" {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return errors.WrapError(err, errors.CategorySitemap, "failed to open compressed sitemap").WithContext("path", path).Build()
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}
	return fn(r)
}

func parseLastmod(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized lastmod %q", s)
}
