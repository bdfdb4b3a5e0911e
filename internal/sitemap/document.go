package sitemap

import (
	"bytes"
	"encoding/xml"
	"io"

	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
)

// Document is a parsed sitemap that remembers its source bytes, so a filtered
// copy keeps the kept <url> records verbatim: extension children (image:image,
// xhtml:link), namespace declarations and the original lastmod and priority text.
type Document struct {
	header  []byte // through the <urlset> start tag
	trailer []byte // from the end of the last record
	items   []Artifact
}

// ReadDocument parses a sitemap urlset keeping each record's source text.
func ReadDocument(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategorySitemap, "failed to read sitemap").Build()
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	doc := &Document{}
	depth := 0
	prevEnd := int64(-1)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapError(err, errors.CategorySitemap, "failed to parse sitemap").Build()
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case depth == 1:
				if t.Name.Local != "urlset" {
					return nil, errors.SitemapError("not a sitemap urlset").WithContext("root", t.Name.Local).Build()
				}
				prevEnd = dec.InputOffset()
				doc.header = data[:prevEnd]
			case depth == 2 && t.Name.Local == "url":
				var e urlEntry
				if err := dec.DecodeElement(&e, &t); err != nil {
					return nil, errors.WrapError(err, errors.CategorySitemap, "failed to parse sitemap").Build()
				}
				depth--
				a, err := e.artifact()
				if err != nil {
					return nil, err
				}
				end := dec.InputOffset()
				a.raw = string(data[prevEnd:end])
				prevEnd = end
				doc.items = append(doc.items, a)
			}
		case xml.EndElement:
			depth--
		}
	}
	if prevEnd < 0 {
		return nil, errors.SitemapError("sitemap has no urlset").Build()
	}
	doc.trailer = data[prevEnd:]
	return doc, nil
}

// ReadDocumentFile reads a sitemap document, transparently decompressing .gz files.
func ReadDocumentFile(path string) (*Document, error) {
	var doc *Document
	err := withFile(path, func(r io.Reader) error {
		var err error
		doc, err = ReadDocument(r)
		return err
	})
	return doc, err
}

// Artifacts returns a copy of the document's records in source order.
func (d *Document) Artifacts() []Artifact {
	return keep(d.items, func(Artifact) bool { return true })
}

// Write writes the document with only the given records. Records read from the
// document are copied verbatim; others are encoded from their fields.
func (d *Document) Write(w io.Writer, artifacts []Artifact, opts WriteOptions) error {
	if _, err := w.Write(d.header); err != nil {
		return err
	}
	for _, a := range artifacts {
		if a.raw != "" {
			if _, err := io.WriteString(w, a.raw); err != nil {
				return err
			}
			continue
		}
		if _, err := io.WriteString(w, "\n  "); err != nil {
			return err
		}
		if err := xml.NewEncoder(w).Encode(entryFor(a, opts)); err != nil {
			return err
		}
	}
	_, err := w.Write(d.trailer)
	return err
}

// WriteFile writes the filtered document to path (and path+".gz" when requested)
// and returns the written paths.
func (d *Document) WriteFile(path string, artifacts []Artifact, opts WriteOptions) ([]string, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf, artifacts, opts); err != nil {
		return nil, errors.WrapError(err, errors.CategorySitemap, "failed to encode sitemap").Build()
	}
	return writeOut(path, buf.Bytes(), opts.Gzip)
}
