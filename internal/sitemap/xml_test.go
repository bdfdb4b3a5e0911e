package sitemap

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_ProducesUrlset(t *testing.T) {
	mod := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	in := []Artifact{
		{URL: "https://docs.example.com/intro/", LastMod: mod, ChangeFreq: ChangeFreqWeekly, Priority: 0.5},
		{URL: "https://docs.example.com/standards/", ChangeFreq: ChangeFreqWeekly, Priority: -1},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in, WriteOptions{Lastmod: LastmodDate}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, out, "<loc>https://docs.example.com/intro/</loc>")
	assert.Contains(t, out, "<lastmod>2024-03-05</lastmod>")
	assert.Contains(t, out, "<changefreq>weekly</changefreq>")
	assert.Contains(t, out, "<priority>0.5</priority>")
	assert.Equal(t, 1, strings.Count(out, "<priority>"))
	assert.Less(t, strings.Index(out, "/intro/"), strings.Index(out, "/standards/"))
}

func TestWrite_LastmodModes(t *testing.T) {
	mod := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	in := []Artifact{{URL: "/a/", LastMod: mod, Priority: -1}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in, WriteOptions{Lastmod: LastmodDateTime}))
	assert.Contains(t, buf.String(), "<lastmod>2024-03-05T14:30:00Z</lastmod>")

	buf.Reset()
	require.NoError(t, Write(&buf, in, WriteOptions{Lastmod: LastmodNone}))
	assert.NotContains(t, buf.String(), "lastmod")
}

func TestWriteFileAndReadFile_WithGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitemap.xml")
	mod := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	in := []Artifact{
		{URL: "https://docs.example.com/intro/", LastMod: mod, ChangeFreq: ChangeFreqWeekly, Priority: 0.5},
		{URL: "https://docs.example.com/page/2/", ChangeFreq: ChangeFreqWeekly, Priority: -1},
	}

	written, err := WriteFile(path, in, WriteOptions{Lastmod: LastmodDate, Gzip: true})
	require.NoError(t, err)
	assert.Equal(t, []string{path, path + ".gz"}, written)

	for _, p := range written {
		got, err := ReadFile(p)
		require.NoError(t, err, p)
		assert.Equal(t, in, got, p)
	}
}

func TestRead_RejectsGarbage(t *testing.T) {
	_, err := Read(strings.NewReader("not xml"))
	require.Error(t, err)

	_, err = Read(strings.NewReader(`<urlset><url><loc>/a/</loc><priority>high</priority></url></urlset>`))
	require.Error(t, err)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.xml"))
	require.Error(t, err)
}

func TestWrite_KeepsPriorityPrecisionAndLocalDate(t *testing.T) {
	east := time.FixedZone("UTC+9", 9*60*60)
	in := []Artifact{
		{URL: "/a/", LastMod: time.Date(2024, 3, 6, 1, 0, 0, 0, east), Priority: 0.25},
		{URL: "/b/", Priority: 0.75},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in, WriteOptions{Lastmod: LastmodDate}))
	assert.Contains(t, buf.String(), "<priority>0.25</priority>")
	assert.Contains(t, buf.String(), "<priority>0.75</priority>")
	assert.Contains(t, buf.String(), "<lastmod>2024-03-06</lastmod>")

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got[0].Priority, 1e-9)
	assert.InDelta(t, 0.75, got[1].Priority, 1e-9)
}

const extendedSitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:image="http://www.google.com/schemas/sitemap-image/1.1" xmlns:xhtml="http://www.w3.org/1999/xhtml">
  <url>
    <loc>https://docs.example.com/intro/</loc>
    <lastmod>2024-03-05T23:30:00-05:00</lastmod>
    <priority>0.25</priority>
    <image:image><image:loc>https://docs.example.com/img/intro.png</image:loc></image:image>
    <xhtml:link rel="alternate" hreflang="de" href="https://docs.example.com/de/intro/"/>
  </url>
  <url>
    <loc>https://docs.example.com/page/2/</loc>
  </url>
  <url>
    <loc>https://docs.example.com/standards/</loc>
    <priority>0.75</priority>
  </url>
</urlset>
`

func TestDocument_FilterKeepsRecordsVerbatim(t *testing.T) {
	doc, err := ReadDocument(strings.NewReader(extendedSitemap))
	require.NoError(t, err)

	items := doc.Artifacts()
	require.Len(t, items, 3)
	assert.Equal(t, "https://docs.example.com/intro/", items[0].URL)
	assert.InDelta(t, 0.25, items[0].Priority, 1e-9)

	var buf bytes.Buffer
	require.NoError(t, doc.Write(&buf, Filter(items, ""), WriteOptions{}))
	assert.Equal(t, extendedSitemap, buf.String())

	buf.Reset()
	require.NoError(t, doc.Write(&buf, Filter(items, "/page/"), WriteOptions{}))
	out := buf.String()
	assert.NotContains(t, out, "/page/2/")
	assert.Contains(t, out, `<image:image><image:loc>https://docs.example.com/img/intro.png</image:loc></image:image>`)
	assert.Contains(t, out, `<xhtml:link rel="alternate" hreflang="de" href="https://docs.example.com/de/intro/"/>`)
	assert.Contains(t, out, "<lastmod>2024-03-05T23:30:00-05:00</lastmod>")
	assert.Contains(t, out, "<priority>0.75</priority>")

	kept, err := Read(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://docs.example.com/intro/", "https://docs.example.com/standards/"}, URLs(kept))
}

func TestDocument_EncodesForeignArtifacts(t *testing.T) {
	doc, err := ReadDocument(strings.NewReader(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"></urlset>`))
	require.NoError(t, err)
	assert.Empty(t, doc.Artifacts())

	var buf bytes.Buffer
	require.NoError(t, doc.Write(&buf, []Artifact{{URL: "https://docs.example.com/new/", Priority: 0.5}}, WriteOptions{}))
	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://docs.example.com/new/"}, URLs(got))
}

func TestReadDocument_RejectsNonSitemap(t *testing.T) {
	_, err := ReadDocument(strings.NewReader(`<sitemapindex></sitemapindex>`))
	require.Error(t, err)
	_, err = ReadDocument(strings.NewReader(`<urlset><url><loc>/a/</loc><priority>high</priority></url></urlset>`))
	require.Error(t, err)
}
