// Package linkcheck verifies that internal links on rendered pages resolve to
// known routes or static assets.
package linkcheck

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
)

// Link is a link found in HTML.
type Link struct {
	URL        string // raw attribute value
	Path       string // site path for internal links
	Text       string
	Tag        string
	Attribute  string
	IsInternal bool
}

// Extract returns the links of a, img and link elements in document order. Links
// are internal when relative or on the same host as siteURL.
func Extract(r io.Reader, siteURL string) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryLinks, "failed to parse HTML").Build()
	}
	site, err := url.Parse(siteURL)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryLinks, "invalid site URL").WithContext("site_url", siteURL).Build()
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if l, ok := elementLink(n, site); ok {
				links = append(links, l)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func elementLink(n *html.Node, site *url.URL) (Link, bool) {
	var attr, text string
	switch n.Data {
	case "a":
		attr, text = "href", extractText(n)
	case "img":
		attr, text = "src", getAttr(n, "alt")
	case "link":
		attr, text = "href", getAttr(n, "rel")
	default:
		return Link{}, false
	}
	raw := strings.TrimSpace(getAttr(n, attr))
	if raw == "" {
		return Link{}, false
	}
	l := Link{URL: raw, Text: text, Tag: n.Data, Attribute: attr}
	l.Path, l.IsInternal = internalPath(raw, site)
	return l, true
}

func internalPath(raw string, site *url.URL) (string, bool) {
	if strings.HasPrefix(raw, "#") {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	switch u.Scheme {
	case "":
	case "http", "https":
		if site == nil || !strings.EqualFold(u.Host, site.Host) {
			return "", false
		}
	default:
		return "", false // mailto:, tel:, javascript:, data:
	}
	if u.Host != "" && u.Scheme == "" {
		return "", false // protocol-relative
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p, true
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
