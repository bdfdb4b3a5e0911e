package homepage

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/docportal/internal/features"
)

// SVGInliner inlines .svg icons found under StaticDir, applying the card's fill,
// color, id, class and role to the root <svg> element. Scripts, animation
// elements and event handler attributes are stripped.
type SVGInliner struct {
	StaticDir string
}

// Inline returns the tinted SVG markup, or an error when the icon cannot be inlined.
func (s SVGInliner) Inline(icon features.IconVisual) (template.HTML, error) {
	path, err := s.resolve(icon.Src)
	if err != nil {
		return "", err
	}
	// #nosec G304 -- resolve keeps path inside StaticDir
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	parent := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(bytes.NewReader(raw), parent)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", icon.Src, err)
	}
	var root *html.Node
	for _, n := range nodes {
		if root = findSVG(n); root != nil {
			break
		}
	}
	if root == nil {
		return "", fmt.Errorf("%s: no <svg> element", icon.Src)
	}

	sanitize(root)
	setAttr(root, "id", icon.ID)
	setAttr(root, "class", icon.Class)
	setAttr(root, "role", icon.Role)
	setAttr(root, "fill", icon.Fill)
	setAttr(root, "style", "color: "+icon.Color)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", err
	}
	// #nosec G203 -- sanitized above
	return template.HTML(buf.String()), nil
}

func (s SVGInliner) resolve(src string) (string, error) {
	if s.StaticDir == "" || strings.Contains(src, "://") || !strings.EqualFold(filepath.Ext(src), ".svg") {
		return "", fmt.Errorf("icon %q is not a local svg", src)
	}
	rel := filepath.FromSlash(strings.TrimPrefix(src, "/"))
	full := filepath.Join(s.StaticDir, rel)
	within, err := filepath.Rel(s.StaticDir, full)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("icon %q escapes the static dir", src)
	}
	return full, nil
}

func findSVG(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Svg {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findSVG(c); found != nil {
			return found
		}
	}
	return nil
}

// stripped lists elements removed with their subtree. Animation elements can
// rewrite href and event attributes after sanitizing.
var stripped = []string{"script", "foreignobject", "animate", "animatemotion", "animatetransform", "set", "handler"}

func sanitize(n *html.Node) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if strings.HasPrefix(strings.ToLower(a.Key), "on") {
			continue
		}
		if (a.Key == "href" || a.Key == "xlink:href" || (a.Namespace == "xlink" && a.Key == "href")) &&
			strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:") {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && slices.Contains(stripped, strings.ToLower(c.Data)) {
			n.RemoveChild(c)
		} else {
			sanitize(c)
		}
		c = next
	}
}

func setAttr(n *html.Node, key, val string) {
	if val == "" {
		return
	}
	for i := range n.Attr {
		if n.Attr[i].Key == key && n.Attr[i].Namespace == "" {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
