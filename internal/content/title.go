package content

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// firstHeading returns the text of the first level-1 heading, or "".
func firstHeading(md goldmark.Markdown, body []byte) string {
	root := md.Parser().Parse(text.NewReader(body))

	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok || h.Level != 1 {
			return gmast.WalkContinue, nil
		}
		title = strings.TrimSpace(string(nodeText(h, body)))
		return gmast.WalkStop, nil
	})
	return title
}

func nodeText(n gmast.Node, source []byte) []byte {
	var out []byte
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *gmast.Text:
			out = append(out, t.Segment.Value(source)...)
			if t.SoftLineBreak() {
				out = append(out, ' ')
			}
		case *gmast.String:
			out = append(out, t.Value...)
		default:
			out = append(out, nodeText(c, source)...)
		}
	}
	return out
}

// titleFromName turns a file name such as 02-getting_started into "Getting Started".
func titleFromName(name string) string {
	name = numberPrefix.ReplaceAllString(name, "")
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(strings.TrimSpace(name))
}
