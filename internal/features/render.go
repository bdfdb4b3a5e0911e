package features

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// VisualCard is the presentation of one descriptor.
type VisualCard struct {
	Key     string
	Link    Link
	Icon    *IconVisual // nil when the descriptor has no icon
	Heading Heading
	Body    template.HTML
	Style   StyleSet
}

// Link is the navigable wrapper around a card.
type Link struct {
	Href string
}

// IconVisual is the tinted icon of a card. Src is the descriptor icon reference, untouched.
type IconVisual struct {
	Src   string
	ID    string
	Class string
	Role  string
	Fill  string
	Color string
}

// Heading is the card title.
type Heading struct {
	Level int
	Text  string
	Color string
}

// Renderer maps registries to cards. It holds no per-call state and is safe for concurrent use.
type Renderer struct {
	md    goldmark.Markdown
	style StyleOptions
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyle sets the style derivation options.
func WithStyle(opts StyleOptions) Option {
	return func(r *Renderer) { r.style = opts }
}

// NewRenderer creates a Renderer. Descriptions are rendered as GitHub-flavored Markdown
// with raw HTML omitted.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render returns one card per descriptor in registry order.
func Render(reg Registry) []VisualCard {
	return NewRenderer().Render(reg)
}

// Render returns one card per descriptor in registry order. Duplicate ids and
// malformed urls pass through unchanged.
func (r *Renderer) Render(reg Registry) []VisualCard {
	cards := make([]VisualCard, 0, reg.Len())
	for _, d := range reg.items {
		cards = append(cards, r.card(d))
	}
	return cards
}

func (r *Renderer) card(d ContentDescriptor) VisualCard {
	style := StyleFor(d, r.style)
	c := VisualCard{
		Key:     d.ID,
		Link:    Link{Href: d.URL},
		Heading: Heading{Level: 3, Text: d.Title, Color: style.HeadingColor},
		Body:    r.markup(d.Description),
		Style:   style,
	}
	if d.Icon != "" {
		c.Icon = &IconVisual{
			Src:   d.Icon,
			ID:    d.ID,
			Class: "featureSvg",
			Role:  "img",
			Fill:  style.IconFill,
			Color: style.IconColor,
		}
	}
	return c
}

// markup converts a description fragment to inline HTML. A single paragraph is
// unwrapped so the card template controls the enclosing element.
func (r *Renderer) markup(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src)) // #nosec G203 -- escaped above
	}
	out := strings.TrimSpace(buf.String())
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") && strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return template.HTML(out) // #nosec G203 -- goldmark output with raw HTML disabled
}
