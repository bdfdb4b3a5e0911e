package homepage

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/docportal/internal/features"
	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html.tmpl").
	Funcs(template.FuncMap{"join": strings.Join}).
	ParseFS(templateFS, "templates/*.html.tmpl"))

// Renderer renders the landing page.
type Renderer struct {
	cards   *features.Renderer
	inliner features.IconInliner
	now     func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFeatureRenderer sets the card renderer.
func WithFeatureRenderer(r *features.Renderer) Option {
	return func(h *Renderer) { h.cards = r }
}

// WithIconInliner inlines feature icons instead of referencing them.
func WithIconInliner(i features.IconInliner) Option {
	return func(h *Renderer) { h.inliner = i }
}

// WithClock overrides the time used for the copyright year.
func WithClock(now func() time.Time) Option {
	return func(h *Renderer) { h.now = now }
}

// NewRenderer returns a Renderer with the default feature renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{cards: features.NewRenderer(), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes the landing page for site with the features of reg in registry order.
func (r *Renderer) Render(w io.Writer, site Site, reg features.Registry) error {
	var section bytes.Buffer
	if err := features.RenderSection(&section, r.cards.Render(reg), r.inliner); err != nil {
		return errors.WrapError(err, errors.CategoryRender, "failed to render features section").Build()
	}

	if site.Lang == "" {
		site.Lang = "en"
	}
	if site.ColorMode.Default == "" {
		site.ColorMode.Default = "light"
	}
	copyright := strings.ReplaceAll(site.Footer.Copyright, "{year}", strconv.Itoa(r.now().Year()))

	data := pageData{
		Site: site,
		// #nosec G203 -- copyright is operator configuration and may carry markup
		Copyright: template.HTML(copyright),
		// #nosec G203 -- produced by html/template
		Features: template.HTML(section.String()),
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		return errors.WrapError(err, errors.CategoryRender, "failed to render homepage").Build()
	}
	return nil
}
