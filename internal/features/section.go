package features

import (
	"html/template"
	"io"
)

var sectionTemplate = template.Must(template.New("features").Parse(`<section class="features">
  <div class="container">
    <div class="row">
{{- range $item := .}}
      <div class="col col--4" data-feature="{{.Card.Key}}"{{with .Card.Style.Background}} style="background-color: color-mix(in srgb, {{.}} 12%, transparent)"{{end}}>
        <a href="{{.Card.Link.Href}}">
{{- with .Card.Icon}}
          <div class="text--center">
{{- if $item.IconHTML}}{{$item.IconHTML}}{{else}}<img src="{{.Src}}" id="{{.ID}}" class="{{.Class}}" role="{{.Role}}" style="color: {{.Color}}" alt="">{{end -}}
          </div>
{{- end}}
          <div class="text--center padding-horiz--md">
            <h3 style="color: {{.Card.Heading.Color}}">{{.Card.Heading.Text}}</h3>
            <p>{{.Card.Body}}</p>
          </div>
        </a>
      </div>
{{- end}}
    </div>
  </div>
</section>
`))

// IconInliner turns an icon into inline markup (typically an SVG with fill applied).
// Returning an error falls back to an <img> reference.
type IconInliner interface {
	Inline(icon IconVisual) (template.HTML, error)
}

type sectionItem struct {
	Card     VisualCard
	IconHTML template.HTML
}

// RenderSection writes the feature grid for cards, in order.
func RenderSection(w io.Writer, cards []VisualCard, inliner IconInliner) error {
	items := make([]sectionItem, len(cards))
	for i, c := range cards {
		items[i] = sectionItem{Card: c}
		if c.Icon != nil && inliner != nil {
			if h, err := inliner.Inline(*c.Icon); err == nil {
				items[i].IconHTML = h
			}
		}
	}
	return sectionTemplate.Execute(w, items)
}
