// Package homepage renders the portal landing page.
package homepage

import "html/template"

// Site is the view model of the landing page.
type Site struct {
	Title     string
	Tagline   string
	BaseURL   string // site root path, "/" when empty
	Lang      string
	Favicon   string // absolute path or URL
	Sitemap   string // absolute path of the sitemap, empty to omit the link
	Generator string

	ColorMode ColorMode
	Prism     Prism
	Navbar    Navbar
	Hero      Hero
	Footer    Footer
}

// ColorMode mirrors the theme color mode settings.
type ColorMode struct {
	Default       string // light or dark
	DisableSwitch bool
}

// Prism names the code highlight themes.
type Prism struct {
	Theme               string
	DarkTheme           string
	AdditionalLanguages []string
}

// Navbar is the top navigation.
type Navbar struct {
	Title string
	Logo  *Logo
	Items []NavItem
}

// Logo is the navbar brand image.
type Logo struct {
	Alt string
	Src string
}

// NavItem is a navbar link. Position is left or right.
type NavItem struct {
	Label    string
	Href     string
	Position string
}

// Hero is the banner below the navbar.
type Hero struct {
	CTA *Link
}

// Link is a labelled href.
type Link struct {
	Label string
	Href  string
}

// Footer is the page footer. Copyright may contain a {year} placeholder.
type Footer struct {
	Style     string // light or dark
	Columns   []FooterColumn
	Copyright string
}

// FooterColumn is a titled list of links.
type FooterColumn struct {
	Title string
	Items []Link
}

type pageData struct {
	Site
	Copyright template.HTML
	Features  template.HTML
}
