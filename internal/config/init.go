package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docportal/internal/features"
	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
)

// Example returns the configuration written by Init.
func Example() *Config {
	priority := 0.5
	return &Config{
		Version: CurrentVersion,
		Site: SiteConfig{
			Title:            "OneStream Solution Exchange Documentation",
			Tagline:          "Maximize Business Impact With OneStream's Intelligent Finance Platform",
			URL:              "https://os-docusaurus.netlify.app",
			BaseURL:          "/",
			Favicon:          "img/favicon.ico",
			TrailingSlash:    Bool(true),
			OrganizationName: "OneStream-Developers",
			ProjectName:      "os-docusaurus",
			Lang:             "en",
		},
		Docs: DocsConfig{
			Dir:                "docs",
			StaticDir:          "static",
			RouteBasePath:      "/",
			PageSize:           10,
			ShowLastUpdateTime: Bool(true),
		},
		Theme: ThemeConfig{
			ColorMode: ColorModeConfig{DefaultMode: "light", DisableSwitch: true},
			Prism: PrismConfig{
				Theme:               "github",
				DarkTheme:           "dracula",
				AdditionalLanguages: []string{"powershell", "visual-basic", "csharp"},
			},
		},
		Navbar: NavbarConfig{
			Title: "Solution Exchange Documentation",
			Logo:  &LogoConfig{Alt: "OneStream Logo", Src: "img/logo.svg"},
			Items: []NavItem{
				{Label: "onestream.com", Href: "https://onestream.com/", Position: "right"},
				{Label: "Solution Exchange", Href: "https://solutionexchange.onestream.com/", Position: "right"},
			},
		},
		Footer: FooterConfig{
			Style: "dark",
			Links: []FooterColumn{
				{
					Title: "Check us out on social media",
					Items: []LinkConfig{
						{Label: "Facebook", Href: "https://www.facebook.com/OneStreamSoftware/about/"},
						{Label: "Twitter", Href: "https://twitter.com/OneStream_Soft"},
						{Label: "LinkedIn", Href: "https://www.linkedin.com/company/onestream-software/"},
					},
				},
				{
					Title: "Learn More",
					Items: []LinkConfig{
						{Label: "Navigator", Href: "https://onestream.thoughtindustries.com/learn/dashboard"},
						{Label: "OneStream Community", Href: "https://www.onestream.com/onestream-community/"},
					},
				},
			},
			Copyright: "Copyright © {year} OneStream Software LLC. All rights reserved.",
		},
		Features: []features.ContentDescriptor{
			{
				ID:          "partner-place",
				Title:       "PartnerPlace",
				Icon:        "/img/partner-place.svg",
				URL:         "/intro/",
				Color:       "#EC764C",
				Description: "Documentation for OneStream Partners developing Value-Added Solutions.",
			},
			{
				ID:          "open-place",
				Title:       "OpenPlace",
				Icon:        "/img/open-place.svg",
				URL:         "/intro/",
				Color:       "#F2A73D",
				Description: "Documentation for building open software for the OneStream Community.",
			},
			{
				ID:          "standards",
				Title:       "Standards & Practices",
				Icon:        "/img/standards.svg",
				URL:         "/intro/",
				Color:       "#728AC5",
				Description: "Development standards and practices for creating OneStream solutions.",
			},
		},
		Sitemap: SitemapConfig{
			Filename:          "sitemap.xml",
			Lastmod:           "date",
			ChangeFreq:        "weekly",
			Priority:          &priority,
			IgnorePatterns:    []string{"/tags/**"},
			ExcludeContaining: []string{"/page/"},
		},
		Links:  LinksConfig{OnBrokenLinks: "throw"},
		Output: OutputConfig{Directory: "build", Clean: true},
		State:  StateConfig{Directory: ".docportal"},
	}
}

// Init writes an example configuration file. An existing file is only
// replaced when force is set.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.NewError(errors.CategoryConfig, "configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			UserAction().
			Build()
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create config directory").
				WithContext("path", dir).
				Build()
		}
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
