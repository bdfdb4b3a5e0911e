package commands

import (
	"context"
	"io"
	"os"

	"git.home.luguber.info/inful/docportal/internal/config"
	"git.home.luguber.info/inful/docportal/internal/features"
	"git.home.luguber.info/inful/docportal/internal/homepage"
)

// FeaturesCmd implements the 'features' command.
type FeaturesCmd struct {
	InlineIcons bool `name:"inline-icons" help:"Inline SVG icons from docs.static_dir"`
}

func (f *FeaturesCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(context.Background(), root)
	if err != nil {
		return err
	}
	return RunFeatures(os.Stdout, cfg, f.InlineIcons)
}

// RunFeatures renders the configured feature cards as an HTML section.
func RunFeatures(w io.Writer, cfg *config.Config, inline bool) error {
	cards := features.NewRenderer(features.WithStyle(cfg.StyleOptions())).Render(cfg.Registry())
	var inliner features.IconInliner
	if inline && cfg.Docs.StaticDir != "" {
		inliner = homepage.SVGInliner{StaticDir: cfg.Docs.StaticDir}
	}
	return features.RenderSection(w, cards, inliner)
}
