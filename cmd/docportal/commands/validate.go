package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/docportal/internal/config"
	"git.home.luguber.info/inful/docportal/internal/content"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	Content bool `help:"Also discover the docs directory and report page counts"`
}

func (v *ValidateCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	cfg, err := loadConfig(ctx, root)
	if err != nil {
		return err
	}
	return RunValidate(ctx, os.Stdout, cfg, v.Content)
}

// RunValidate reports on an already loaded (and therefore valid) configuration.
func RunValidate(ctx context.Context, w io.Writer, cfg *config.Config, discover bool) error {
	reg := cfg.Registry()
	_, _ = fmt.Fprintf(w, "Configuration valid: %d feature(s), docs %s, output %s\n",
		reg.Len(), cfg.Docs.Dir, cfg.Output.Directory)
	if !discover {
		return nil
	}
	corpus, err := content.Discover(ctx, content.Options{
		DocsDir:       cfg.Docs.Dir,
		Router:        cfg.Router(),
		PageSize:      cfg.Docs.PageSize,
		Tags:          config.BoolValue(cfg.Docs.Tags, true),
		IncludeDrafts: cfg.Docs.IncludeDrafts,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Content: %d doc(s), %d listing page(s), %d tag(s)\n",
		len(corpus.Docs), len(corpus.Listings), len(corpus.Tags()))
	return nil
}
