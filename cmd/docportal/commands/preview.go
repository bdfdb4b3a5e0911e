package commands

// PreviewCmd implements the 'preview' command.
type PreviewCmd struct {
	Addr          string `help:"Listen address (default daemon.addr)"`
	IncludeDrafts bool   `name:"drafts" default:"true" negatable:"" help:"Include draft documents"`
}

func (p *PreviewCmd) Run(_ *Global, root *CLI) error {
	ctx, stop := signalContext()
	defer stop()
	cfg, err := loadConfig(ctx, root)
	if err != nil {
		return err
	}
	return runServe(ctx, root, cfg, serveOptions{
		Addr:          p.Addr,
		LiveReload:    true,
		Watch:         true,
		IncludeDrafts: p.IncludeDrafts,
	})
}
