package commands

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Addr string `help:"Listen address (default daemon.addr)"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	ctx, stop := signalContext()
	defer stop()
	cfg, err := loadConfig(ctx, root)
	if err != nil {
		return err
	}
	return runServe(ctx, root, cfg, serveOptions{
		Addr:     d.Addr,
		Watch:    cfg.Daemon.Watch,
		Interval: true,
	})
}
