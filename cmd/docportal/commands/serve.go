package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docportal/internal/config"
	"git.home.luguber.info/inful/docportal/internal/daemon"
	"git.home.luguber.info/inful/docportal/internal/logfields"
	"git.home.luguber.info/inful/docportal/internal/server"
)

// serveOptions are the knobs that differ between preview and daemon mode.
type serveOptions struct {
	Addr          string
	LiveReload    bool
	Watch         bool
	Interval      bool
	IncludeDrafts bool
}

// runServe builds the portal, serves it and keeps it fresh until ctx is done.
func runServe(ctx context.Context, root *CLI, cfg *config.Config, opts serveOptions) (err error) {
	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()

	srv := server.New(cfg,
		server.WithAddr(opts.Addr),
		server.WithGatherer(rt.registry),
		server.WithEventStore(rt.events),
		server.WithLiveReload(opts.LiveReload),
	)

	dopts := []daemon.Option{
		daemon.WithSite(srv),
		daemon.WithIncludeDrafts(opts.IncludeDrafts),
		daemon.WithReloader(func(ctx context.Context) (daemon.Builder, error) {
			next, err := config.Load(ctx, root.Config)
			if err != nil {
				return nil, err
			}
			return rt.generator(next), nil
		}),
	}
	if opts.Watch {
		dopts = append(dopts, daemon.WithWatch(root.Config))
	}
	if opts.Interval {
		dopts = append(dopts, daemon.WithInterval(cfg.Daemon.Interval))
	}
	d, err := daemon.New(cfg, rt.generator(cfg), dopts...)
	if err != nil {
		return err
	}

	addr := opts.Addr
	if addr == "" {
		addr = cfg.Daemon.Addr
	}
	slog.Info("Serving portal", logfields.Addr(addr), slog.Bool("live_reload", opts.LiveReload), slog.Bool("watch", opts.Watch))
	return d.Run(ctx)
}
