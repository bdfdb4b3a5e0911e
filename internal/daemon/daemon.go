// Package daemon keeps a portal up to date: it builds once at startup, then
// rebuilds on file changes and on a fixed interval while serving the site.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docportal/internal/build"
	"git.home.luguber.info/inful/docportal/internal/config"
	ferrors "git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/logfields"
	"git.home.luguber.info/inful/docportal/internal/watch"
)

// ScheduledJobName names the periodic rebuild job.
const ScheduledJobName = "scheduled-build"

// Builder runs one build.
type Builder interface {
	Run(ctx context.Context, req build.Request) (*build.BuildReport, error)
}

// Observer receives every finished build.
type Observer interface {
	Observe(report *build.BuildReport, err error)
}

// Site is a long running server that also observes builds.
type Site interface {
	Observer
	Run(ctx context.Context) error
}

// Reloader returns a Builder for a freshly loaded configuration.
type Reloader func(ctx context.Context) (Builder, error)

// Daemon coordinates the initial build, the watcher, the scheduler and the site.
type Daemon struct {
	cfg *config.Config

	mu      sync.RWMutex
	builder Builder

	site          Site
	observers     []Observer
	reloader      Reloader
	configPath    string
	watchFiles    bool
	interval      time.Duration
	includeDrafts bool

	builds atomic.Int64
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithSite serves the portal while the daemon runs.
func WithSite(s Site) Option {
	return func(d *Daemon) { d.site = s }
}

// WithObserver adds a build observer.
func WithObserver(o Observer) Option {
	return func(d *Daemon) { d.observers = append(d.observers, o) }
}

// WithWatch rebuilds when the docs, the static files or the configuration
// file change. configPath may be empty.
func WithWatch(configPath string) Option {
	return func(d *Daemon) {
		d.watchFiles = true
		d.configPath = configPath
	}
}

// WithReloader replaces the builder when the configuration file changes.
func WithReloader(r Reloader) Option {
	return func(d *Daemon) { d.reloader = r }
}

// WithInterval rebuilds periodically. Zero disables the schedule.
func WithInterval(interval time.Duration) Option {
	return func(d *Daemon) { d.interval = interval }
}

// WithIncludeDrafts builds draft documents.
func WithIncludeDrafts(include bool) Option {
	return func(d *Daemon) { d.includeDrafts = include }
}

// New returns a Daemon building with builder. cfg supplies the watched paths
// and the debounce window; those are fixed for the lifetime of the daemon.
func New(cfg *config.Config, builder Builder, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, ferrors.ValidationError("configuration is required").Build()
	}
	if builder == nil {
		return nil, ferrors.ValidationError("builder is required").Build()
	}
	d := &Daemon{cfg: cfg, builder: builder}
	for _, opt := range opts {
		opt(d)
	}
	if d.site != nil {
		d.observers = append(d.observers, d.site)
	}
	return d, nil
}

// Builds returns the number of builds run so far.
func (d *Daemon) Builds() int64 { return d.builds.Load() }

// Run builds once, then keeps rebuilding until ctx is canceled. A failed
// initial build does not stop the daemon.
func (d *Daemon) Run(ctx context.Context) error {
	var w *watch.Watcher
	if d.watchFiles {
		var err error
		if w, err = d.newWatcher(); err != nil {
			return err
		}
	}
	var sched *Scheduler
	if d.interval > 0 {
		var err error
		if sched, err = NewScheduler(); err != nil {
			return err
		}
		if _, err := sched.ScheduleEvery(ScheduledJobName, d.interval, func() {
			d.Rebuild(ctx, build.TriggerSchedule)
		}); err != nil {
			_ = sched.Stop()
			return err
		}
	}

	d.Rebuild(ctx, build.TriggerCLI)

	g, ctx := errgroup.WithContext(ctx)
	if d.site != nil {
		g.Go(func() error { return d.site.Run(ctx) })
	}
	if w != nil {
		g.Go(func() error { return w.Run(ctx) })
	}
	if sched != nil {
		sched.Start()
		if next, ok := sched.NextRun(ScheduledJobName); ok {
			slog.Info("Scheduled rebuilds", slog.Duration("interval", d.interval), slog.Time("next_run", next))
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	err := g.Wait()
	slog.Info("Daemon stopped", logfields.Count(int(d.Builds())))
	return err
}

func (d *Daemon) newWatcher() (*watch.Watcher, error) {
	w, err := watch.New(d.cfg.Daemon.Debounce, d.onChange)
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{d.cfg.Docs.Dir, d.cfg.Docs.StaticDir} {
		if err := w.AddTree(dir); err != nil {
			return nil, err
		}
	}
	if d.configPath != "" {
		if err := w.AddFile(d.configPath); err != nil {
			return nil, err
		}
	}
	for _, dir := range []string{d.cfg.Output.Directory, d.cfg.State.Directory} {
		if err := w.Exclude(dir); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (d *Daemon) onChange(ctx context.Context, change watch.Change) {
	slog.InfoContext(ctx, "Change detected; rebuilding", logfields.Count(len(change.Paths)))
	if d.configPath != "" && d.reloader != nil && change.Contains(d.configPath) {
		d.reload(ctx)
	}
	d.Rebuild(ctx, build.TriggerWatch)
}

// reload swaps in a builder for the new configuration. On failure the
// previous builder stays in place.
func (d *Daemon) reload(ctx context.Context) {
	b, err := d.reloader(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Configuration reload failed; keeping previous configuration",
			logfields.Path(d.configPath), logfields.Error(err))
		return
	}
	d.mu.Lock()
	d.builder = b
	d.mu.Unlock()
	slog.InfoContext(ctx, "Configuration reloaded", logfields.Path(d.configPath))
}

// Rebuild runs one build and notifies the observers.
func (d *Daemon) Rebuild(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	d.mu.RLock()
	b := d.builder
	d.mu.RUnlock()

	d.builds.Add(1)
	report, err := b.Run(ctx, build.Request{Trigger: trigger, IncludeDrafts: d.includeDrafts})
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		slog.WarnContext(ctx, "Build failed", slog.String("trigger", trigger), logfields.Error(err))
	}
	for _, o := range d.observers {
		o.Observe(report, err)
	}
}
