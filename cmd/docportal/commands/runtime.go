package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/docportal/internal/build"
	"git.home.luguber.info/inful/docportal/internal/config"
	"git.home.luguber.info/inful/docportal/internal/events"
	"git.home.luguber.info/inful/docportal/internal/eventstore"
	ferrors "git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/lastmod"
	"git.home.luguber.info/inful/docportal/internal/logfields"
	"git.home.luguber.info/inful/docportal/internal/metrics"
	"git.home.luguber.info/inful/docportal/internal/observability"
	"git.home.luguber.info/inful/docportal/internal/state"
)

// State database file names below the state directory.
const (
	StateDBFile  = "state.db"
	EventsDBFile = "events.db"
)

// runtime holds the long lived dependencies of a build: stores, publisher,
// metrics registry and tracing.
type runtime struct {
	cfg       *config.Config
	registry  *prom.Registry
	recorder  metrics.Recorder
	state     *state.SQLiteStore
	events    *eventstore.SQLiteStore
	publisher events.Publisher
	resolvers []lastmod.Resolver

	closers []func(context.Context) error
}

// newRuntime opens the stores below the state directory, connects the event
// publisher when enabled and installs tracing.
func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rt := &runtime{cfg: cfg, registry: prom.NewRegistry(), publisher: events.Noop{}}
	rt.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rt.recorder = metrics.NewPrometheusRecorder(rt.registry)

	shutdown, err := observability.InitTracing(ctx, observability.TracingOptions{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "initialize tracing").UserAction().Build()
	}
	rt.closers = append(rt.closers, shutdown)

	if err := os.MkdirAll(cfg.State.Directory, 0o750); err != nil {
		_ = rt.Close(ctx)
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create state directory").
			WithContext("path", cfg.State.Directory).Build()
	}
	if rt.state, err = state.NewSQLiteStore(filepath.Join(cfg.State.Directory, StateDBFile)); err != nil {
		_ = rt.Close(ctx)
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "open page state").Build()
	}
	rt.closers = append(rt.closers, func(context.Context) error { return rt.state.Close() })

	if rt.events, err = eventstore.NewSQLiteStore(filepath.Join(cfg.State.Directory, EventsDBFile)); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.closers = append(rt.closers, func(context.Context) error { return rt.events.Close() })

	if cfg.Events.Enabled {
		pub, err := events.NewNATSPublisher(ctx, events.NATSOptions{
			URL:      cfg.Events.NATSURL,
			Subject:  cfg.Events.Subject,
			Stream:   cfg.Events.Stream,
			KVBucket: cfg.Events.KVBucket,
		})
		if err != nil {
			_ = rt.Close(ctx)
			return nil, err
		}
		rt.publisher = pub
		rt.closers = append(rt.closers, func(context.Context) error { return pub.Close() })
	}

	if git, err := lastmod.NewGitResolver(cfg.Docs.Dir); err == nil {
		rt.resolvers = append(rt.resolvers, git)
	} else {
		slog.Debug("Git lastmod disabled", logfields.Path(cfg.Docs.Dir), logfields.Error(err))
	}
	return rt, nil
}

// generator returns a Generator wired to the runtime.
func (rt *runtime) generator(cfg *config.Config) *build.Generator {
	return build.NewGenerator(cfg,
		build.WithRecorder(rt.recorder),
		build.WithEventStore(rt.events),
		build.WithPublisher(rt.publisher),
		build.WithStateStore(rt.state),
		build.WithResolvers(rt.resolvers...),
	)
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
