package build

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docportal/internal/config"
	"git.home.luguber.info/inful/docportal/internal/content"
	"git.home.luguber.info/inful/docportal/internal/events"
	"git.home.luguber.info/inful/docportal/internal/eventstore"
	"git.home.luguber.info/inful/docportal/internal/lastmod"
	"git.home.luguber.info/inful/docportal/internal/logfields"
	"git.home.luguber.info/inful/docportal/internal/metrics"
	"git.home.luguber.info/inful/docportal/internal/observability"
	"git.home.luguber.info/inful/docportal/internal/sitemap"
	"git.home.luguber.info/inful/docportal/internal/state"
)

// Build triggers.
const (
	TriggerCLI      = "cli"
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
)

// Request describes one build.
type Request struct {
	Trigger string
	// IncludeDrafts overrides the configured draft handling for preview builds.
	IncludeDrafts bool
}

// BuildState is shared between the stages of one build.
type BuildState struct {
	Config    *config.Config
	Report    *BuildReport
	BuildID   string
	OutputDir string
	Request   Request

	Corpus   *content.Corpus
	Homepage []byte
	Sitemap  []sitemap.Artifact

	fingerprints *lastmod.FingerprintResolver
}

// Generator runs the site build pipeline. Builds are serialized.
type Generator struct {
	cfg       *config.Config
	recorder  metrics.Recorder
	events    eventstore.Store
	publisher events.Publisher
	state     state.Store
	resolvers []lastmod.Resolver
	now       func() time.Time
	newID     func() string

	mu sync.Mutex
}

// Option configures a Generator.
type Option func(*Generator)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// WithEventStore sets the build event log.
func WithEventStore(s eventstore.Store) Option {
	return func(g *Generator) { g.events = s }
}

// WithPublisher sets the build notification publisher.
func WithPublisher(p events.Publisher) Option {
	return func(g *Generator) { g.publisher = p }
}

// WithStateStore enables fingerprint based lastmod tracking.
func WithStateStore(s state.Store) Option {
	return func(g *Generator) { g.state = s }
}

// WithResolvers sets the lastmod resolvers consulted before fingerprints.
func WithResolvers(r ...lastmod.Resolver) Option {
	return func(g *Generator) { g.resolvers = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithIDGenerator overrides build id generation.
func WithIDGenerator(f func() string) Option {
	return func(g *Generator) { g.newID = f }
}

// NewGenerator returns a Generator for cfg.
func NewGenerator(cfg *config.Config, opts ...Option) *Generator {
	g := &Generator{
		cfg:       cfg,
		recorder:  metrics.NoopRecorder{},
		events:    eventstore.Noop{},
		publisher: events.Noop{},
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Config returns the generator configuration.
func (g *Generator) Config() *config.Config { return g.cfg }

// Pipeline returns the ordered stage definitions.
func (g *Generator) Pipeline() []StageDef {
	return []StageDef{
		{StagePrepareOutput, g.stagePrepareOutput},
		{StageDiscoverContent, g.stageDiscoverContent},
		{StageRenderHomepage, g.stageRenderHomepage},
		{StageCheckLinks, g.stageCheckLinks},
		{StageGenerateSitemap, g.stageGenerateSitemap},
		{StagePersistState, g.stagePersistState},
		{StagePublishEvents, g.stagePublishEvents},
	}
}

// Run executes one build. The report is returned even when the build fails.
func (g *Generator) Run(ctx context.Context, req Request) (*BuildReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if req.Trigger == "" {
		req.Trigger = TriggerCLI
	}
	buildID := g.newID()
	ctx = observability.WithBuildID(ctx, buildID)
	ctx, span := observability.StartBuildSpan(ctx, buildID)

	bs := &BuildState{
		Config:    g.cfg,
		Report:    newBuildReport(buildID, req.Trigger, g.now()),
		BuildID:   buildID,
		OutputDir: g.cfg.Output.Directory,
		Request:   req,
	}
	if g.state != nil {
		bs.fingerprints = lastmod.NewFingerprintResolver(g.state, lastmod.WithClock(g.now))
	}

	slog.InfoContext(ctx, "Build started", slog.String("trigger", req.Trigger), logfields.Path(g.cfg.Docs.Dir))
	g.emit(ctx, buildID, eventstore.TypeBuildStarted, eventstore.BuildStarted{
		Trigger: req.Trigger,
		DocsDir: g.cfg.Docs.Dir,
		OutDir:  bs.OutputDir,
	})

	err := g.runStages(ctx, bs, g.Pipeline())

	report := bs.Report
	report.End = g.now()
	report.deriveOutcome()
	g.recorder.ObserveBuildDuration(report.Duration())
	g.recorder.IncBuildOutcome(string(report.Outcome))
	if perr := report.Persist(bs.OutputDir); perr != nil {
		slog.WarnContext(ctx, "Failed to persist build report", logfields.Error(perr))
	}

	completed := eventstore.BuildCompleted{
		Outcome:     string(report.Outcome),
		DurationMS:  report.Duration().Milliseconds(),
		Pages:       report.Docs + report.Listings,
		SitemapURLs: report.SitemapURLs,
		Features:    report.Features,
		BrokenLinks: len(report.BrokenLinks),
	}
	if err != nil {
		completed.ErrorMessage = err.Error()
	}
	g.emit(ctx, buildID, eventstore.TypeBuildCompleted, completed)
	observability.EndSpan(span, err)

	slog.InfoContext(ctx, "Build finished", logfields.Outcome(string(report.Outcome)),
		logfields.DurationMS(float64(report.Duration().Milliseconds())))
	return report, err
}

// runStages executes stages in order, recording timing and stopping on the first
// fatal or canceled stage.
func (g *Generator) runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			out := classifyStageResult(st.Name, newCanceledStageError(st.Name, err))
			g.recordStage(ctx, bs, out, 0)
			return out.Error
		}

		stageCtx := observability.WithStage(ctx, string(st.Name))
		stageCtx, span := observability.StartStageSpan(stageCtx, string(st.Name))
		t0 := g.now()
		err := st.Fn(stageCtx, bs)
		dur := g.now().Sub(t0)

		out := classifyStageResult(st.Name, err)
		if out.Error != nil {
			observability.EndSpan(span, out.Error)
		} else {
			observability.EndSpan(span, nil)
		}
		g.recordStage(stageCtx, bs, out, dur)
		if out.Abort {
			if out.Error != nil {
				return out.Error
			}
			return fmt.Errorf("stage %s aborted", st.Name)
		}
	}
	return nil
}

func (g *Generator) recordStage(ctx context.Context, bs *BuildState, out StageOutcome, dur time.Duration) {
	bs.Report.Stages = append(bs.Report.Stages, StageReport{Name: out.Stage, Result: out.Result, DurationMS: dur.Milliseconds()})
	g.recorder.ObserveStageDuration(string(out.Stage), dur)
	g.recorder.IncStageResult(string(out.Stage), resultLabel(out.Result))

	payload := eventstore.StageCompleted{Stage: string(out.Stage), Result: string(out.Result), DurationMS: dur.Milliseconds()}
	if out.Error != nil {
		bs.Report.AddIssue(out.IssueCode, out.Stage, out.Severity, out.Error.Error(), out.Transient)
		payload.Error = out.Error.Error()
		if out.Severity == SeverityWarning {
			slog.WarnContext(ctx, "Stage completed with warnings", logfields.Error(out.Error))
		} else {
			slog.ErrorContext(ctx, "Stage failed", logfields.Error(out.Error))
		}
	} else {
		slog.DebugContext(ctx, "Stage completed", slog.String("result", string(out.Result)),
			logfields.DurationMS(float64(dur.Milliseconds())))
	}
	g.emit(ctx, bs.BuildID, eventstore.TypeStageCompleted, payload)
}

// emit appends a build event. Event log failures never fail the build.
func (g *Generator) emit(ctx context.Context, buildID, eventType string, payload any) {
	ev, err := eventstore.New(buildID, eventType, payload)
	if err != nil {
		slog.WarnContext(ctx, "Failed to encode build event", slog.String("type", eventType), logfields.Error(err))
		return
	}
	ev.Timestamp = g.now().UTC()
	if _, err := g.events.Append(context.WithoutCancel(ctx), ev); err != nil {
		slog.WarnContext(ctx, "Failed to append build event", slog.String("type", eventType), logfields.Error(err))
	}
}
