package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docportal/internal/build"
	"git.home.luguber.info/inful/docportal/internal/config"
)

type fakeBuilder struct {
	name string
	err  error

	mu       sync.Mutex
	requests []build.Request
}

func (f *fakeBuilder) Run(_ context.Context, req build.Request) (*build.BuildReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return &build.BuildReport{BuildID: f.name, Trigger: req.Trigger}, f.err
}

func (f *fakeBuilder) triggers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.Trigger)
	}
	return out
}

func (f *fakeBuilder) count(trigger string) int {
	n := 0
	for _, t := range f.triggers() {
		if t == trigger {
			n++
		}
	}
	return n
}

type recordingObserver struct {
	mu      sync.Mutex
	reports []*build.BuildReport
	errs    []error
}

func (r *recordingObserver) Observe(report *build.BuildReport, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	r.errs = append(r.errs, err)
}

func (r *recordingObserver) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

type fakeSite struct {
	recordingObserver
	running chan struct{}
	err     error
}

func (s *fakeSite) Run(ctx context.Context) error {
	close(s.running)
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{}
	cfg.Docs.Dir = filepath.Join(root, "docs")
	cfg.Docs.StaticDir = filepath.Join(root, "static")
	cfg.Output.Directory = filepath.Join(root, "build")
	cfg.State.Directory = filepath.Join(root, ".docportal")
	cfg.Daemon.Debounce = 50 * time.Millisecond
	for _, dir := range []string{cfg.Docs.Dir, cfg.Docs.StaticDir, cfg.Output.Directory} {
		require.NoError(t, os.MkdirAll(dir, 0o750))
	}
	return cfg
}

func runDaemon(t *testing.T, d *Daemon) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
		return nil
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, &fakeBuilder{})
	require.Error(t, err)
	_, err = New(&config.Config{}, nil)
	require.Error(t, err)
}

func TestDaemon_InitialBuildAndSite(t *testing.T) {
	cfg := testConfig(t)
	b := &fakeBuilder{name: "b1"}
	site := &fakeSite{running: make(chan struct{})}
	obs := &recordingObserver{}

	d, err := New(cfg, b, WithSite(site), WithObserver(obs), WithIncludeDrafts(true))
	require.NoError(t, err)
	cancel, done := runDaemon(t, d)

	select {
	case <-site.running:
	case <-time.After(5 * time.Second):
		t.Fatal("site not started")
	}
	assert.Equal(t, []string{build.TriggerCLI}, b.triggers())
	assert.True(t, b.requests[0].IncludeDrafts)
	assert.Equal(t, 1, obs.len())
	assert.Equal(t, 1, site.len())

	cancel()
	require.NoError(t, waitDone(t, done))
	assert.EqualValues(t, 1, d.Builds())
}

func TestDaemon_FailedBuildIsObserved(t *testing.T) {
	b := &fakeBuilder{name: "b1", err: errors.New("broken links")}
	obs := &recordingObserver{}
	d, err := New(testConfig(t), b, WithObserver(obs))
	require.NoError(t, err)

	d.Rebuild(t.Context(), build.TriggerCLI)
	require.Equal(t, 1, obs.len())
	assert.EqualError(t, obs.errs[0], "broken links")
	assert.Equal(t, "b1", obs.reports[0].BuildID)
}

func TestDaemon_SiteErrorStopsDaemon(t *testing.T) {
	site := &fakeSite{running: make(chan struct{}), err: errors.New("listen: address in use")}
	d, err := New(testConfig(t), &fakeBuilder{}, WithSite(site))
	require.NoError(t, err)
	_, done := runDaemon(t, d)
	require.EqualError(t, waitDone(t, done), "listen: address in use")
}

func TestDaemon_ScheduledRebuilds(t *testing.T) {
	b := &fakeBuilder{}
	d, err := New(testConfig(t), b, WithInterval(50*time.Millisecond))
	require.NoError(t, err)
	cancel, done := runDaemon(t, d)

	require.Eventually(t, func() bool { return b.count(build.TriggerSchedule) >= 2 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, waitDone(t, done))
	assert.Equal(t, build.TriggerCLI, b.triggers()[0])
}

func TestDaemon_WatchRebuildsAndReloadsConfig(t *testing.T) {
	cfg := testConfig(t)
	cfgPath := filepath.Join(t.TempDir(), "docportal.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("version: \"1\"\n"), 0o600))

	first := &fakeBuilder{name: "first"}
	second := &fakeBuilder{name: "second"}
	var reloads int
	reloader := func(context.Context) (Builder, error) {
		reloads++
		if reloads == 1 {
			return nil, errors.New("invalid config")
		}
		return second, nil
	}

	d, err := New(cfg, first, WithWatch(cfgPath), WithReloader(reloader))
	require.NoError(t, err)
	_, _ = runDaemon(t, d)
	require.Eventually(t, func() bool { return first.count(build.TriggerCLI) == 1 }, 5*time.Second, 10*time.Millisecond)
	// Give the watcher time to register its directories.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Docs.Dir, "intro.md"), []byte("# Intro"), 0o600))
	require.Eventually(t, func() bool { return first.count(build.TriggerWatch) == 1 }, 5*time.Second, 10*time.Millisecond)

	// Build output never triggers a rebuild.
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Output.Directory, "index.html"), []byte("<html>"), 0o600))

	// An invalid configuration keeps the previous builder.
	require.NoError(t, os.WriteFile(cfgPath, []byte("version: [\n"), 0o600))
	require.Eventually(t, func() bool { return first.count(build.TriggerWatch) == 2 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(cfgPath, []byte("version: \"1\"\n"), 0o600))
	require.Eventually(t, func() bool { return second.count(build.TriggerWatch) >= 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, first.count(build.TriggerWatch))
}

func TestScheduler_ScheduleEvery(t *testing.T) {
	t.Run("returns job id for valid interval", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		id, err := s.ScheduleEvery("test", 10*time.Second, func() {})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		s.Start()
		var next time.Time
		require.Eventually(t, func() bool {
			n, ok := s.NextRun("test")
			next = n
			return ok && !n.IsZero()
		}, 5*time.Second, 10*time.Millisecond)
		assert.WithinDuration(t, time.Now().Add(10*time.Second), next, 2*time.Second)

		_, ok := s.NextRun("missing")
		assert.False(t, ok)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		_, err = s.ScheduleEvery("test", 0, func() {})
		require.Error(t, err)
	})
}
