package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, setup func(w *Watcher)) <-chan Change {
	t.Helper()
	changes := make(chan Change, 8)
	w, err := New(50*time.Millisecond, func(_ context.Context, c Change) { changes <- c })
	require.NoError(t, err)
	setup(w)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not start")
	}
	return changes
}

func waitChange(t *testing.T, changes <-chan Change) Change {
	t.Helper()
	select {
	case c := <-changes:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered")
		return Change{}
	}
}

func TestWatcher_DebouncesBurstIntoOneChange(t *testing.T) {
	docs := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(docs, "guides"), 0o750))
	changes := startWatcher(t, func(w *Watcher) { require.NoError(t, w.AddTree(docs)) })

	intro := filepath.Join(docs, "intro.md")
	setup := filepath.Join(docs, "guides", "setup.md")
	require.NoError(t, os.WriteFile(intro, []byte("# Intro"), 0o600))
	require.NoError(t, os.WriteFile(setup, []byte("# Setup"), 0o600))
	require.NoError(t, os.WriteFile(intro, []byte("# Intro v2"), 0o600))

	c := waitChange(t, changes)
	assert.True(t, c.Contains(intro))
	assert.True(t, c.Contains(setup))
	assert.Len(t, c.Paths, 2)
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	docs := t.TempDir()
	changes := startWatcher(t, func(w *Watcher) { require.NoError(t, w.AddTree(docs)) })

	sub := filepath.Join(docs, "standards")
	require.NoError(t, os.Mkdir(sub, 0o750))
	waitChange(t, changes)

	page := filepath.Join(sub, "naming.md")
	require.NoError(t, os.WriteFile(page, []byte("# Naming"), 0o600))
	c := waitChange(t, changes)
	assert.True(t, c.Contains(page))
}

func TestWatcher_SingleFileIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "docportal.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("version: \"1\"\n"), 0o600))
	changes := startWatcher(t, func(w *Watcher) { require.NoError(t, w.AddFile(cfg)) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(cfg, []byte("version: \"1\"\n# edited\n"), 0o600))

	c := waitChange(t, changes)
	assert.Equal(t, []string{cfg}, c.Paths)
}

func TestWatcher_ExcludedOutputIsSilent(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "build")
	require.NoError(t, os.Mkdir(out, 0o750))
	changes := startWatcher(t, func(w *Watcher) {
		require.NoError(t, w.AddTree(root))
		require.NoError(t, w.Exclude(out))
	})

	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("<html>"), 0o600))
	page := filepath.Join(root, "intro.md")
	require.NoError(t, os.WriteFile(page, []byte("# Intro"), 0o600))

	c := waitChange(t, changes)
	assert.Equal(t, []string{page}, c.Paths)
}

func TestNew_RequiresHandler(t *testing.T) {
	_, err := New(time.Second, nil)
	require.Error(t, err)

	w, err := New(0, func(context.Context, Change) {})
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)
}

func TestShouldIgnoreEvent(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/docs/intro.md", false},
		{"/docs/.intro.md.swp", true},
		{"/docs/intro.md~", true},
		{"/docs/#intro.md#", true},
		{"/docs/.DS_Store", true},
		{"/docs/upload.tmp", true},
		{"/docs/guides", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldIgnoreEvent(tt.path))
		})
	}
}
