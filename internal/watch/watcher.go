// Package watch turns filesystem changes under the docs tree into debounced
// rebuild requests.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/logfields"
)

// DefaultDebounce is used when no quiet window is configured.
const DefaultDebounce = 500 * time.Millisecond

// Change is the batch of paths that changed during one quiet window.
type Change struct {
	Paths []string
}

// Contains reports whether path is part of the batch.
func (c Change) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return slices.Contains(c.Paths, abs)
}

// Handler is invoked for each debounced batch. Calls never overlap; changes
// arriving while a handler runs are delivered in exactly one follow-up call.
type Handler func(ctx context.Context, change Change)

// Watcher watches directory trees and single files.
type Watcher struct {
	debounce time.Duration
	handler  Handler

	trees    []string
	files    map[string]bool
	excluded []string

	mu      sync.Mutex
	timer   *time.Timer
	pending []string
	request chan struct{}
	ready   chan struct{}
}

// New returns a Watcher calling handler once changes have been quiet for
// debounce.
func New(debounce time.Duration, handler Handler) (*Watcher, error) {
	if handler == nil {
		return nil, ferrors.ValidationError("watch handler is required").Build()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		debounce: debounce,
		handler:  handler,
		files:    map[string]bool{},
		request:  make(chan struct{}, 1),
		ready:    make(chan struct{}),
	}, nil
}

// AddTree watches dir and every directory below it. Missing directories are
// ignored.
func (w *Watcher) AddTree(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	w.trees = append(w.trees, abs)
	return nil
}

// AddFile watches a single file through its parent directory, which survives
// editors replacing the file on save.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	w.files[abs] = true
	return nil
}

// Exclude drops changes below dir, typically the build output.
func (w *Watcher) Exclude(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	w.excluded = append(w.excluded, abs)
	return nil
}

// Ready is closed once Run has registered its watches.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is canceled. Run must be called at most once.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "create file watcher").Build()
	}
	defer func() { _ = fw.Close() }()

	for _, tree := range w.trees {
		if st, serr := os.Stat(tree); serr != nil || !st.IsDir() {
			slog.Warn("Watch root missing", logfields.Path(tree))
			continue
		}
		addDirsRecursive(fw, tree, w.excluded)
	}
	for file := range w.files {
		if err := fw.Add(filepath.Dir(file)); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryRuntime, "watch config directory").
				WithContext("path", file).Build()
		}
	}
	slog.Info("Watching for changes", logfields.Count(len(fw.WatchList())))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.dispatchLoop(ctx)
	}()
	defer wg.Wait()
	defer w.stopTimer()
	close(w.ready)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) || ev.Op == fsnotify.Chmod {
		return
	}
	if !w.relevant(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			addDirsRecursive(fw, ev.Name, w.excluded)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger(ev.Name)
}

// relevant reports whether name lies in a watched tree or is a watched file.
// Siblings of watched files share the parent watch and are dropped here.
func (w *Watcher) relevant(name string) bool {
	if w.files[name] {
		return true
	}
	for _, dir := range w.excluded {
		if within(name, dir) {
			return false
		}
	}
	for _, tree := range w.trees {
		if within(name, tree) {
			return true
		}
	}
	return false
}

func within(name, dir string) bool {
	return name == dir || strings.HasPrefix(name, dir+string(filepath.Separator))
}

func (w *Watcher) trigger(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !slices.Contains(w.pending, name) {
		w.pending = append(w.pending, name)
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.request <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// dispatchLoop runs the handler for each request. The request channel holds at
// most one token, so bursts during a running handler coalesce into one call.
func (w *Watcher) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.request:
			w.mu.Lock()
			paths := w.pending
			w.pending = nil
			w.mu.Unlock()
			if len(paths) == 0 {
				continue
			}
			slices.Sort(paths)
			w.handler(ctx, Change{Paths: paths})
		}
	}
}

func addDirsRecursive(fw *fsnotify.Watcher, root string, excluded []string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		for _, dir := range excluded {
			if within(path, dir) {
				return filepath.SkipDir
			}
		}
		if err := fw.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent filters editor swap files, backups and hidden files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"),
		strings.HasSuffix(base, ".tmp"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	return false
}
