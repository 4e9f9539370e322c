package externs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/gnana997/ambient/pkg/metrics"
	"github.com/gnana997/ambient/pkg/parser"
	"github.com/gnana997/ambient/pkg/source"
)

// WatchOptions configures a Watcher.
type WatchOptions struct {
	// DebounceMs is how long the watcher waits after the last change
	// before reloading. Default: 200ms.
	DebounceMs int

	// MinInterval is the minimum time between two reloads. Default: 1s.
	MinInterval time.Duration

	// Roots are directories watched recursively. Directories of the
	// loaded files are always watched.
	Roots []string

	// IgnorePatterns are doublestar patterns matched against the base name
	// of changed files.
	IgnorePatterns []string

	// Resolve recomputes the file list before every reload, so files
	// created under Roots join the load. nil keeps the initial list.
	Resolve func() ([]string, error)

	// OnReload is called after every reload attempt.
	OnReload func(*Snapshot, error)
}

// DefaultWatchOptions returns recommended watch options.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		DebounceMs:     200,
		MinInterval:    time.Second,
		IgnorePatterns: []string{"*.swp", "*.tmp", "*~", ".#*"},
	}
}

// Watcher rebuilds the registry whenever a loaded file changes and
// publishes the result through a Holder. Every reload is a full load; a
// failed reload leaves the previous snapshot in place.
//
// Usage:
//
//	w, err := NewWatcher(loader, holder, files, DefaultWatchOptions(), logger)
//	if err != nil {
//	    return err
//	}
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
//	defer w.Stop()
type Watcher struct {
	loader  *Loader
	holder  *Holder
	logger  *slog.Logger
	options WatchOptions
	watcher *fsnotify.Watcher
	limiter *rate.Limiter

	filesMu sync.RWMutex
	files   []string
	watched map[string]bool

	debounceMu sync.Mutex
	debounce   *time.Timer

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewWatcher creates a watcher reloading files with loader into holder.
func NewWatcher(loader *Loader, holder *Holder, files []string, options WatchOptions, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if options.DebounceMs <= 0 {
		options.DebounceMs = 200
	}
	if options.MinInterval <= 0 {
		options.MinInterval = time.Second
	}
	w := &Watcher{
		loader:  loader,
		holder:  holder,
		logger:  logger,
		options: options,
		watcher: fw,
		limiter: rate.NewLimiter(rate.Every(options.MinInterval), 1),
		watched: make(map[string]bool),
		trigger: make(chan struct{}, 1),
	}
	w.setFiles(files)
	return w, nil
}

// Start adds the watches and begins reloading in the background. It does
// not load anything itself; call Reload first to publish an initial
// snapshot.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return errors.New("watcher already stopped")
	}
	if w.started {
		return errors.New("watcher already started")
	}

	for _, root := range w.options.Roots {
		if err := w.addTree(root); err != nil {
			return err
		}
	}
	w.watchFileDirs()

	ctx, w.cancel = context.WithCancel(ctx)
	w.started = true
	w.wg.Add(2)
	go w.eventLoop(ctx)
	go w.reloadLoop(ctx)

	w.logger.Info("externs watcher started", "files", len(w.Files()), "roots", len(w.options.Roots))
	return nil
}

// Stop stops watching. Safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true

	w.debounceMu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounceMu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	err := w.watcher.Close()
	w.wg.Wait()
	w.logger.Info("externs watcher stopped")
	return err
}

// Files returns the current file list.
func (w *Watcher) Files() []string {
	w.filesMu.RLock()
	defer w.filesMu.RUnlock()
	return append([]string(nil), w.files...)
}

// Reload runs a full load now and publishes it on success.
func (w *Watcher) Reload(ctx context.Context) (*Snapshot, error) {
	if w.options.Resolve != nil {
		files, err := w.options.Resolve()
		if err != nil {
			return w.finish(nil, fmt.Errorf("resolve externs: %w", err))
		}
		w.setFiles(files)
		w.watchFileDirs()
	}

	files := w.Files()
	reg, diags, err := w.loader.Load(ctx, files)
	if err != nil {
		return w.finish(nil, err)
	}
	snap := &Snapshot{Registry: reg, Diagnostics: diags, Files: files, LoadedAt: time.Now()}
	w.holder.Swap(snap)
	return w.finish(snap, nil)
}

func (w *Watcher) finish(snap *Snapshot, err error) (*Snapshot, error) {
	if err != nil {
		metrics.ReloadsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		w.logger.Warn("externs reload failed, keeping previous registry", "error", err)
	} else {
		metrics.ReloadsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
		w.logger.Debug("externs reloaded", "registry", snap.Registry.ID(), "entries", snap.Registry.Len())
	}
	if w.options.OnReload != nil {
		w.options.OnReload(snap, err)
	}
	return snap, err
}

func (w *Watcher) setFiles(files []string) {
	w.filesMu.Lock()
	defer w.filesMu.Unlock()
	w.files = append([]string(nil), files...)
}

func (w *Watcher) isLoaded(path string) bool {
	w.filesMu.RLock()
	defer w.filesMu.RUnlock()
	clean := filepath.Clean(path)
	for _, f := range w.files {
		if filepath.Clean(f) == clean {
			return true
		}
	}
	return false
}

// watchFileDirs adds a watch on the directory of every loaded file.
// Identifiers with a scheme are not on disk and are skipped.
func (w *Watcher) watchFileDirs() {
	for _, f := range w.Files() {
		if _, _, ok := source.SplitScheme(f); ok {
			continue
		}
		w.addDir(filepath.Dir(f))
	}
}

func (w *Watcher) addDir(dir string) {
	dir = filepath.Clean(dir)
	w.filesMu.Lock()
	seen := w.watched[dir]
	w.watched[dir] = true
	w.filesMu.Unlock()
	if seen {
		return
	}
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("failed to watch directory", "path", dir, "error", err)
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("failed to watch %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		switch d.Name() {
		case "node_modules", ".git":
			if path != root {
				return filepath.SkipDir
			}
		}
		w.addDir(path)
		return nil
	})
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.shouldIgnore(event.Name) {
		return
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	metrics.WatcherEventsTotal.Inc()

	relevant := w.isLoaded(event.Name)
	if !relevant && w.options.Resolve != nil {
		relevant = parser.DetectLanguage(event.Name) != parser.LanguageUnknown
	}
	if !relevant {
		return
	}
	w.logger.Debug("externs file event", "op", event.Op.String(), "file", event.Name)
	w.scheduleReload()
}

// scheduleReload restarts the debounce timer. Rapid changes across any
// number of files collapse into a single reload.
func (w *Watcher) scheduleReload() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(time.Duration(w.options.DebounceMs)*time.Millisecond, func() {
		select {
		case w.trigger <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) reloadLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.trigger:
			if err := w.limiter.Wait(ctx); err != nil {
				return
			}
			w.Reload(ctx)
		}
	}
}

func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.options.IgnorePatterns {
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
