// Package watch turns file creation in the vault into hook events.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/notetidy/internal/hook"
	"github.com/starford/notetidy/internal/storage"
)

// DefaultQuiet is how long a path written by this process is ignored.
const DefaultQuiet = 2 * time.Second

// Dispatcher receives the events produced by the watcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev hook.Event) int
}

// Watcher watches the vault for new Markdown notes.
type Watcher struct {
	root     string
	dispatch Dispatcher
	logger   *slog.Logger
	quiet    time.Duration
	now      func() time.Time

	mu   sync.Mutex
	self map[string]time.Time
}

// New creates a watcher for the vault at root. A non-positive quiet uses DefaultQuiet.
func New(root string, d Dispatcher, quiet time.Duration, logger *slog.Logger) *Watcher {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Watcher{
		root:     root,
		dispatch: d,
		logger:   logger,
		quiet:    quiet,
		now:      time.Now,
		self:     make(map[string]time.Time),
	}
}

// Wrap returns a provider whose writes are not reported as new notes.
// Storage writes via rename, which fsnotify reports as Create.
func (w *Watcher) Wrap(p storage.Provider) storage.Provider {
	return quietStore{Provider: p, w: w}
}

type quietStore struct {
	storage.Provider
	w *Watcher
}

func (q quietStore) Write(path string, content []byte) error {
	q.w.markSelf(path)
	return q.Provider.Write(path, content)
}

func (w *Watcher) markSelf(rel string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	for p, until := range w.self {
		if now.After(until) {
			delete(w.self, p)
		}
	}
	w.self[filepath.ToSlash(rel)] = now.Add(w.quiet)
}

func (w *Watcher) isSelf(rel string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	until, ok := w.self[rel]
	return ok && !w.now().After(until)
}

// Run processes file events until ctx is cancelled.
//
// New directories created at runtime are added to the watch list and any
// notes already inside them are reported as created.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return err
	}

	w.logger.Info("watcher: started", slog.String("root", w.root))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create == 0 {
				continue
			}
			abs := ev.Name

			if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
				if hidden(filepath.Base(abs)) {
					continue
				}
				if addErr := addDirsRecursive(fw, abs); addErr != nil {
					w.logger.Warn("watcher: add new dir failed",
						slog.String("path", abs),
						slog.String("error", addErr.Error()))
				} else {
					w.logger.Debug("watcher: watching new dir", slog.String("path", abs))
				}
				w.createdInDir(ctx, abs)
				continue
			}

			w.created(ctx, abs)

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) created(ctx context.Context, abs string) {
	if !strings.HasSuffix(abs, ".md") || hidden(filepath.Base(abs)) {
		return
	}
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if w.isSelf(rel) {
		w.logger.Debug("watcher: own write ignored", slog.String("path", rel))
		return
	}
	n := w.dispatch.Dispatch(ctx, hook.Event{Kind: hook.Created, Path: rel})
	w.logger.Debug("watcher: created", slog.String("path", rel), slog.Int("handlers", n))
}

func (w *Watcher) createdInDir(ctx context.Context, dir string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != dir && hidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		w.created(ctx, p)
		return nil
	})
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
