package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/notetidy/internal/hook"
	"github.com/starford/notetidy/internal/storage"
)

type recorder struct {
	mu     sync.Mutex
	events []hook.Event
}

func (r *recorder) Dispatch(_ context.Context, ev hook.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return 1
}

func (r *recorder) has(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Kind == hook.Created && ev.Path == path {
			return true
		}
	}
	return false
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatcher(t *testing.T, vault string, rec *recorder) *Watcher {
	t.Helper()
	w := New(vault, rec, time.Minute, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
	return w
}

func TestWatcher_NewNoteDispatched(t *testing.T) {
	vault := t.TempDir()
	_ = os.MkdirAll(filepath.Join(vault, "Clippings"), 0o755)
	rec := &recorder{}
	startWatcher(t, vault, rec)

	_ = os.WriteFile(filepath.Join(vault, "Clippings", "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("Clippings/new.md")
	}, "expected created event for Clippings/new.md")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	vault := t.TempDir()
	rec := &recorder{}
	startWatcher(t, vault, rec)

	sub := filepath.Join(vault, "subdir")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("subdir/deep.md")
	}, "note in new subdir not reported")
}

func TestWatcher_IgnoresNonMarkdownAndHidden(t *testing.T) {
	vault := t.TempDir()
	_ = os.MkdirAll(filepath.Join(vault, ".obsidian"), 0o755)
	rec := &recorder{}
	startWatcher(t, vault, rec)

	_ = os.WriteFile(filepath.Join(vault, "image.png"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(vault, ".obsidian", "workspace.md"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(vault, "real.md"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("real.md")
	}, "expected created event for real.md")
	if rec.count() != 1 {
		t.Errorf("events = %d, want 1", rec.count())
	}
}

func TestWatcher_OwnWritesSuppressed(t *testing.T) {
	vault := t.TempDir()
	store, err := storage.NewFS(vault)
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	w := startWatcher(t, vault, rec)
	quiet := w.Wrap(store)

	if err := quiet.Write("mine.md", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	_ = os.WriteFile(filepath.Join(vault, "theirs.md"), []byte("y"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("theirs.md")
	}, "expected created event for theirs.md")
	if rec.has("mine.md") {
		t.Error("own write was reported as a new note")
	}
}

func TestSuppressionExpires(t *testing.T) {
	w := New(t.TempDir(), &recorder{}, time.Second, quietLogger())
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	w.markSelf("a.md")
	if !w.isSelf("a.md") {
		t.Fatal("expected a.md to be suppressed")
	}
	now = now.Add(2 * time.Second)
	if w.isSelf("a.md") {
		t.Error("suppression should have expired")
	}
}
