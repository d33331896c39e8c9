// Package notice carries short user-facing notifications about note
// operations, the equivalent of a transient toast.
package notice

import (
	"context"
	"log/slog"
	"time"
)

// Level is the severity of a notice.
type Level string

const (
	Info  Level = "info"
	Warn  Level = "warn"
	Error Level = "error"
)

// Notice is a single notification.
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Path    string    `json:"path,omitempty"`
	Time    time.Time `json:"time"`
}

// Notifier delivers notices. Implementations must not block for long.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Log writes notices to a structured logger.
type Log struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (l Log) Notify(ctx context.Context, n Notice) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lvl := slog.LevelInfo
	switch n.Level {
	case Warn:
		lvl = slog.LevelWarn
	case Error:
		lvl = slog.LevelError
	}
	logger.Log(ctx, lvl, "notice: "+n.Message, slog.String("path", n.Path))
}

// Multi fans a notice out to several notifiers.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, n Notice) {
	for _, nt := range m {
		if nt != nil {
			nt.Notify(ctx, n)
		}
	}
}

// Recorder keeps notices in memory. Intended for tests and the CLI.
type Recorder struct {
	ch chan Notice
}

// NewRecorder creates a recorder that buffers up to size notices.
func NewRecorder(size int) *Recorder {
	return &Recorder{ch: make(chan Notice, size)}
}

// Notify implements Notifier. Notices beyond the buffer are dropped.
func (r *Recorder) Notify(_ context.Context, n Notice) {
	select {
	case r.ch <- n:
	default:
	}
}

// C exposes recorded notices in arrival order.
func (r *Recorder) C() <-chan Notice {
	return r.ch
}

// Drain returns every notice recorded so far.
func (r *Recorder) Drain() []Notice {
	var out []Notice
	for {
		select {
		case n := <-r.ch:
			out = append(out, n)
		default:
			return out
		}
	}
}
