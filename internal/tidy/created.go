package tidy

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/starford/notetidy/internal/apperr"
	"github.com/starford/notetidy/internal/hook"
)

// HandleCreated is the hook for new notes. A note created directly inside
// the target folder is stamped, and a strip pass is scheduled after the
// configured delay. Notes elsewhere, and everything while no target folder
// is set, are ignored.
func (s *Service) HandleCreated(ctx context.Context, ev hook.Event) {
	if ev.Kind != hook.Created || !strings.HasSuffix(ev.Path, ".md") {
		return
	}
	p := cleanPath(ev.Path)
	st := s.Settings()
	if st.Folder() == "" || !st.InScope(p) {
		return
	}

	if _, err := s.StampCreated(ctx, st, p); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		s.logger.WarnContext(ctx, "tidy: stamp on create failed", slog.String("path", p), slog.String("error", err.Error()))
	}

	if s.sched == nil {
		return
	}
	scheduled := s.sched.After(ctx, s.cfg.StripDelay, func(ctx context.Context) {
		// Settings may have changed during the delay.
		if _, err := s.StripNote(ctx, s.Settings(), p, false); err != nil {
			s.logger.WarnContext(ctx, "tidy: strip on create failed", slog.String("path", p), slog.String("error", err.Error()))
		}
	})
	if scheduled {
		s.logger.DebugContext(ctx, "tidy: strip scheduled", slog.String("path", p), slog.Duration("delay", s.cfg.StripDelay))
	}
}
