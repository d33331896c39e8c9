package tidy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/notetidy/internal/apperr"
	"github.com/starford/notetidy/internal/buffer"
	"github.com/starford/notetidy/internal/journal"
	"github.com/starford/notetidy/internal/settings"
	"github.com/starford/notetidy/internal/storage"
	"github.com/starford/notetidy/internal/summary"
)

// PendingSummary is a note whose summary section holds the placeholder.
type PendingSummary struct {
	Path   string `json:"path"`
	Anchor int    `json:"anchor"`

	prompt string
	apiKey string
}

// SummaryResult reports a completed summary.
type SummaryResult struct {
	Path    string `json:"path"`
	Anchor  int    `json:"anchor"`
	Summary string `json:"summary"`
}

// BeginSummary writes the placeholder into the summary section of a note and
// returns where it sits. The prompt is built from the note as it was before
// the placeholder went in.
func (s *Service) BeginSummary(ctx context.Context, st settings.Settings, p string) (*PendingSummary, error) {
	p = cleanPath(p)
	if err := gate(st, p); err != nil {
		return nil, s.fail(ctx, p, "summarize", err)
	}
	if err := st.RequireAPIKey(); err != nil {
		return nil, s.fail(ctx, p, "summarize", err)
	}
	if s.summaries == nil {
		return nil, s.fail(ctx, p, "summarize", fmt.Errorf("no summary client: %w", apperr.ErrConfigurationMissing))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read(p)
	if err != nil {
		return nil, s.fail(ctx, p, "summarize", err)
	}
	content := string(data)
	if strings.TrimSpace(content) == "" {
		return nil, s.fail(ctx, p, "summarize", fmt.Errorf("%s: %w", p, apperr.ErrEmptyInput))
	}

	buf := buffer.Parse(data)
	anchor, err := s.injector.Begin(buf)
	if err != nil {
		return nil, s.fail(ctx, p, "summarize", err)
	}
	out := buf.Bytes()
	if err := s.store.Write(p, out); err != nil {
		s.record(journal.Entry{Path: p, Action: journal.ActionSummarize, Status: journal.StatusFailed, Detail: err.Error()})
		return nil, s.fail(ctx, p, "summarize", err)
	}
	s.record(journal.Entry{
		Path:           p,
		Action:         journal.ActionSummarize,
		Status:         journal.StatusPending,
		Detail:         fmt.Sprintf("placeholder at line %d", anchor),
		ChecksumBefore: storage.Checksum(data),
		ChecksumAfter:  storage.Checksum(out),
	})
	s.publish(EventSummaryPending, p)
	s.logger.InfoContext(ctx, "tidy: summary pending", slog.String("path", p), slog.Int("anchor", anchor))

	return &PendingSummary{
		Path:   p,
		Anchor: anchor,
		prompt: summary.BuildPrompt(s.cfg.PromptTemplate, content),
		apiKey: st.APIKey,
	}, nil
}

// FinishSummary requests the summary and writes it over the placeholder.
// On any failure the placeholder is left in the note and a notice is sent.
func (s *Service) FinishSummary(ctx context.Context, ps *PendingSummary) (*SummaryResult, error) {
	text, err := s.summaries.ForKey(ps.apiKey).Summarize(ctx, ps.prompt)
	if err != nil {
		s.record(journal.Entry{Path: ps.Path, Action: journal.ActionSummarize, Status: journal.StatusFailed, Detail: err.Error()})
		return nil, s.fail(ctx, ps.Path, "summarize", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The note may have been edited while the request was in flight.
	data, err := s.read(ps.Path)
	if err != nil {
		s.record(journal.Entry{Path: ps.Path, Action: journal.ActionSummarize, Status: journal.StatusFailed, Detail: err.Error()})
		return nil, s.fail(ctx, ps.Path, "summarize", err)
	}
	buf := buffer.Parse(data)
	if err := s.injector.Complete(buf, ps.Anchor, text); err != nil {
		s.record(journal.Entry{Path: ps.Path, Action: journal.ActionSummarize, Status: journal.StatusFailed, Detail: err.Error()})
		return nil, s.fail(ctx, ps.Path, "summarize", err)
	}
	out := buf.Bytes()
	if err := s.store.Write(ps.Path, out); err != nil {
		s.record(journal.Entry{Path: ps.Path, Action: journal.ActionSummarize, Status: journal.StatusFailed, Detail: err.Error()})
		return nil, s.fail(ctx, ps.Path, "summarize", err)
	}
	entry, _ := buf.Line(ps.Anchor)
	s.record(journal.Entry{
		Path:           ps.Path,
		Action:         journal.ActionSummarize,
		Status:         journal.StatusOK,
		Detail:         entry,
		ChecksumBefore: storage.Checksum(data),
		ChecksumAfter:  storage.Checksum(out),
	})
	s.publish(EventSummarized, ps.Path)
	s.logger.InfoContext(ctx, "tidy: summarized", slog.String("path", ps.Path), slog.Int("anchor", ps.Anchor))

	return &SummaryResult{Path: ps.Path, Anchor: ps.Anchor, Summary: entry}, nil
}

// SummarizeNote runs BeginSummary and FinishSummary back to back.
func (s *Service) SummarizeNote(ctx context.Context, st settings.Settings, p string) (*SummaryResult, error) {
	ps, err := s.BeginSummary(ctx, st, p)
	if err != nil {
		return nil, err
	}
	return s.FinishSummary(ctx, ps)
}

// StartSummary writes the placeholder and finishes the summary in the
// background. The background part outlives ctx and is cancelled only when
// the scheduler stops.
func (s *Service) StartSummary(ctx context.Context, st settings.Settings, p string) (*PendingSummary, error) {
	ps, err := s.BeginSummary(ctx, st, p)
	if err != nil {
		return nil, err
	}
	finish := func(ctx context.Context) {
		if _, err := s.FinishSummary(ctx, ps); err != nil {
			s.logger.WarnContext(ctx, "tidy: background summary failed", slog.String("path", ps.Path), slog.String("error", err.Error()))
		}
	}
	bg := context.WithoutCancel(ctx)
	if s.sched == nil {
		go finish(bg)
		return ps, nil
	}
	if !s.sched.After(bg, 0, finish) {
		return ps, s.fail(ctx, ps.Path, "summarize", errors.New("tidy: shutting down"))
	}
	return ps, nil
}
