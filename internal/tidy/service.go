// Package tidy applies the note operations: front matter stamping, annotation
// stripping and summary injection.
package tidy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/starford/notetidy/internal/apperr"
	"github.com/starford/notetidy/internal/frontmatter"
	"github.com/starford/notetidy/internal/hook"
	"github.com/starford/notetidy/internal/journal"
	"github.com/starford/notetidy/internal/models"
	"github.com/starford/notetidy/internal/notice"
	"github.com/starford/notetidy/internal/section"
	"github.com/starford/notetidy/internal/settings"
	"github.com/starford/notetidy/internal/storage"
	"github.com/starford/notetidy/internal/summary"
)

// Note event kinds published after a successful write.
const (
	EventStamped        = "stamped"
	EventStripped       = "stripped"
	EventSummaryPending = "summary_pending"
	EventSummarized     = "summarized"
)

// DefaultStripDelay is how long after creation a new note is stripped.
const DefaultStripDelay = time.Second

// Defaults for the summary section.
const (
	DefaultSectionTitle = "# 总结"
	DefaultPlaceholder  = "- ⏳ generating summary..."
)

// Events receives note change announcements.
type Events interface {
	PublishNoteEvent(kind, path string)
}

// SettingsSource returns the current settings.
type SettingsSource interface {
	Snapshot() settings.Settings
}

// Config holds the tunables of the service.
type Config struct {
	StripDelay     time.Duration
	SectionTitle   string
	Placeholder    string
	PromptTemplate string
}

// Deps are the collaborators of the service. Journal, Notifier and Events
// may be nil.
type Deps struct {
	Store     storage.Provider
	Settings  SettingsSource
	Summaries summary.Provider
	Journal   journal.Journal
	Notifier  notice.Notifier
	Events    Events
	Scheduler *hook.Scheduler
	Logger    *slog.Logger
}

// Service coordinates storage, the line buffer and the note operations.
//
// Every read-modify-write of a note happens under mu, so edits made by this
// process never interleave. The summary request runs outside the lock.
type Service struct {
	store     storage.Provider
	settings  SettingsSource
	summaries summary.Provider
	journal   journal.Journal
	notifier  notice.Notifier
	events    Events
	sched     *hook.Scheduler
	logger    *slog.Logger
	injector  *section.Injector
	cfg       Config
	now       func() time.Time

	mu sync.Mutex
}

// NewService creates a new tidy service.
func NewService(d Deps, cfg Config) *Service {
	if cfg.StripDelay <= 0 {
		cfg.StripDelay = DefaultStripDelay
	}
	if cfg.SectionTitle == "" {
		cfg.SectionTitle = DefaultSectionTitle
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = DefaultPlaceholder
	}
	if cfg.PromptTemplate == "" {
		cfg.PromptTemplate = summary.DefaultPromptTemplate
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := d.Notifier
	if notifier == nil {
		notifier = notice.Log{Logger: logger}
	}
	return &Service{
		store:     d.Store,
		settings:  d.Settings,
		summaries: d.Summaries,
		journal:   d.Journal,
		notifier:  notifier,
		events:    d.Events,
		sched:     d.Scheduler,
		logger:    logger,
		injector:  section.New(cfg.SectionTitle, cfg.Placeholder),
		cfg:       cfg,
		now:       time.Now,
	}
}

// Settings returns the current settings snapshot.
func (s *Service) Settings() settings.Settings {
	if s.settings == nil {
		return settings.Settings{}
	}
	return s.settings.Snapshot()
}

// cleanPath normalises a vault-relative note path.
func cleanPath(p string) string {
	return strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")
}

// gate checks that an operation on notePath may run under st.
func gate(st settings.Settings, notePath string) error {
	if err := st.RequireFolder(); err != nil {
		return err
	}
	if !st.InScope(notePath) {
		return fmt.Errorf("%s is not in %s: %w", notePath, st.Folder(), apperr.ErrScopeMismatch)
	}
	return nil
}

func (s *Service) read(p string) ([]byte, error) {
	data, err := s.store.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", p, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// fail reports err as a notice and returns it.
func (s *Service) fail(ctx context.Context, p, what string, err error) error {
	s.notifier.Notify(ctx, notice.Notice{
		Level:   notice.Error,
		Message: what + ": " + err.Error(),
		Path:    p,
		Time:    s.now(),
	})
	return err
}

func (s *Service) record(e journal.Entry) {
	if s.journal == nil {
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	if err := s.journal.Record(e); err != nil {
		s.logger.Warn("tidy: journal record failed",
			slog.String("path", e.Path),
			slog.String("action", e.Action),
			slog.String("error", err.Error()))
	}
}

func (s *Service) publish(kind, p string) {
	if s.events != nil {
		s.events.PublishNoteEvent(kind, p)
	}
}

// ReadNote returns a note with its front matter.
func (s *Service) ReadNote(_ context.Context, p string) (*models.Note, error) {
	p = cleanPath(p)
	data, err := s.read(p)
	if err != nil {
		return nil, err
	}
	fm, _ := frontmatter.Split(data)
	n := &models.Note{
		Path:        p,
		Content:     string(data),
		Frontmatter: fm,
		Checksum:    storage.Checksum(data),
	}
	switch v := fm[frontmatter.CreatedKey].(type) {
	case nil:
	case time.Time:
		n.Created = v.Format(frontmatter.DateLayout)
	default:
		n.Created = fmt.Sprint(v)
	}
	return n, nil
}

// ListNotes lists the notes directly inside the target folder.
func (s *Service) ListNotes(_ context.Context, st settings.Settings) ([]models.NoteMetadata, error) {
	if err := st.RequireFolder(); err != nil {
		return nil, err
	}
	items, err := s.store.List(st.Folder(), false)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.NoteMetadata{}, nil
		}
		return nil, err
	}
	if items == nil {
		items = []models.NoteMetadata{}
	}
	return items, nil
}

// History returns journal entries, newest first.
func (s *Service) History(_ context.Context, p, action string, limit int) ([]journal.Entry, error) {
	if s.journal == nil {
		return []journal.Entry{}, nil
	}
	if p != "" {
		p = cleanPath(p)
	}
	entries, err := s.journal.List(p, action, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	return entries, nil
}
