// Package settings holds the user-editable settings: the target folder and
// the summary API key.
package settings

import (
	"fmt"
	"path"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notetidy/internal/apperr"
	pkgconfig "github.com/starford/notetidy/pkg/config"
)

// Settings is an immutable snapshot passed into every operation.
type Settings struct {
	TargetFolder string `yaml:"target_folder" json:"target_folder"`
	APIKey       string `yaml:"api_key" json:"api_key,omitempty"`
}

// Validate validates the settings. Empty values are allowed; operations that
// need them fail with ErrConfigurationMissing instead.
func (s *Settings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.TargetFolder, validation.By(relativeFolder)),
	)
}

func relativeFolder(v any) error {
	f, _ := v.(string)
	if f == "" {
		return nil
	}
	clean := path.Clean(strings.ReplaceAll(f, "\\", "/"))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("must be a folder inside the vault")
	}
	return nil
}

// Folder returns the target folder in clean, slash-separated form.
func (s Settings) Folder() string {
	if s.TargetFolder == "" {
		return ""
	}
	return path.Clean(strings.ReplaceAll(s.TargetFolder, "\\", "/"))
}

// RequireFolder fails with ErrConfigurationMissing when no target folder is set.
func (s Settings) RequireFolder() error {
	if s.Folder() == "" {
		return fmt.Errorf("target folder is not set: %w", apperr.ErrConfigurationMissing)
	}
	return nil
}

// RequireAPIKey fails with ErrConfigurationMissing when no API key is set.
func (s Settings) RequireAPIKey() error {
	if strings.TrimSpace(s.APIKey) == "" {
		return fmt.Errorf("summary API key is not set: %w", apperr.ErrConfigurationMissing)
	}
	return nil
}

// InScope reports whether the vault-relative note path sits directly inside
// the target folder.
func (s Settings) InScope(notePath string) bool {
	folder := s.Folder()
	if folder == "" {
		return false
	}
	dir := path.Dir(path.Clean(strings.ReplaceAll(notePath, "\\", "/")))
	return dir == folder
}

// Redacted returns a copy safe to show to users.
func (s Settings) Redacted() Settings {
	if s.APIKey != "" {
		s.APIKey = "***"
	}
	return s
}

// Store loads and persists settings. Reads return snapshots; the only way to
// change settings is Update, which persists before publishing.
type Store struct {
	mu   sync.RWMutex
	path string
	cur  Settings
}

// Open loads settings from file, falling back to defaults when the file does
// not exist yet. An empty file path keeps settings in memory only.
func Open(file string, defaults Settings) (*Store, error) {
	s := &Store{path: file, cur: defaults}
	if file == "" {
		return s, nil
	}
	loaded := defaults
	found, err := pkgconfig.LoadIfExists(file, &loaded)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	if found {
		s.cur = loaded
	}
	return s, nil
}

// Snapshot returns the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Update applies fn to a copy of the settings, validates and persists it,
// then makes it current.
func (s *Store) Update(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur
	fn(&next)
	next.TargetFolder = strings.TrimSpace(next.TargetFolder)
	next.APIKey = strings.TrimSpace(next.APIKey)
	if err := next.Validate(); err != nil {
		return s.cur, fmt.Errorf("settings: %w", err)
	}
	if s.path != "" {
		if err := pkgconfig.Save(s.path, &next); err != nil {
			return s.cur, fmt.Errorf("settings: %w", err)
		}
	}
	s.cur = next
	return next, nil
}
