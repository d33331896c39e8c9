package api

import (
	"github.com/starford/notetidy/internal/journal"
	"github.com/starford/notetidy/internal/models"
	"github.com/starford/notetidy/internal/settings"
	"github.com/starford/notetidy/internal/tidy"
)

// NoteListResponse wraps the notes of the target folder.
type NoteListResponse struct {
	Notes []models.NoteMetadata `json:"notes" validate:"required"`
	Total int                   `json:"total" example:"42" validate:"required"`
}

// StampResponse is the outcome of stamping a note (aliased from the domain layer).
type StampResponse = tidy.StampResult

// StripResponse is the outcome of stripping a note (aliased from the domain layer).
type StripResponse = tidy.StripResult

// SummaryAccepted is returned while a summary is being generated.
type SummaryAccepted = tidy.PendingSummary

// JournalResponse wraps journal entries, newest first.
type JournalResponse struct {
	Entries []journal.Entry `json:"entries" validate:"required"`
}

// SettingsResponse is the redacted settings object.
type SettingsResponse = settings.Settings

// UpdateSettingsRequest changes the fields that are present.
type UpdateSettingsRequest struct {
	TargetFolder *string `json:"target_folder,omitempty" example:"Clippings"`
	APIKey       *string `json:"api_key,omitempty" example:"sk-..."`
}
