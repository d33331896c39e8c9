// Package models defines the note types shared by storage and the surfaces.
package models

import "time"

// Note is a vault file as returned by read operations.
type Note struct {
	Path        string         `json:"path"`
	Content     string         `json:"content"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Created     string         `json:"created,omitempty"`
	Checksum    string         `json:"checksum"`
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
