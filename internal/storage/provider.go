// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/notetidy/internal/models"

// Provider is the interface for vault file operations. Paths are relative to
// the vault root and use forward slashes.
type Provider interface {
	// List returns metadata for the .md files in dir, descending into
	// subdirectories when recursive is set.
	List(dir string, recursive bool) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
}
