// Package apperr defines the error kinds shared across notetidy.
package apperr

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrScopeMismatch        = errors.New("note is outside the target folder")
	ErrEmptyInput           = errors.New("note is empty")
	ErrExternalCall         = errors.New("external call failed")
	ErrOutOfRange           = errors.New("line index out of range")
	ErrStaleAnchor          = errors.New("anchor line no longer holds the placeholder")
)
