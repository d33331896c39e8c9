// Package section locates or creates a titled section in a note and fills
// it in two steps: a placeholder first, the final entry once it is ready.
package section

import (
	"fmt"
	"strings"

	"github.com/starford/notetidy/internal/apperr"
	"github.com/starford/notetidy/internal/buffer"
)

// DefaultEntryPrefix starts every completed entry.
const DefaultEntryPrefix = "- "

// ErrStaleAnchor is returned by Complete when the anchor line no longer holds
// the placeholder written by Begin.
var ErrStaleAnchor = apperr.ErrStaleAnchor

// Injector writes into the section whose title line equals Title.
type Injector struct {
	Title       string
	Placeholder string
	EntryPrefix string
}

// New returns an Injector using the default entry prefix.
func New(title, placeholder string) *Injector {
	return &Injector{Title: title, Placeholder: placeholder, EntryPrefix: DefaultEntryPrefix}
}

func (in *Injector) prefix() string {
	if in.EntryPrefix == "" {
		return DefaultEntryPrefix
	}
	return in.EntryPrefix
}

// FindTitle returns the index of the first line whose trimmed text equals the
// trimmed title, or -1.
func (in *Injector) FindTitle(buf *buffer.Buffer) int {
	want := strings.TrimSpace(in.Title)
	for i, l := range buf.Lines() {
		if strings.TrimSpace(l) == want {
			return i
		}
	}
	return -1
}

// Begin writes the placeholder into the section and returns the anchor line
// that holds it. A missing section is appended at the end of the document.
// An existing entry (a stale placeholder or a previous list entry) directly
// below the title is overwritten; otherwise the placeholder is inserted
// below the title.
//
// The anchor stays valid as long as no lines are inserted or deleted above it
// before Complete is called.
func (in *Injector) Begin(buf *buffer.Buffer) (int, error) {
	if strings.TrimSpace(in.Title) == "" {
		return 0, fmt.Errorf("section: empty title")
	}
	if in.Placeholder == "" {
		return 0, fmt.Errorf("section: empty placeholder")
	}

	title := in.FindTitle(buf)
	if title < 0 {
		if err := buf.InsertLines(buf.LineCount(), in.Title, in.Placeholder); err != nil {
			return 0, fmt.Errorf("section: append: %w", err)
		}
		return buf.LineCount() - 1, nil
	}

	anchor := title + 1
	if anchor < buf.LineCount() {
		entry, err := buf.Line(anchor)
		if err != nil {
			return 0, err
		}
		if strings.Contains(entry, in.Placeholder) || strings.HasPrefix(entry, in.prefix()) {
			if err := buf.SetLine(anchor, in.Placeholder); err != nil {
				return 0, fmt.Errorf("section: overwrite entry: %w", err)
			}
			return anchor, nil
		}
	}
	if err := buf.InsertLines(anchor, in.Placeholder); err != nil {
		return 0, fmt.Errorf("section: insert placeholder: %w", err)
	}
	return anchor, nil
}

// Complete replaces the placeholder at anchor with the entry prefix followed
// by text, folded onto a single line. The line is addressed by index, never
// searched for; if it no longer holds the placeholder the buffer is left
// unchanged and ErrStaleAnchor is returned.
func (in *Injector) Complete(buf *buffer.Buffer, anchor int, text string) error {
	cur, err := buf.Line(anchor)
	if err != nil {
		return fmt.Errorf("section: complete: %w", err)
	}
	if cur != in.Placeholder {
		return fmt.Errorf("section: line %d is %q: %w", anchor, cur, ErrStaleAnchor)
	}
	return buf.SetLine(anchor, in.prefix()+strings.Join(strings.Fields(text), " "))
}
