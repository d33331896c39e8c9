// Package buffer provides an in-memory, line-addressable text buffer.
package buffer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Buffer is an ordered, mutable sequence of text lines. It always holds at
// least one line; an empty document is a single empty line.
//
// A Buffer has a single writer and no internal locking.
type Buffer struct {
	lines           []string
	trailingNewline bool
}

// New returns a buffer holding the given lines.
func New(lines ...string) *Buffer {
	if len(lines) == 0 {
		return &Buffer{lines: []string{""}}
	}
	cp := make([]string, len(lines))
	copy(cp, lines)
	return &Buffer{lines: cp}
}

// Parse splits raw file content into lines. A single trailing newline is
// remembered and restored by Bytes, so the last line of a buffer is the last
// line of text rather than the empty string after the final line break.
func Parse(data []byte) *Buffer {
	b := &Buffer{}
	if bytes.HasSuffix(data, []byte("\n")) {
		b.trailingNewline = true
		data = data[:len(data)-1]
	}
	b.lines = strings.Split(string(data), "\n")
	return b
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	return len(b.lines)
}

// Line returns the text of line i.
func (b *Buffer) Line(i int) (string, error) {
	if i < 0 || i >= len(b.lines) {
		return "", fmt.Errorf("buffer: line %d of %d: %w", i, len(b.lines), ErrOutOfRange)
	}
	return b.lines[i], nil
}

// Lines returns a copy of all lines.
func (b *Buffer) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// ReplaceRange replaces the half-open span [from, to) with text. Columns are
// byte offsets that must fall on rune boundaries. text may contain line
// breaks, in which case the line count changes accordingly.
func (b *Buffer) ReplaceRange(fromLine, fromCol, toLine, toCol int, text string) error {
	if err := b.checkPos(fromLine, fromCol); err != nil {
		return err
	}
	if err := b.checkPos(toLine, toCol); err != nil {
		return err
	}
	if toLine < fromLine || (toLine == fromLine && toCol < fromCol) {
		return fmt.Errorf("buffer: range %d:%d-%d:%d is reversed: %w", fromLine, fromCol, toLine, toCol, ErrOutOfRange)
	}

	head := b.lines[fromLine][:fromCol]
	tail := b.lines[toLine][toCol:]
	repl := strings.Split(head+text+tail, "\n")

	out := make([]string, 0, len(b.lines)-(toLine-fromLine+1)+len(repl))
	out = append(out, b.lines[:fromLine]...)
	out = append(out, repl...)
	out = append(out, b.lines[toLine+1:]...)
	b.lines = out
	return nil
}

// DeleteLine removes line i together with one adjacent line break. Removing
// the only line leaves a single empty line.
func (b *Buffer) DeleteLine(i int) error {
	if i < 0 || i >= len(b.lines) {
		return fmt.Errorf("buffer: delete line %d of %d: %w", i, len(b.lines), ErrOutOfRange)
	}
	last := len(b.lines) - 1
	switch {
	case i < last:
		return b.ReplaceRange(i, 0, i+1, 0, "")
	case i > 0:
		return b.ReplaceRange(i-1, len(b.lines[i-1]), i, len(b.lines[i]), "")
	default:
		return b.ReplaceRange(0, 0, 0, len(b.lines[0]), "")
	}
}

// SetLine overwrites the full span of line i.
func (b *Buffer) SetLine(i int, text string) error {
	if i < 0 || i >= len(b.lines) {
		return fmt.Errorf("buffer: set line %d of %d: %w", i, len(b.lines), ErrOutOfRange)
	}
	return b.ReplaceRange(i, 0, i, len(b.lines[i]), text)
}

// InsertLines inserts lines so that the first of them ends up at index at.
// at may equal LineCount to append.
func (b *Buffer) InsertLines(at int, lines ...string) error {
	if at < 0 || at > len(b.lines) {
		return fmt.Errorf("buffer: insert at %d of %d: %w", at, len(b.lines), ErrOutOfRange)
	}
	if len(lines) == 0 {
		return nil
	}
	text := strings.Join(lines, "\n")
	if at == len(b.lines) {
		prev := at - 1
		return b.ReplaceRange(prev, len(b.lines[prev]), prev, len(b.lines[prev]), "\n"+text)
	}
	return b.ReplaceRange(at, 0, at, 0, text+"\n")
}

// String joins the lines with "\n".
func (b *Buffer) String() string {
	return strings.Join(b.lines, "\n")
}

// Bytes returns the file content, restoring the trailing newline seen by Parse.
func (b *Buffer) Bytes() []byte {
	s := b.String()
	if b.trailingNewline {
		s += "\n"
	}
	return []byte(s)
}

func (b *Buffer) checkPos(line, col int) error {
	if line < 0 || line >= len(b.lines) {
		return fmt.Errorf("buffer: line %d of %d: %w", line, len(b.lines), ErrOutOfRange)
	}
	text := b.lines[line]
	if col < 0 || col > len(text) {
		return fmt.Errorf("buffer: column %d on line %d (len %d): %w", col, line, len(text), ErrOutOfRange)
	}
	if col < len(text) && !utf8.RuneStart(text[col]) {
		return fmt.Errorf("buffer: column %d on line %d splits a rune: %w", col, line, ErrOutOfRange)
	}
	return nil
}
