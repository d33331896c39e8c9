package section

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/notetidy/internal/buffer"
)

const (
	title       = "# Summary"
	placeholder = "...generating..."
)

func begin(t *testing.T, in *Injector, b *buffer.Buffer) int {
	t.Helper()
	anchor, err := in.Begin(b)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if got, _ := b.Line(anchor); got != in.Placeholder {
		t.Fatalf("line %d = %q, want placeholder", anchor, got)
	}
	return anchor
}

func TestBeginComplete_EmptyDocument(t *testing.T) {
	in := New(title, placeholder)
	b := buffer.New("")

	anchor := begin(t, in, b)
	if anchor != 2 {
		t.Errorf("anchor = %d, want 2", anchor)
	}
	if diff := cmp.Diff([]string{"", title, placeholder}, b.Lines()); diff != "" {
		t.Errorf("after Begin (-want +got):\n%s", diff)
	}

	if err := in.Complete(b, anchor, "short summary"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if diff := cmp.Diff([]string{"", title, "- short summary"}, b.Lines()); diff != "" {
		t.Errorf("after Complete (-want +got):\n%s", diff)
	}
}

func TestBegin_TwiceKeepsOneTitle(t *testing.T) {
	in := New(title, placeholder)
	b := buffer.New("body")

	first := begin(t, in, b)
	second := begin(t, in, b)
	if first != second {
		t.Errorf("anchors differ: %d vs %d", first, second)
	}
	want := []string{"body", title, placeholder}
	if diff := cmp.Diff(want, b.Lines()); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestBegin_ExistingTitleWithoutEntry(t *testing.T) {
	in := New(title, placeholder)
	b := buffer.New("intro", "  # Summary  ", "next paragraph")

	anchor := begin(t, in, b)
	if anchor != 2 {
		t.Errorf("anchor = %d, want 2", anchor)
	}
	want := []string{"intro", "  # Summary  ", placeholder, "next paragraph"}
	if diff := cmp.Diff(want, b.Lines()); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestBegin_TitleOnLastLine(t *testing.T) {
	in := New(title, placeholder)
	b := buffer.New("intro", title)

	anchor := begin(t, in, b)
	if anchor != 2 {
		t.Errorf("anchor = %d, want 2", anchor)
	}
	if diff := cmp.Diff([]string{"intro", title, placeholder}, b.Lines()); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestBegin_OverwritesPreviousEntry(t *testing.T) {
	in := New(title, placeholder)
	b := buffer.New("intro", title, "- old summary", "outro")

	anchor := begin(t, in, b)
	if anchor != 2 {
		t.Errorf("anchor = %d, want 2", anchor)
	}
	want := []string{"intro", title, placeholder, "outro"}
	if diff := cmp.Diff(want, b.Lines()); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestBegin_OverwritesStalePlaceholder(t *testing.T) {
	in := New(title, placeholder)
	b := buffer.New(title, "  "+placeholder+" (interrupted)", "tail")

	anchor := begin(t, in, b)
	if anchor != 1 {
		t.Errorf("anchor = %d, want 1", anchor)
	}
	want := []string{title, placeholder, "tail"}
	if diff := cmp.Diff(want, b.Lines()); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestComplete_PreservesSurroundingLines(t *testing.T) {
	in := New(title, placeholder)
	b := buffer.New("line 0", "line 1", title, "line 3", "line 4", "line 5")

	anchor := begin(t, in, b)
	if err := in.Complete(b, anchor, "  the gist\nof it  "); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	want := []string{"line 0", "line 1", title, "- the gist of it", "line 3", "line 4", "line 5"}
	if diff := cmp.Diff(want, b.Lines()); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestComplete_StaleAnchor(t *testing.T) {
	in := New(title, placeholder)
	b := buffer.New("a", title)
	anchor := begin(t, in, b)

	// A line inserted above the anchor shifts the placeholder down.
	if err := b.InsertLines(0, "inserted"); err != nil {
		t.Fatal(err)
	}
	before := b.Lines()

	err := in.Complete(b, anchor, "summary")
	if !errors.Is(err, ErrStaleAnchor) {
		t.Fatalf("err = %v, want ErrStaleAnchor", err)
	}
	if diff := cmp.Diff(before, b.Lines()); diff != "" {
		t.Errorf("buffer mutated (-want +got):\n%s", diff)
	}
}

func TestComplete_OutOfRange(t *testing.T) {
	in := New(title, placeholder)
	b := buffer.New("a")
	if err := in.Complete(b, 5, "x"); !errors.Is(err, buffer.ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
}

func TestBegin_RejectsEmptyConfig(t *testing.T) {
	b := buffer.New("a")
	if _, err := New("", placeholder).Begin(b); err == nil {
		t.Error("expected error for empty title")
	}
	if _, err := New(title, "").Begin(b); err == nil {
		t.Error("expected error for empty placeholder")
	}
}
