package annotate

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/notetidy/internal/buffer"
)

func strip(t *testing.T, lines ...string) ([]string, Report) {
	t.Helper()
	b := buffer.New(lines...)
	rep, err := Strip(b)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	return b.Lines(), rep
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want Match
	}{
		{"cubox://card/abc123", CaptureToolLink},
		{"see cubox://x in the app", CaptureToolLink},
		{"cubox://", CaptureToolLink},
		{"https://cubox.pro/my/highlight?id=42", SummaryOriginLink},
		{"[link](https://cubox.pro/my/highlight?id=42)", SummaryOriginLink},
		{"# Title", HeadingLevel1},
		{"#\tTabbed", HeadingLevel1},
		{"## Subtitle", Plain},
		{" # indented", Plain},
		{"#hashtag", Plain},
		{"https://cubox.pro/my/cards", Plain},
		{"plain text", Plain},
		{"", Plain},
	}
	for _, tt := range tests {
		if got := Classify(tt.line); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestStrip_Example(t *testing.T) {
	got, rep := strip(t,
		"# Note",
		"cubox://abc123",
		"body text",
		"https://cubox.pro/my/highlight?id=42",
		"last https://example.com/src",
	)
	if diff := cmp.Diff([]string{"body text"}, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	wantRemoved := []Removal{
		{Line: 0, Kind: "heading_level1", Text: "# Note"},
		{Line: 1, Kind: "capture_tool_link", Text: "cubox://abc123"},
		{Line: 3, Kind: "summary_origin_link", Text: "https://cubox.pro/my/highlight?id=42"},
		{Line: 4, Kind: "trailing_link", Text: "last https://example.com/src"},
	}
	if diff := cmp.Diff(wantRemoved, rep.Removed); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestStrip_NoMatchIsNoop(t *testing.T) {
	in := []string{"## Keep me", "some prose", "", "- list item", "final words"}
	got, rep := strip(t, in...)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("buffer changed (-want +got):\n%s", diff)
	}
	if rep.Changed() {
		t.Errorf("report = %+v, want no removals", rep)
	}
}

func TestStrip_SingleLineNoMatch(t *testing.T) {
	got, _ := strip(t, "just one line")
	if diff := cmp.Diff([]string{"just one line"}, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestStrip_EverythingRemoved(t *testing.T) {
	got, rep := strip(t, "# Heading", "cubox://a")
	if diff := cmp.Diff([]string{""}, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	if len(rep.Removed) != 2 {
		t.Errorf("removed %d lines, want 2", len(rep.Removed))
	}
}

func TestStrip_SingleLineTrailingLink(t *testing.T) {
	got, _ := strip(t, "https://example.com")
	if diff := cmp.Diff([]string{""}, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestStrip_TrailingRuleOnlyLastLine(t *testing.T) {
	got, _ := strip(t, "http://a.example", "middle", "http://b.example")
	want := []string{"http://a.example", "middle"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestStrip_AdjacentMatches(t *testing.T) {
	got, _ := strip(t, "keep 1", "cubox://a", "cubox://b", "# h", "keep 2")
	if diff := cmp.Diff([]string{"keep 1", "keep 2"}, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestStrip_TrailingLinkAppliesAfterPass(t *testing.T) {
	// The link line becomes last only once the heading below it is gone.
	got, _ := strip(t, "text", "source: https://example.com/a", "# Trailing heading")
	if diff := cmp.Diff([]string{"text"}, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestStrip_PostConditions(t *testing.T) {
	docs := [][]string{
		{"# a", "# b", "x", "cubox://1", "y https://cubox.pro/my/highlight?id=2", "z"},
		{"cubox://1", "cubox://2", "cubox://3"},
		{"a", "#  spaced", "b", "## sub", "c http://x"},
	}
	for _, d := range docs {
		got, _ := strip(t, d...)
		for _, l := range got {
			if Classify(l) != Plain {
				t.Errorf("line %q survived Strip(%q)", l, d)
			}
		}
	}
}
