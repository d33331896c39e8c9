// Package annotate removes capture-tool clutter from notes: capture links,
// highlight links, level-1 headings and a trailing source-URL line.
package annotate

import (
	"regexp"

	"github.com/starford/notetidy/internal/buffer"
)

// Match classifies a single line.
type Match int

const (
	Plain Match = iota
	CaptureToolLink
	SummaryOriginLink
	HeadingLevel1
	TrailingLink
)

func (m Match) String() string {
	switch m {
	case CaptureToolLink:
		return "capture_tool_link"
	case SummaryOriginLink:
		return "summary_origin_link"
	case HeadingLevel1:
		return "heading_level1"
	case TrailingLink:
		return "trailing_link"
	default:
		return "plain"
	}
}

var (
	captureRe = regexp.MustCompile(`cubox://\S*`)
	originRe  = regexp.MustCompile(`https://cubox\.pro/my/highlight\?id=\S*`)
	headingRe = regexp.MustCompile(`^#\s+`)
	anyLinkRe = regexp.MustCompile(`https?://\S*`)
)

// Classify reports which clutter pattern, if any, line matches. The patterns
// are independent; the first one that matches is reported.
func Classify(line string) Match {
	switch {
	case captureRe.MatchString(line):
		return CaptureToolLink
	case originRe.MatchString(line):
		return SummaryOriginLink
	case headingRe.MatchString(line):
		return HeadingLevel1
	default:
		return Plain
	}
}

// Removal describes one deleted line.
type Removal struct {
	Line int    `json:"line"` // index in the buffer before stripping
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Report lists the lines removed by Strip.
type Report struct {
	Removed []Removal `json:"removed"`
}

// Changed reports whether Strip deleted anything.
func (r Report) Changed() bool {
	return len(r.Removed) > 0
}

// Strip deletes every classified line from buf, then deletes the new last
// line if it still carries an http(s) link. A document with nothing to
// remove is left untouched.
func Strip(buf *buffer.Buffer) (Report, error) {
	var rep Report

	n := buf.LineCount()
	var doomed []int
	for i := 0; i < n; i++ {
		line, err := buf.Line(i)
		if err != nil {
			return rep, err
		}
		if m := Classify(line); m != Plain {
			doomed = append(doomed, i)
			rep.Removed = append(rep.Removed, Removal{Line: i, Kind: m.String(), Text: line})
		}
	}

	// Descending order keeps the remaining indices valid.
	for j := len(doomed) - 1; j >= 0; j-- {
		if err := buf.DeleteLine(doomed[j]); err != nil {
			return rep, err
		}
	}
	n -= len(doomed)

	// Everything was removed; the buffer holds one empty line.
	if n <= 0 {
		return rep, nil
	}

	last, err := buf.Line(n - 1)
	if err != nil {
		return rep, err
	}
	if anyLinkRe.MatchString(last) {
		if err := buf.DeleteLine(n - 1); err != nil {
			return rep, err
		}
		rep.Removed = append(rep.Removed, Removal{Line: originalIndex(n-1, doomed), Kind: TrailingLink.String(), Text: last})
	}
	return rep, nil
}

// originalIndex maps an index in the stripped buffer back to the index the
// line had before the doomed lines were deleted.
func originalIndex(i int, doomed []int) int {
	for _, d := range doomed {
		if d <= i {
			i++
		}
	}
	return i
}
