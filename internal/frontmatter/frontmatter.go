// Package frontmatter reads and stamps the YAML front matter of Markdown notes.
package frontmatter

import (
	"bytes"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	delim = "---"

	// CreatedKey is the front matter field written by Stamp.
	CreatedKey = "created"

	// DateLayout is the format of the created date.
	DateLayout = "2006-01-02"
)

// Split separates YAML front matter (between leading --- delimiters) from the
// Markdown body. If no front matter is found, or it is not valid YAML, the
// entire content is body.
func Split(data []byte) (map[string]any, string) {
	if !bytes.HasPrefix(data, []byte(delim)) {
		return nil, string(data)
	}

	rest := data[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\r\n")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return fm, body
}

// HasCreated reports whether content already carries a created field.
func HasCreated(content string) bool {
	fm, _ := Split([]byte(content))
	_, ok := fm[CreatedKey]
	return ok
}

// Stamp adds "created: YYYY-MM-DD" for day to the front matter of content.
// Content without front matter gets a new three-line block; otherwise the
// field is inserted directly after the opening delimiter. Content that
// already has a created field is returned unchanged with false.
func Stamp(content string, day time.Time) (string, bool) {
	if HasCreated(content) {
		return content, false
	}
	field := CreatedKey + ": " + day.Format(DateLayout)

	if !strings.HasPrefix(content, delim) {
		return delim + "\n" + field + "\n" + delim + "\n" + content, true
	}

	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[0], field)
	out = append(out, lines[1:]...)
	return strings.Join(out, "\n"), true
}

// Body returns content with any front matter removed.
func Body(content string) string {
	fm, body := Split([]byte(content))
	if fm == nil {
		return content
	}
	return body
}
