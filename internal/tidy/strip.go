package tidy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/starford/notetidy/internal/annotate"
	"github.com/starford/notetidy/internal/buffer"
	"github.com/starford/notetidy/internal/frontmatter"
	"github.com/starford/notetidy/internal/journal"
	"github.com/starford/notetidy/internal/settings"
	"github.com/starford/notetidy/internal/storage"
)

// StampResult reports the outcome of StampCreated.
type StampResult struct {
	Path    string `json:"path"`
	Stamped bool   `json:"stamped"`
	Created string `json:"created"`
}

// StampCreated adds today's date as the created field of a note in the
// target folder. A note that already has one is left alone.
func (s *Service) StampCreated(ctx context.Context, st settings.Settings, p string) (*StampResult, error) {
	p = cleanPath(p)
	if err := gate(st, p); err != nil {
		return nil, s.fail(ctx, p, "stamp", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read(p)
	if err != nil {
		return nil, s.fail(ctx, p, "stamp", err)
	}
	day := s.now()
	res := &StampResult{Path: p, Created: day.Format(frontmatter.DateLayout)}

	out, changed := frontmatter.Stamp(string(data), day)
	if !changed {
		s.record(journal.Entry{Path: p, Action: journal.ActionStamp, Status: journal.StatusSkipped, Detail: "created already set"})
		return res, nil
	}
	if err := s.store.Write(p, []byte(out)); err != nil {
		s.record(journal.Entry{Path: p, Action: journal.ActionStamp, Status: journal.StatusFailed, Detail: err.Error()})
		return nil, s.fail(ctx, p, "stamp", err)
	}
	res.Stamped = true
	s.record(journal.Entry{
		Path:           p,
		Action:         journal.ActionStamp,
		Status:         journal.StatusOK,
		Detail:         frontmatter.CreatedKey + ": " + res.Created,
		ChecksumBefore: storage.Checksum(data),
		ChecksumAfter:  storage.Checksum([]byte(out)),
	})
	s.publish(EventStamped, p)
	s.logger.InfoContext(ctx, "tidy: stamped", slog.String("path", p), slog.String("created", res.Created))
	return res, nil
}

// StripResult reports the outcome of StripNote.
type StripResult struct {
	Path    string             `json:"path"`
	DryRun  bool               `json:"dry_run"`
	Changed bool               `json:"changed"`
	Removed []annotate.Removal `json:"removed"`
	Diff    string             `json:"diff,omitempty"`
}

// StripNote removes annotation clutter from a note in the target folder.
// With dryRun the note is not written and the result carries a line diff.
func (s *Service) StripNote(ctx context.Context, st settings.Settings, p string, dryRun bool) (*StripResult, error) {
	p = cleanPath(p)
	if err := gate(st, p); err != nil {
		return nil, s.fail(ctx, p, "strip", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read(p)
	if err != nil {
		return nil, s.fail(ctx, p, "strip", err)
	}
	buf := buffer.Parse(data)
	rep, err := annotate.Strip(buf)
	if err != nil {
		return nil, s.fail(ctx, p, "strip", err)
	}
	out := buf.Bytes()

	res := &StripResult{
		Path:    p,
		DryRun:  dryRun,
		Changed: rep.Changed(),
		Removed: rep.Removed,
	}
	if res.Removed == nil {
		res.Removed = []annotate.Removal{}
	}
	if dryRun {
		if res.Changed {
			res.Diff = lineDiff(string(data), string(out))
		}
		return res, nil
	}

	if !res.Changed {
		s.record(journal.Entry{Path: p, Action: journal.ActionStrip, Status: journal.StatusSkipped, Detail: "nothing to remove"})
		return res, nil
	}
	if err := s.store.Write(p, out); err != nil {
		s.record(journal.Entry{Path: p, Action: journal.ActionStrip, Status: journal.StatusFailed, Detail: err.Error()})
		return nil, s.fail(ctx, p, "strip", err)
	}
	s.record(journal.Entry{
		Path:           p,
		Action:         journal.ActionStrip,
		Status:         journal.StatusOK,
		Detail:         fmt.Sprintf("removed %d lines", len(rep.Removed)),
		ChecksumBefore: storage.Checksum(data),
		ChecksumAfter:  storage.Checksum(out),
	})
	s.publish(EventStripped, p)
	s.logger.InfoContext(ctx, "tidy: stripped", slog.String("path", p), slog.Int("removed", len(rep.Removed)))
	return res, nil
}

// lineDiff renders a line-level diff of before and after. Removed lines are
// prefixed with "-", added ones with "+", unchanged ones with a space.
func lineDiff(before, after string) string {
	if !strings.HasSuffix(before, "\n") {
		before += "\n"
	}
	if !strings.HasSuffix(after, "\n") {
		after += "\n"
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
		}
	}
	return sb.String()
}
