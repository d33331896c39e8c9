package tidy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/starford/notetidy/internal/apperr"
	"github.com/starford/notetidy/internal/journal"
	"github.com/starford/notetidy/internal/notice"
	"github.com/starford/notetidy/internal/summary"
	"github.com/starford/notetidy/internal/testutil"
)

func fixedSummary(text string, calls *atomic.Int32, prompts chan<- string) summary.Func {
	return func(_ context.Context, prompt string) (string, error) {
		if calls != nil {
			calls.Add(1)
		}
		if prompts != nil {
			prompts <- prompt
		}
		return text, nil
	}
}

func TestSummarizeNote(t *testing.T) {
	prompts := make(chan string, 1)
	env := newEnv(t, fixedSummary("short\nsummary", nil, prompts))
	testutil.WriteNote(t, env.vault, "Clippings/a.md", "body\n")

	res, err := env.svc.SummarizeNote(context.Background(), env.st(), "Clippings/a.md")
	if err != nil {
		t.Fatalf("SummarizeNote: %v", err)
	}
	if res.Anchor != 2 || res.Summary != "- short summary" {
		t.Errorf("result = %+v", res)
	}
	if got := testutil.ReadNote(t, env.vault, "Clippings/a.md"); got != "body\n# 总结\n- short summary\n" {
		t.Errorf("content = %q", got)
	}
	if p := <-prompts; p != "Summarize the following note in under 100 words:\nbody\n" {
		t.Errorf("prompt = %q", p)
	}

	want := []string{"summary_pending:Clippings/a.md", "summarized:Clippings/a.md"}
	if got := env.events.all(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}
	if e := env.lastEntry(t, "Clippings/a.md", journal.ActionSummarize); e.Status != journal.StatusOK {
		t.Errorf("journal status = %q", e.Status)
	}
}

func TestSummarizeNote_Twice(t *testing.T) {
	var n atomic.Int32
	sum := summary.Func(func(context.Context, string) (string, error) {
		return fmt.Sprintf("take %d", n.Add(1)), nil
	})
	env := newEnv(t, sum)
	testutil.WriteNote(t, env.vault, "Clippings/a.md", "body\n")

	for i := 0; i < 2; i++ {
		if _, err := env.svc.SummarizeNote(context.Background(), env.st(), "Clippings/a.md"); err != nil {
			t.Fatalf("SummarizeNote #%d: %v", i+1, err)
		}
	}
	got := testutil.ReadNote(t, env.vault, "Clippings/a.md")
	if strings.Count(got, "# 总结") != 1 {
		t.Errorf("section title duplicated: %q", got)
	}
	if got != "body\n# 总结\n- take 2\n" {
		t.Errorf("content = %q", got)
	}
}

func TestSummarizeNote_FailureKeepsPlaceholder(t *testing.T) {
	sum := summary.Func(func(context.Context, string) (string, error) {
		return "", fmt.Errorf("summary: 503: %w", apperr.ErrExternalCall)
	})
	env := newEnv(t, sum)
	testutil.WriteNote(t, env.vault, "Clippings/a.md", "body\n")

	_, err := env.svc.SummarizeNote(context.Background(), env.st(), "Clippings/a.md")
	if !errors.Is(err, apperr.ErrExternalCall) {
		t.Fatalf("err = %v, want ErrExternalCall", err)
	}
	if got := testutil.ReadNote(t, env.vault, "Clippings/a.md"); got != "body\n# 总结\n"+DefaultPlaceholder+"\n" {
		t.Errorf("content = %q, want the placeholder to stay", got)
	}
	notices := env.notices.Drain()
	if len(notices) != 1 || notices[0].Level != notice.Error || notices[0].Path != "Clippings/a.md" {
		t.Errorf("notices = %+v", notices)
	}
	if e := env.lastEntry(t, "Clippings/a.md", journal.ActionSummarize); e.Status != journal.StatusFailed {
		t.Errorf("journal status = %q, want failed", e.Status)
	}
}

func TestSummarizeNote_Refused(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		content string
		want    error
	}{
		{"no api key", "", "body\n", apperr.ErrConfigurationMissing},
		{"blank note", "sk-test", " \n\n", apperr.ErrEmptyInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			env := newEnv(t, fixedSummary("x", &calls, nil))
			env.settings.st.APIKey = tt.key
			testutil.WriteNote(t, env.vault, "Clippings/a.md", tt.content)

			_, err := env.svc.SummarizeNote(context.Background(), env.st(), "Clippings/a.md")
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if calls.Load() != 0 {
				t.Error("summarizer must not be called")
			}
			if got := testutil.ReadNote(t, env.vault, "Clippings/a.md"); got != tt.content {
				t.Errorf("note mutated: %q", got)
			}
			if len(env.notices.Drain()) != 1 {
				t.Error("expected one notice")
			}
		})
	}
}

func TestSummarizeNote_StaleAnchor(t *testing.T) {
	env := newEnv(t, nil)
	// An edit above the anchor lands while the request is in flight.
	env.svc.summaries = summary.Func(func(context.Context, string) (string, error) {
		content := testutil.ReadNote(t, env.vault, "Clippings/a.md")
		testutil.WriteNote(t, env.vault, "Clippings/a.md", "inserted\n"+content)
		return "late", nil
	})
	testutil.WriteNote(t, env.vault, "Clippings/a.md", "body\n")

	_, err := env.svc.SummarizeNote(context.Background(), env.st(), "Clippings/a.md")
	if !errors.Is(err, apperr.ErrStaleAnchor) {
		t.Fatalf("err = %v, want ErrStaleAnchor", err)
	}
	got := testutil.ReadNote(t, env.vault, "Clippings/a.md")
	if strings.Contains(got, "late") {
		t.Errorf("summary written at a stale anchor: %q", got)
	}
}

func TestStartSummary(t *testing.T) {
	env := newEnv(t, fixedSummary("background", nil, nil))
	testutil.WriteNote(t, env.vault, "Clippings/a.md", "body\n")

	ctx, cancel := context.WithCancel(context.Background())
	ps, err := env.svc.StartSummary(ctx, env.st(), "Clippings/a.md")
	cancel()
	if err != nil {
		t.Fatalf("StartSummary: %v", err)
	}
	if ps.Anchor != 2 {
		t.Errorf("anchor = %d, want 2", ps.Anchor)
	}

	env.sched.Wait()
	if got := testutil.ReadNote(t, env.vault, "Clippings/a.md"); got != "body\n# 总结\n- background\n" {
		t.Errorf("content = %q", got)
	}
}

func TestStartSummary_AfterShutdown(t *testing.T) {
	env := newEnv(t, fixedSummary("never", nil, nil))
	testutil.WriteNote(t, env.vault, "Clippings/a.md", "body\n")
	env.sched.Stop()

	if _, err := env.svc.StartSummary(context.Background(), env.st(), "Clippings/a.md"); err == nil {
		t.Fatal("expected an error once the scheduler is stopped")
	}
	if got := testutil.ReadNote(t, env.vault, "Clippings/a.md"); !strings.Contains(got, DefaultPlaceholder) {
		t.Errorf("content = %q, want the placeholder", got)
	}
}
