package notice

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLog_LevelMapping(t *testing.T) {
	var buf bytes.Buffer
	l := Log{Logger: slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	l.Notify(context.Background(), Notice{Level: Error, Message: "summary failed", Path: "clips/a.md"})
	out := buf.String()
	if !strings.Contains(out, `"level":"ERROR"`) {
		t.Errorf("log line %q lacks ERROR level", out)
	}
	if !strings.Contains(out, `"path":"clips/a.md"`) {
		t.Errorf("log line %q lacks path", out)
	}
}

func TestMulti_FansOut(t *testing.T) {
	a, b := NewRecorder(4), NewRecorder(4)
	Multi{a, nil, b}.Notify(context.Background(), Notice{Message: "hi"})
	if len(a.Drain()) != 1 || len(b.Drain()) != 1 {
		t.Error("each notifier should receive the notice once")
	}
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	r := NewRecorder(1)
	r.Notify(context.Background(), Notice{Message: "1"})
	r.Notify(context.Background(), Notice{Message: "2"})
	got := r.Drain()
	if len(got) != 1 || got[0].Message != "1" {
		t.Errorf("Drain = %+v", got)
	}
}
