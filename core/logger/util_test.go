package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSanitizeStripsControlRunes(t *testing.T) {
	in := "hello\x00 world\x1b[0m\ttabs ok\nnewlines ok"
	out := Sanitize(in)
	if strings.ContainsAny(out, "\x00\x1b") {
		t.Fatalf("control runes survived: %q", out)
	}
	if !strings.Contains(out, "\t") || !strings.Contains(out, "\n") {
		t.Fatalf("tab/newline should survive: %q", out)
	}
}

func TestSanitizeLimitRunes(t *testing.T) {
	in := "привет мир"
	out := SanitizeLimit(in, 6)
	if got := len([]rune(out)); got != 6 {
		t.Fatalf("expected 6 runes, got %d (%q)", got, out)
	}
	if SanitizeLimit(in, 0) != "" {
		t.Fatal("zero limit should yield empty string")
	}
}

func TestBuildRID(t *testing.T) {
	if rid := BuildRID(42, -100123, 7); rid != "42:-100123:7" {
		t.Fatalf("unexpected rid: %s", rid)
	}
}

func TestLogEventCarriesContextMeta(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(slog.NewTextHandler(buf, nil)).With("component", "test")

	ctx := WithRID(Background(), "1:2:3")
	ctx = WithUpdateMeta(ctx, 1, 3, 2)
	ctx = WithHandler(ctx, "callback.settings")

	LogEvent(ctx, log, slog.LevelInfo, "unit.event", slog.String("status", "ok"))

	line := buf.String()
	for _, want := range []string{"component=test", "event=unit.event", "status=ok", "rid=1:2:3", "handler=callback.settings", "chat_id=2", "user_id=3"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q in %q", want, line)
		}
	}
}
