package util

import (
	"strings"
	"testing"
	"time"
)

func TestDayKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	ts := time.Date(2024, 10, 11, 3, 0, 0, 0, loc) // 2024-10-10 20:00 UTC
	if got := DayKey(ts); got != "2024-10-10" {
		t.Fatalf("unexpected day %s", got)
	}
}

func TestNormalizeCommand(t *testing.T) {
	cases := map[string]string{
		"/pause":           "/pause",
		"  /status  ":      "/status",
		"/resume@tick_bot": "/resume",
		"/start@bot extra": "/start extra",
		"hello":            "hello",
	}
	for in, want := range cases {
		if got := NormalizeCommand(in); got != want {
			t.Fatalf("NormalizeCommand(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitChunks(t *testing.T) {
	if SplitChunks("", 10) != nil {
		t.Fatalf("expected nil for empty text")
	}
	if got := SplitChunks("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("unexpected %v", got)
	}
	text := strings.Repeat("a", 25)
	got := SplitChunks(text, 10)
	if len(got) != 3 || strings.Join(got, "") != text {
		t.Fatalf("unexpected chunks %v", got)
	}
	for _, c := range got {
		if len(c) > 10 {
			t.Fatalf("chunk too long: %d", len(c))
		}
	}
	lines := "line one\nline two\nline three"
	got = SplitChunks(lines, 12)
	if strings.Join(got, "") != lines {
		t.Fatalf("lost text: %v", got)
	}
}
