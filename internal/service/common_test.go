package service

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestStringPreviewKeepsRunesIntact(t *testing.T) {
	body := strings.Repeat("Привет ", 30)

	got := stringPreview(body, 120)
	if !utf8.ValidString(got) {
		t.Fatalf("preview split a multi-byte rune: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 120 {
		t.Fatalf("expected 120 runes, got %d", n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncation marker, got %q", got)
	}

	if got := stringPreview("  ünïcödé  ", 120); got != "ünïcödé" {
		t.Fatalf("short body should only be trimmed, got %q", got)
	}
	if got := stringPreview("日本語テキスト", 2); got != "日本" {
		t.Fatalf("tiny limit should cut without marker, got %q", got)
	}
}
