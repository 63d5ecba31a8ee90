package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkMarkdown_ProseThenTable(t *testing.T) {
	src := "# Title\n\nSome text.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"

	chunks, err := ChunkMarkdown(src, Options{ChunkSize: 2048})
	if err != nil {
		t.Fatalf("chunk failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if !strings.Contains(chunks[0], "Some text.") {
		t.Errorf("chunk 0 should hold the prose, got %q", chunks[0])
	}
	if !strings.Contains(chunks[1], "| 1 | 2 |") {
		t.Errorf("chunk 1 should hold the table, got %q", chunks[1])
	}
}

func TestChunkMarkdown_ElementOrderFollowsOffsets(t *testing.T) {
	src := "alpha prose\n\n| h |\n|---|\n| r |\n\nbeta prose\n\n```go\nfunc f() {}\n```\n\ngamma prose\n"

	chunks, err := ChunkMarkdown(src, Options{ChunkSize: 2048})
	if err != nil {
		t.Fatalf("chunk failed: %v", err)
	}
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d: %q", len(chunks), chunks)
	}

	wantOrder := []string{"alpha prose", "| r |", "beta prose", "func f() {}", "gamma prose"}
	for i, want := range wantOrder {
		if !strings.Contains(chunks[i], want) {
			t.Errorf("chunk %d: expected to contain %q, got %q", i, want, chunks[i])
		}
	}
}

func TestChunkMarkdown_CodeFallbackUnknownLanguage(t *testing.T) {
	src := "```klingon\nnuqneH 'ej maj\n```\n"

	chunks, err := ChunkMarkdown(src, Options{ChunkSize: 2048})
	if err != nil {
		t.Fatalf("unknown language must not surface an error, got %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk from the prose fallback")
	}
	if !strings.Contains(chunks[0], "nuqneH") {
		t.Errorf("fallback chunk should keep the raw content, got %q", chunks[0])
	}
}

func TestChunkMarkdown_TrimIdempotent(t *testing.T) {
	src := "   leading space\n\n| a |\n|---|\n| 1 |\n\n```go\nfunc g() {}\n```\n"

	chunks, err := ChunkMarkdown(src, Options{ChunkSize: 2048})
	if err != nil {
		t.Fatalf("chunk failed: %v", err)
	}
	for i, c := range chunks {
		if c != strings.TrimSpace(c) {
			t.Errorf("chunk %d not trimmed: %q", i, c)
		}
	}
}

func TestChunkMarkdown_ProseSizeBound(t *testing.T) {
	src := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 50)

	const size = 100
	chunks, err := ChunkMarkdown(src, Options{ChunkSize: size})
	if err != nil {
		t.Fatalf("chunk failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > size {
			t.Errorf("chunk %d: %d runes exceeds chunk size %d", i, n, size)
		}
	}
}

func TestChunkMarkdown_TableSizeBound(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("| id | name |\n|---|---|\n")
	for range 60 {
		sb.WriteString("| 1 | abcdef |\n")
	}

	const size = 120
	chunks, err := ChunkMarkdown(sb.String(), Options{ChunkSize: size})
	if err != nil {
		t.Fatalf("chunk failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected the table to split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > size {
			t.Errorf("chunk %d: %d runes exceeds chunk size %d", i, n, size)
		}
		if !strings.HasPrefix(c, "| id | name |") {
			t.Errorf("chunk %d should repeat the header, got %q", i, c)
		}
	}
}

func TestChunkMarkdown_EmptyDocument(t *testing.T) {
	chunks, err := ChunkMarkdown("", Options{})
	if err != nil {
		t.Fatalf("chunk failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %q", chunks)
	}
}

func TestChunkMarkdown_LanguageRulesGated(t *testing.T) {
	src := "Short sentence one. Short sentence two.\n"

	// An unsupported code must behave exactly like the default rules.
	def, err := ChunkMarkdown(src, Options{ChunkSize: 2048})
	if err != nil {
		t.Fatalf("chunk failed: %v", err)
	}
	bogus, err := ChunkMarkdown(src, Options{ChunkSize: 2048, LanguageCode: "xx"})
	if err != nil {
		t.Fatalf("chunk failed: %v", err)
	}
	if len(def) != len(bogus) {
		t.Fatalf("unsupported language must use default rules: %d vs %d chunks", len(def), len(bogus))
	}
	for i := range def {
		if def[i] != bogus[i] {
			t.Errorf("chunk %d differs: %q vs %q", i, def[i], bogus[i])
		}
	}
}

func TestIsSupportedLanguage(t *testing.T) {
	for _, code := range []string{"en", "zh", "pt-BR", "am", "zu"} {
		if !IsSupportedLanguage(code) {
			t.Errorf("%s should be supported", code)
		}
	}
	for _, code := range []string{"", "xx", "EN", "pt-br", "klingon"} {
		if IsSupportedLanguage(code) {
			t.Errorf("%s should not be supported", code)
		}
	}
}
