package services

import (
	"strings"
	"testing"
)

func TestExtractTextPlain(t *testing.T) {
	got, err := ExtractText("notes.txt", "text/plain", []byte("  line one\n\n  line\ttwo  "))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "line one line two" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractTextSniffsOverExtension(t *testing.T) {
	// Plaintext bytes behind a misleading name still extract as text.
	got, err := ExtractText("manuscript", "", []byte("just words"))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "just words" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractTextClaimsPDFWithoutHeader(t *testing.T) {
	_, err := ExtractText("book.pdf", "application/pdf", []byte{0x00, 0x01, 0x02, 0x03})
	if err == nil || !strings.Contains(err.Error(), "PDF header") {
		t.Fatalf("err=%v, want missing-header error", err)
	}
}

func TestExtractTextUnsupported(t *testing.T) {
	if _, err := ExtractText("cover.png", "image/png", []byte{0x89, 0x50, 0x4E, 0x47, 0x00}); err == nil {
		t.Fatal("expected unsupported type error")
	}
}

func TestExtractTextEmpty(t *testing.T) {
	if _, err := ExtractText("empty.txt", "text/plain", nil); err == nil {
		t.Fatal("expected error for empty file")
	}
}
