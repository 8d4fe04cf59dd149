package services

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// ExtractText sniffs the true file type from bytes and extracts plain text.
// Book files are PDFs or plaintext (txt/md); anything else is an error.
func ExtractText(originalName string, mimeType string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	mt := strings.ToLower(strings.TrimSpace(mimeType))

	if len(data) == 0 {
		return "", fmt.Errorf("empty file: name=%s mime=%s", originalName, mimeType)
	}

	if isPDF(data) {
		return extractPDF(data)
	}
	if isProbablyText(data) || mt == "text/plain" || ext == ".txt" || ext == ".md" {
		return collapseWhitespace(string(data)), nil
	}
	if mt == "application/pdf" || ext == ".pdf" {
		return "", fmt.Errorf("file claims pdf but missing %%PDF header: name=%s mime=%s", originalName, mimeType)
	}
	return "", fmt.Errorf("unsupported file type: name=%s ext=%s mime=%s", originalName, ext, mimeType)
}

func isPDF(b []byte) bool {
	// PDF starts with "%PDF-"
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isProbablyText(b []byte) bool {
	// Mostly printable or whitespace bytes and no NULs.
	n := len(b)
	if n > 4096 {
		n = 4096
	}
	sample := b[:n]
	good := 0
	for _, c := range sample {
		if c == 0x00 {
			return false
		}
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
			good++
		}
	}
	return float64(good)/float64(len(sample)) > 0.9
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return collapseWhitespace(string(b)), nil
}

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
