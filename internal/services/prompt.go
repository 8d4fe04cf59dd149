package services

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

// PromptVersion is stamped on every artifact so regenerated content can be
// told apart from content produced by an older template.
const PromptVersion = "v1"

// maxPromptTextChars bounds how much extracted book text goes into a prompt.
const maxPromptTextChars = 6000

//go:embed prompts/*.tmpl
var promptFS embed.FS

var promptTemplates = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

type summaryPromptData struct {
	Title  string
	Author string
	Text   string
}

type reviewPromptEntry struct {
	Rating int
	Text   string
}

type consensusPromptData struct {
	Title   string
	Reviews []reviewPromptEntry
}

func truncateForPrompt(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxPromptTextChars {
		return text
	}
	return text[:maxPromptTextChars]
}

// BuildSummaryPrompt renders the summary template over the extracted text.
func BuildSummaryPrompt(title, author, text string) (string, error) {
	data := summaryPromptData{Title: title, Author: author, Text: truncateForPrompt(text)}
	var sb strings.Builder
	if err := promptTemplates.ExecuteTemplate(&sb, "summary.tmpl", data); err != nil {
		return "", fmt.Errorf("render summary prompt: %w", err)
	}
	return sb.String(), nil
}

// BuildConsensusPrompt renders the review consensus template. The combined
// review text shares the same character budget as the summary input; reviews
// past the cutoff are truncated or dropped.
func BuildConsensusPrompt(title string, ratings []int, texts []string) (string, error) {
	if len(ratings) != len(texts) {
		return "", fmt.Errorf("ratings and texts length mismatch: %d vs %d", len(ratings), len(texts))
	}
	entries := make([]reviewPromptEntry, 0, len(ratings))
	remaining := maxPromptTextChars
	for i := range ratings {
		if remaining <= 0 {
			break
		}
		text := strings.TrimSpace(texts[i])
		if len(text) > remaining {
			text = text[:remaining]
		}
		remaining -= len(text)
		entries = append(entries, reviewPromptEntry{Rating: ratings[i], Text: text})
	}
	data := consensusPromptData{Title: title, Reviews: entries}
	var sb strings.Builder
	if err := promptTemplates.ExecuteTemplate(&sb, "consensus.tmpl", data); err != nil {
		return "", fmt.Errorf("render consensus prompt: %w", err)
	}
	return sb.String(), nil
}
