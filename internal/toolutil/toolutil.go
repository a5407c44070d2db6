// Package toolutil provides shared helpers for the go_ytsum MCP tools and CLI.
package toolutil

import (
	"strings"

	"github.com/anatolykoptev/go_ytsum/internal/engine"
	"github.com/anatolykoptev/go_ytsum/internal/summarize"
)

// NormLang normalises a language field: empty string → "en".
func NormLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return summarize.DefaultLanguage
	}
	return lang
}

// ClipText caps text at maxChars runes on a word boundary. maxChars <= 0
// returns text unchanged. The second result reports whether text was cut.
func ClipText(text string, maxChars int) (string, bool) {
	if maxChars <= 0 || len([]rune(text)) <= maxChars {
		return text, false
	}
	return engine.TruncateAtWord(text, maxChars), true
}

// Preview returns a one-line preview of text for logs and progress output.
func Preview(text string, n int) string {
	return engine.TruncateRunes(engine.CollapseSpace(text), n, "…")
}
