package analytics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stefanbaur/errsight/pkg/models"
)

// Normalization regexes compiled once at package init.
var (
	reNonWord    = regexp.MustCompile(`[^\w\s]`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// NormalizeText builds the canonical text representation of a record for
// vector comparison: type, cleaned content, severity, and a code token,
// lower-cased and trimmed. An empty result is valid and short-circuits
// similarity/clustering with empty output downstream.
func NormalizeText(r models.ErrorRecord) string {
	parts := make([]string, 0, 4)

	if r.Type != "" {
		parts = append(parts, r.Type)
	}
	if r.Content != "" {
		content := reNonWord.ReplaceAllString(r.Content, " ")
		content = reWhitespace.ReplaceAllString(content, " ")
		parts = append(parts, content)
	}
	if r.Severity != "" {
		parts = append(parts, r.Severity)
	}
	if r.Code != 0 {
		parts = append(parts, fmt.Sprintf("code_%d", r.Code))
	}

	joined := strings.ToLower(strings.Join(parts, " "))
	return strings.TrimSpace(reWhitespace.ReplaceAllString(joined, " "))
}
