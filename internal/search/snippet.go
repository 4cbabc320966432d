package search

import (
	"strings"
	"unicode"

	"github.com/davidpaquet/search-sessions/internal/model"
)

const (
	// DefaultContextChars is the number of characters kept on each side of a match.
	DefaultContextChars = 80
	// MaxSnippetLen bounds the prefix shown when the query cannot be located.
	MaxSnippetLen = 200

	ellipsis = "..."
)

// ExtractSnippet returns a window of text around the first case-insensitive
// occurrence of the query, or of the first query term that occurs. Windows are
// measured in characters, never bytes, so multi-byte text is never split.
func ExtractSnippet(text string, q model.Query, contextChars int) string {
	if contextChars <= 0 {
		contextChars = DefaultContextChars
	}

	runes := []rune(text)
	folded := foldRunes(runes)

	idx, length := -1, 0
	for _, needle := range append([]string{q.Raw}, q.Terms...) {
		pattern := foldRunes([]rune(needle))
		if len(pattern) == 0 {
			continue
		}
		if i := indexRunes(folded, pattern); i >= 0 {
			idx, length = i, len(pattern)
			break
		}
	}

	if idx < 0 {
		return clip(runes, 0, min(len(runes), MaxSnippetLen))
	}

	start := max(0, idx-contextChars)
	end := min(len(runes), idx+length+contextChars)
	return clip(runes, start, end)
}

// clip renders runes[start:end] with ellipsis markers where text was cut and
// whitespace runs collapsed.
func clip(runes []rune, start, end int) string {
	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(strings.Join(strings.Fields(string(runes[start:end])), " "))
	if end < len(runes) {
		b.WriteString(ellipsis)
	}
	return b.String()
}

// foldRunes lowercases rune by rune so indexes stay aligned with the input.
func foldRunes(runes []rune) []rune {
	out := make([]rune, len(runes))
	for i, r := range runes {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func indexRunes(haystack, needle []rune) int {
	n := len(needle)
	for i := 0; i+n <= len(haystack); i++ {
		match := true
		for j := 0; j < n; j++ {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
