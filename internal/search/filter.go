package search

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/davidpaquet/search-sessions/internal/model"
)

// FilteredResult is a result that survived fuzzy narrowing, with the rune
// positions in its filter text that matched the pattern.
type FilteredResult struct {
	Result         model.ScoredResult
	Index          int
	MatchedIndexes []int
}

type resultSource struct {
	results []model.ScoredResult
}

func (s resultSource) String(i int) string {
	return FilterText(s.results[i])
}

func (s resultSource) Len() int {
	return len(s.results)
}

// FilterLabel is the single-line label that leads a result's filter text.
func FilterLabel(r model.ScoredResult) string {
	return strings.Join(strings.Fields(r.Session.Label()), " ")
}

// FilterText is the string a result is fuzzy-matched against.
func FilterText(r model.ScoredResult) string {
	// Combine searchable fields for better matching
	return strings.TrimSpace(fmt.Sprintf("%s %s %s %s",
		FilterLabel(r),
		r.Snippet,
		r.Session.ProjectPath,
		r.SessionID,
	))
}

// FilterResults narrows already-ranked results with a fuzzy pattern, keeping
// the ranked order. An empty pattern keeps everything.
func FilterResults(results []model.ScoredResult, pattern string) []FilteredResult {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		out := make([]FilteredResult, len(results))
		for i, r := range results {
			out[i] = FilteredResult{Result: r, Index: i}
		}
		return out
	}

	matches := fuzzy.FindFrom(pattern, resultSource{results: results})
	byIndex := make(map[int][]int, len(matches))
	for _, m := range matches {
		byIndex[m.Index] = m.MatchedIndexes
	}

	out := make([]FilteredResult, 0, len(matches))
	for i, r := range results {
		idx, ok := byIndex[i]
		if !ok {
			continue
		}
		out = append(out, FilteredResult{Result: r, Index: i, MatchedIndexes: runeIndexes(FilterText(r), idx)})
	}
	return out
}

// runeIndexes converts the byte offsets reported by the fuzzy matcher into
// rune positions of text.
func runeIndexes(text string, byteIdx []int) []int {
	if len(byteIdx) == 0 {
		return nil
	}
	positions := make(map[int]int, len(text))
	n := 0
	for i := range text {
		positions[i] = n
		n++
	}
	out := make([]int, 0, len(byteIdx))
	for _, b := range byteIdx {
		if r, ok := positions[b]; ok {
			out = append(out, r)
		}
	}
	return out
}

// HighlightText applies highlighting to matched characters
func HighlightText(text string, indices []int, highlightStyle func(string) string) string {
	if len(indices) == 0 {
		return text
	}

	// Convert to runes for proper Unicode handling
	runes := []rune(text)
	var result strings.Builder

	indexMap := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < len(runes) {
			indexMap[idx] = true
		}
	}

	for i, r := range runes {
		if indexMap[i] {
			result.WriteString(highlightStyle(string(r)))
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}
