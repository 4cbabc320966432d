package search

import (
	"sort"

	"github.com/davidpaquet/search-sessions/internal/model"
)

// Rank orders results by score, then most recently modified session, then
// session id and line number, and truncates to limit after the full sort.
// total is the number of results before truncation. limit <= 0 keeps all.
func Rank(results []model.ScoredResult, limit int) (ranked []model.ScoredResult, total int) {
	ranked = make([]model.ScoredResult, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Session.Modified.Equal(b.Session.Modified) {
			return a.Session.Modified.After(b.Session.Modified)
		}
		if a.SessionID != b.SessionID {
			return a.SessionID < b.SessionID
		}
		return a.LineNumber < b.LineNumber
	})

	total = len(ranked)
	if limit > 0 && total > limit {
		ranked = ranked[:limit]
	}
	return ranked, total
}
