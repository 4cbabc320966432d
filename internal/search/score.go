package search

import (
	"github.com/davidpaquet/search-sessions/internal/model"
)

// Field weights for metadata scoring.
const (
	WeightSummary     = 3.0
	WeightFirstPrompt = 2.0
	WeightLocation    = 1.0
)

// ScoreMetadata scores a session's metadata against the whole query string.
// Each field is tested independently for case-insensitive containment and the
// weights add up; branch and project path together contribute at most
// WeightLocation. The returned field is the heaviest one that matched.
func ScoreMetadata(meta model.SessionMetadata, q model.Query) (float64, model.Field) {
	score := 0.0
	field := model.FieldNone
	hit := func(value string, weight float64, f model.Field) bool {
		if !q.MatchString(value) {
			return false
		}
		score += weight
		if field == model.FieldNone {
			field = f
		}
		return true
	}

	hit(meta.Summary, WeightSummary, model.FieldSummary)
	hit(meta.FirstPrompt, WeightFirstPrompt, model.FieldFirstPrompt)
	if !hit(meta.GitBranch, WeightLocation, model.FieldGitBranch) {
		hit(meta.ProjectPath, WeightLocation, model.FieldProjectPath)
	}
	return score, field
}
