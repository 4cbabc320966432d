package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davidpaquet/search-sessions/internal/model"
)

func TestScoreMetadata(t *testing.T) {
	meta := model.SessionMetadata{
		ID:          "abc",
		Summary:     "Kubernetes RBAC configuration",
		FirstPrompt: "help me debug rbac",
		ProjectPath: "/home/me/infra",
		GitBranch:   "feature/rbac-fix",
	}

	tests := []struct {
		name  string
		query string
		score float64
		field model.Field
	}{
		{"summary only", "kubernetes", 3, model.FieldSummary},
		{"every field", "rbac", 6, model.FieldSummary},
		{"first prompt only", "debug", 2, model.FieldFirstPrompt},
		{"branch", "feature", 1, model.FieldGitBranch},
		{"project path", "infra", 1, model.FieldProjectPath},
		{"case insensitive", "KUBERNETES rbac", 3, model.FieldSummary},
		{"no match", "terraform", 0, model.FieldNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, field := ScoreMetadata(meta, mustQuery(t, tt.query))
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestScoreMetadataLocationCountsOnce(t *testing.T) {
	meta := model.SessionMetadata{ProjectPath: "/src/payments", GitBranch: "payments-v2"}
	score, field := ScoreMetadata(meta, mustQuery(t, "payments"))
	assert.Equal(t, WeightLocation, score)
	assert.Equal(t, model.FieldGitBranch, field)
}

func TestScoreMetadataMonotonic(t *testing.T) {
	q := mustQuery(t, "deploy")
	base := model.SessionMetadata{GitBranch: "deploy-fix"}
	baseScore, _ := ScoreMetadata(base, q)

	withPrompt := base
	withPrompt.FirstPrompt = "please deploy this"
	promptScore, _ := ScoreMetadata(withPrompt, q)

	withSummary := withPrompt
	withSummary.Summary = "Deploy pipeline"
	summaryScore, _ := ScoreMetadata(withSummary, q)

	assert.Greater(t, promptScore, baseScore)
	assert.Greater(t, summaryScore, promptScore)
	assert.Equal(t, WeightSummary+WeightFirstPrompt+WeightLocation, summaryScore)
}
