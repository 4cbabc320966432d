package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidpaquet/search-sessions/internal/model"
)

func TestFilterResults(t *testing.T) {
	results := []model.ScoredResult{
		{SessionID: "1", Session: model.SessionMetadata{Summary: "Kubernetes RBAC", ProjectPath: "/src/infra"}},
		{SessionID: "2", Session: model.SessionMetadata{Summary: "webpack build"}, Snippet: "cannot find module"},
		{SessionID: "3", Session: model.SessionMetadata{FirstPrompt: "debug kube dns"}},
	}

	t.Run("empty pattern keeps everything", func(t *testing.T) {
		out := FilterResults(results, "  ")
		require.Len(t, out, 3)
		for i, r := range out {
			assert.Equal(t, i, r.Index)
			assert.Empty(t, r.MatchedIndexes)
		}
	})

	t.Run("keeps ranked order", func(t *testing.T) {
		out := FilterResults(results, "kube")
		require.Len(t, out, 2)
		assert.Equal(t, "1", out[0].Result.SessionID)
		assert.Equal(t, "3", out[1].Result.SessionID)
		assert.NotEmpty(t, out[0].MatchedIndexes)
	})

	t.Run("matches snippet text", func(t *testing.T) {
		out := FilterResults(results, "findmod")
		require.Len(t, out, 1)
		assert.Equal(t, 1, out[0].Index)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, FilterResults(results, "zzzz"))
	})
}

func TestFilterResultsMultibyteLabels(t *testing.T) {
	results := []model.ScoredResult{
		{SessionID: "1", Session: model.SessionMetadata{Summary: "Café kubernetes"}},
		{SessionID: "2", Session: model.SessionMetadata{Summary: "日本\n  kube notes"}},
	}
	assert.Equal(t, "日本 kube notes", FilterLabel(results[1]))
	assert.True(t, strings.HasPrefix(FilterText(results[1]), "日本 kube notes "))

	out := FilterResults(results, "kube")
	require.Len(t, out, 2)
	assert.Equal(t, []int{5, 6, 7, 8}, out[0].MatchedIndexes)
	assert.Equal(t, []int{3, 4, 5, 6}, out[1].MatchedIndexes)

	mark := func(s string) string { return "[" + s + "]" }
	assert.Equal(t, "Café [k][u][b][e]rnetes", HighlightText(FilterLabel(out[0].Result), out[0].MatchedIndexes, mark))
	assert.Equal(t, "日本 [k][u][b][e] notes", HighlightText(FilterLabel(out[1].Result), out[1].MatchedIndexes, mark))
}

func TestRuneIndexes(t *testing.T) {
	assert.Equal(t, []int{0, 1, 3}, runeIndexes("aé日b", []int{0, 1, 6}))
	assert.Equal(t, []int{1}, runeIndexes("aé", []int{1, 2, 40}), "offsets inside a rune are dropped")
	assert.Nil(t, runeIndexes("abc", nil))
}

func TestHighlightText(t *testing.T) {
	upper := func(s string) string { return strings.ToUpper(s) }
	assert.Equal(t, "hEllO", HighlightText("hello", []int{1, 4, 9}, upper))
	assert.Equal(t, "plain", HighlightText("plain", nil, upper))
	assert.Equal(t, "日[本]語", HighlightText("日本語", []int{1}, func(s string) string { return "[" + s + "]" }))
}
