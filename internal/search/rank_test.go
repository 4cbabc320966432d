package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidpaquet/search-sessions/internal/model"
)

func scored(id string, score float64, modified time.Time, line int) model.ScoredResult {
	return model.ScoredResult{
		Session:    model.SessionMetadata{ID: id, Modified: modified},
		SessionID:  id,
		Score:      score,
		LineNumber: line,
	}
}

func TestRankOrder(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	input := []model.ScoredResult{
		scored("b", 1, older, 0),
		scored("a", 1, older, 0),
		scored("c", 1, newer, 0),
		scored("d", 3, older, 7),
		scored("d", 3, older, 2),
	}

	ranked, total := Rank(input, 0)
	require.Equal(t, 5, total)

	var order []string
	for _, r := range ranked {
		order = append(order, r.SessionID)
	}
	assert.Equal(t, []string{"d", "d", "c", "a", "b"}, order)
	assert.Equal(t, 2, ranked[0].LineNumber)
	assert.Equal(t, 7, ranked[1].LineNumber)

	// input is untouched
	assert.Equal(t, "b", input[0].SessionID)
}

func TestRankTruncation(t *testing.T) {
	now := time.Now()
	var input []model.ScoredResult
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		input = append(input, scored(id, float64(i), now, 0))
	}

	for _, limit := range []int{-1, 0, 1, 3, 5, 10} {
		ranked, total := Rank(input, limit)
		assert.Equal(t, len(input), total, "limit %d", limit)
		assert.LessOrEqual(t, len(ranked), total)
		if limit > 0 && limit < total {
			assert.Len(t, ranked, limit)
		} else {
			assert.Len(t, ranked, total)
		}
		if len(ranked) > 0 {
			assert.Equal(t, "e", ranked[0].SessionID, "highest score survives truncation")
		}
	}
}

func TestRankDeterministic(t *testing.T) {
	now := time.Now()
	input := []model.ScoredResult{
		scored("x", 2, now, 4),
		scored("y", 2, now, 1),
		scored("x", 2, now, 1),
	}
	reversed := []model.ScoredResult{input[2], input[1], input[0]}

	first, _ := Rank(input, 0)
	second, _ := Rank(reversed, 0)
	assert.Equal(t, first, second)
}
