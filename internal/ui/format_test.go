package ui

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidpaquet/search-sessions/internal/model"
	"github.com/davidpaquet/search-sessions/internal/search"
)

func indexOutcome(t *testing.T) search.Outcome {
	t.Helper()
	q, err := model.NewQuery("kubernetes")
	require.NoError(t, err)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return search.Outcome{
		Query:  q,
		Mode:   model.ModeIndex,
		Layout: model.LayoutClaude,
		Total:  3,
		Results: []model.ScoredResult{{
			SessionID: "abc",
			Score:     3,
			Session: model.SessionMetadata{
				ID:           "abc",
				Summary:      "Kubernetes RBAC configuration",
				FirstPrompt:  "help me debug rbac",
				ProjectPath:  "/srv/infra",
				GitBranch:    "main",
				Created:      created,
				Modified:     created,
				MessageCount: 12,
			},
			MatchedField: model.FieldSummary,
		}},
	}
}

func contentOutcome(t *testing.T) search.Outcome {
	t.Helper()
	q, err := model.NewQuery("ffmpeg")
	require.NoError(t, err)
	return search.Outcome{
		Query:    q,
		Mode:     model.ModeContent,
		Layout:   model.LayoutOpenClaw,
		Total:    1,
		Strategy: "builtin",
		Skipped:  2,
		Results: []model.ScoredResult{{
			SessionID:  "oc-1",
			Score:      1,
			Session:    model.SessionMetadata{ID: "oc-1", ProjectPath: "/srv/clawd"},
			Snippet:    "...using  ffmpeg\nto convert...",
			Role:       model.RoleAssistant,
			LineNumber: 7,
			Timestamp:  time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC),
		}},
	}
}

func TestPrintIndex(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Print(indexOutcome(t))
	out := buf.String()

	assert.Contains(t, out, `INDEX SEARCH: "kubernetes"`)
	assert.Contains(t, out, "3 matches found (showing top 1)")
	assert.Contains(t, out, "[1] Kubernetes RBAC configuration")
	assert.Contains(t, out, "Project:  /srv/infra")
	assert.Contains(t, out, "Branch:   main")
	assert.Contains(t, out, "Date:     2026-03-01 10:00")
	assert.Contains(t, out, "Messages: 12")
	assert.Contains(t, out, "Matched:  summary (score 3)")
	assert.Contains(t, out, "Prompt:   help me debug rbac")
	assert.Contains(t, out, "Resume:   claude --resume abc")
	assert.NotContains(t, out, "\x1b[", "redirected output is plain")
}

func TestPrintIndexEmpty(t *testing.T) {
	out := indexOutcome(t)
	out.Results, out.Total = nil, 0

	var buf bytes.Buffer
	NewPrinter(&buf).Print(out)
	assert.Contains(t, buf.String(), "0 matches found\n")
	assert.Contains(t, buf.String(), "No matches found in session metadata.")
}

func TestPrintContent(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Print(contentOutcome(t))
	out := buf.String()

	assert.Contains(t, out, `DEEP SEARCH (OPENCLAW): "ffmpeg"`)
	assert.Contains(t, out, "1 matches found\n")
	assert.Contains(t, out, "[1] [ASST] (no summary)")
	assert.Contains(t, out, "Snippet:  ...using ffmpeg to convert...")
	assert.Contains(t, out, "Session:  oc-1 (line 7)")
	assert.Contains(t, out, "Date:     2026-02-01 08:30")
	assert.Contains(t, out, "2 unreadable records skipped")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, contentOutcome(t)))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "ffmpeg", doc["query"])
	assert.Equal(t, "content", doc["mode"])
	assert.Equal(t, "openclaw", doc["layout"])
	assert.EqualValues(t, 1, doc["shown"])

	results := doc["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "assistant", first["role"])
	assert.EqualValues(t, 7, first["lineNumber"])
	assert.Equal(t, "openclaw --session oc-1", first["resume"])
	assert.NotContains(t, first, "created", "zero times are omitted")

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, indexOutcome(t)))
	assert.True(t, strings.Contains(buf.String(), `"matchedField": "summary"`))
	assert.False(t, strings.Contains(buf.String(), `"snippet"`))
}

func TestShortPath(t *testing.T) {
	p := &Printer{home: "/home/me"}
	assert.Equal(t, "~/work/a", p.shortPath("/home/me/work/a"))
	assert.Equal(t, "/srv/x", p.shortPath("/srv/x"))
	assert.Equal(t, "unknown", p.shortPath(""))
}
