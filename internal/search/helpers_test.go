package search

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/davidpaquet/search-sessions/internal/model"
	"github.com/davidpaquet/search-sessions/internal/parser"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func mustQuery(t *testing.T, raw string) model.Query {
	t.Helper()
	q, err := model.NewQuery(raw)
	require.NoError(t, err)
	return q
}

// contentCorpus builds a small Claude-layout tree:
//
//	-proj-alpha: s1 (three matching lines, one corrupt line), s2 (one match)
//	-proj-beta:  u1, a transcript no index covers
func contentCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	alpha := filepath.Join(root, "-proj-alpha")
	writeFile(t, filepath.Join(alpha, parser.IndexFileName), `{
  "originalPath": "/proj/alpha",
  "entries": [
    {"sessionId": "s1", "summary": "video tooling", "modified": "2026-01-02T00:00:00Z"},
    {"sessionId": "s2", "summary": "more video", "modified": "2026-01-03T00:00:00Z"}
  ]
}`)
	writeFile(t, filepath.Join(alpha, "s1.jsonl"), `{"type":"summary","summary":"ffmpeg notes"}
{"type":"user","sessionId":"s1","message":{"content":"how do I use FFmpeg to trim"}}
{broken ffmpeg
{"type":"assistant","sessionId":"s1","message":{"content":[{"type":"text","text":"Run ffmpeg -ss 10 -i in.mp4 out.mp4"}]}}
{"type":"assistant","sessionId":"s1","message":{"content":[{"type":"tool_use","name":"Bash","input":{"command":"ffmpeg -version"}}]}}
{"type":"user","sessionId":"s1","message":{"content":"thanks, ffmpeg worked"}}
`)
	writeFile(t, filepath.Join(alpha, "s2.jsonl"), `{"type":"user","sessionId":"s2","message":{"content":"convert video with ffmpeg"}}
`)
	writeFile(t, filepath.Join(root, "-proj-beta", "u1.jsonl"), `{"type":"assistant","text":"nothing relevant"}
{"type":"assistant","text":"ffmpeg again"}
`)
	return root
}

func corpusSessions(t *testing.T, root, filter string) []model.SessionInfo {
	t.Helper()
	seq, err := parser.NewClaudeSource(root, nil).Sessions(context.Background(), filter, parser.EnumerateOptions{IncludeUnindexed: true})
	require.NoError(t, err)
	return parser.Collect(seq)
}

// allLinesStrategy reports every line of every file, in reverse file order,
// to prove that verification downstream does not depend on the strategy.
type allLinesStrategy struct{}

func (allLinesStrategy) Name() string { return "all-lines" }

func (allLinesStrategy) Scan(_ context.Context, files []string, _ model.Query) ([]LineHit, error) {
	var hits []LineHit
	for i := len(files) - 1; i >= 0; i-- {
		data, err := os.ReadFile(files[i])
		if err != nil {
			return nil, err
		}
		for n, line := range bytes.Split(data, []byte("\n")) {
			if len(line) > 0 {
				hits = append(hits, LineHit{Path: files[i], Line: n + 1, Text: line})
			}
		}
	}
	return hits, nil
}

type failingStrategy struct{ called *bool }

func (failingStrategy) Name() string { return "failing" }

func (f failingStrategy) Scan(context.Context, []string, model.Query) ([]LineHit, error) {
	if f.called != nil {
		*f.called = true
	}
	return nil, errors.New("exit status 2")
}
