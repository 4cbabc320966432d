package parser

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenClawSourceSynthesizesMetadata(t *testing.T) {
	root := filepath.Join(t.TempDir(), "agents", "main", "sessions")
	writeFile(t, filepath.Join(root, "test-openclaw-1.jsonl"), `{"type":"session","id":"test-openclaw-1","cwd":"/home/user/projects/myapp","timestamp":"2026-02-01T08:00:00Z"}
{"type":"message","message":{"role":"user","content":[{"type":"text","text":"HEARTBEAT check"}]}}
not json
{"type":"message","message":{"role":"user","content":[{"type":"text","text":"run a security audit"}]}}
{"type":"message","message":{"role":"assistant","content":[{"type":"text","text":"starting the audit"}]}}
`)
	writeFile(t, filepath.Join(root, "old.deleted.2026.jsonl"), `{"type":"session","cwd":"/x"}`+"\n")
	writeFile(t, filepath.Join(root, "bare.jsonl"), `{"type":"message","message":{"role":"assistant","content":"hi"}}`+"\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignored")

	src := NewOpenClawSource(root, "", nil)
	assert.False(t, src.SupportsIndex())

	seq, err := src.Sessions(context.Background(), "", EnumerateOptions{})
	require.NoError(t, err)
	sessions := Collect(seq)
	require.Equal(t, []string{"bare", "test-openclaw-1"}, ids(sessions))

	bare := sessions[0].Metadata
	assert.Equal(t, filepath.Dir(root), bare.ProjectPath)
	assert.Empty(t, bare.FirstPrompt)

	meta := sessions[1].Metadata
	assert.Equal(t, "/home/user/projects/myapp", meta.ProjectPath)
	assert.Equal(t, "run a security audit", meta.FirstPrompt)
	assert.Empty(t, meta.Summary)
	assert.Equal(t, 3, meta.MessageCount)
	assert.Equal(t, 2026, meta.Created.Year())
	assert.False(t, meta.Modified.Before(meta.Created))
	assert.Equal(t, 1, src.Skipped())
}

func TestOpenClawSourceProjectFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jsonl"), `{"type":"session","cwd":"/srv/alpha"}`+"\n")
	writeFile(t, filepath.Join(root, "b.jsonl"), `{"type":"session","cwd":"/srv/beta"}`+"\n")

	seq, err := NewOpenClawSource(root, "/workspace", nil).Sessions(context.Background(), "ALPHA", EnumerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(Collect(seq)))
}

func TestOpenClawSourceMissingRoot(t *testing.T) {
	_, err := NewOpenClawSource(filepath.Join(t.TempDir(), "nope"), "", nil).
		Sessions(context.Background(), "", EnumerateOptions{})
	assert.True(t, errors.Is(err, ErrRootUnavailable))
}
