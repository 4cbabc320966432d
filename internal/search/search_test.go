package search

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/davidpaquet/search-sessions/internal/model"
)

func TestContentSearch(t *testing.T) {
	tmpDir := t.TempDir()

	// Create test JSONL content with known search terms
	testContent1 := `{"type":"message","message":{"role":"user","content":"I need help with OAuth implementation"}}
{"type":"message","message":{"role":"assistant","content":"I'll help you implement OAuth. Here's how..."}}
{"type":"message","message":{"role":"user","content":"Can you show me the OAuth flow?"}}
`

	testContent2 := `{"type":"message","message":{"role":"user","content":"My webpack build is failing"}}
{"type":"message","message":{"role":"assistant","content":"Let me help debug your webpack configuration"}}
{"type":"message","message":{"role":"user","content":"The error says webpack cannot find module"}}
`

	file1 := filepath.Join(tmpDir, "session1.jsonl")
	file2 := filepath.Join(tmpDir, "session2.jsonl")

	if err := os.WriteFile(file1, []byte(testContent1), 0644); err != nil {
		t.Fatalf("Failed to write test file 1: %v", err)
	}
	if err := os.WriteFile(file2, []byte(testContent2), 0644); err != nil {
		t.Fatalf("Failed to write test file 2: %v", err)
	}

	sessions := []model.SessionInfo{
		{Metadata: model.SessionMetadata{ID: "test-session-1"}, FilePath: file1},
		{Metadata: model.SessionMetadata{ID: "test-session-2"}, FilePath: file2},
	}

	scanner := NewContentScanner(ScannerConfig{MaxMatchesPerSession: 5})
	ctx := context.Background()

	search := func(t *testing.T, query string) []model.ScoredResult {
		q, err := model.NewQuery(query)
		if err != nil {
			t.Fatalf("NewQuery(%q): %v", query, err)
		}
		res, err := scanner.Scan(ctx, sessions, q)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		return res.Results
	}

	t.Run("Search for OAuth", func(t *testing.T) {
		results := search(t, "OAuth")
		if len(results) != 3 {
			t.Errorf("Expected 3 matches for 'OAuth', got %d", len(results))
		}
		for _, r := range results {
			if r.SessionID != "test-session-1" {
				t.Errorf("unexpected session %q", r.SessionID)
			}
		}
	})

	t.Run("Search for webpack", func(t *testing.T) {
		results := search(t, "webpack")
		if len(results) != 3 {
			t.Errorf("Expected 3 matches for 'webpack', got %d", len(results))
		}
	})

	t.Run("Search across multiple files", func(t *testing.T) {
		results := search(t, "help")
		seen := map[string]bool{}
		for _, r := range results {
			seen[r.SessionID] = true
		}
		if len(seen) != 2 {
			t.Errorf("Expected 2 sessions for 'help', got %d", len(seen))
		}
	})

	t.Run("Search for non-existent term", func(t *testing.T) {
		results := search(t, "nonexistentterm")
		if len(results) != 0 {
			t.Errorf("Expected 0 results for 'nonexistentterm', got %d", len(results))
		}
	})
}

// Test ripgrep detection
func TestFindRipgrep(t *testing.T) {
	rgPath, ok := findRipgrep("")
	if !ok {
		t.Skip("Ripgrep not found, skipping test")
	}

	cmd := exec.Command(rgPath, "--version")
	output, err := cmd.Output()
	if err != nil {
		t.Errorf("Failed to execute ripgrep at %s: %v", rgPath, err)
	}

	t.Logf("Found ripgrep at: %s", rgPath)
	t.Logf("Version: %s", string(output))
}

func TestFindRipgrepExplicitMissing(t *testing.T) {
	if _, ok := findRipgrep(filepath.Join(t.TempDir(), "no-such-rg")); ok {
		t.Fatal("expected explicit missing binary to be reported as unavailable")
	}
	if _, err := NewRipgrepStrategy(filepath.Join(t.TempDir(), "no-such-rg")); err != ErrRipgrepNotFound {
		t.Fatalf("expected ErrRipgrepNotFound, got %v", err)
	}
}
