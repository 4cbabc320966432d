package parser

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"strings"

	"github.com/davidpaquet/search-sessions/internal/model"
)

// ErrRootUnavailable reports a storage root that is missing or unreadable.
var ErrRootUnavailable = errors.New("session directory not found")

// EnumerateOptions tunes a single enumeration pass.
type EnumerateOptions struct {
	// IncludeUnindexed also yields transcripts that no metadata index covers.
	IncludeUnindexed bool
}

// Source enumerates the sessions of one storage layout.
type Source interface {
	Layout() model.Layout
	Root() string
	// SupportsIndex reports whether sessions carry searchable metadata
	// (summary, first prompt) without reading transcripts.
	SupportsIndex() bool
	// Sessions checks the root and returns a lazy sequence of sessions whose
	// project path contains filter. Root problems are the only error.
	Sessions(ctx context.Context, filter string, opts EnumerateOptions) (iter.Seq[model.SessionInfo], error)
	// Skipped counts malformed records passed over so far.
	Skipped() int
}

// Collect drains a session sequence into a slice.
func Collect(seq iter.Seq[model.SessionInfo]) []model.SessionInfo {
	var sessions []model.SessionInfo
	for s := range seq {
		sessions = append(sessions, s)
	}
	return sessions
}

// MatchesProject is the case-insensitive project substring filter.
func MatchesProject(projectPath, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(projectPath), strings.ToLower(filter))
}

func readRoot(root string) ([]os.DirEntry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRootUnavailable, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRootUnavailable, root)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRootUnavailable, root, err)
	}
	return entries, nil
}
