package parser

import (
	"context"
	"encoding/json"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/davidpaquet/search-sessions/internal/model"
	"github.com/davidpaquet/search-sessions/internal/observability"
)

// IndexFileName is the per-project metadata side-car.
const IndexFileName = "sessions-index.json"

type sessionIndex struct {
	OriginalPath string              `json:"originalPath"`
	Entries      []sessionIndexEntry `json:"entries"`
}

type sessionIndexEntry struct {
	SessionID    string `json:"sessionId"`
	FullPath     string `json:"fullPath"`
	FirstPrompt  string `json:"firstPrompt"`
	Summary      string `json:"summary"`
	MessageCount int    `json:"messageCount"`
	Created      string `json:"created"`
	Modified     string `json:"modified"`
	GitBranch    string `json:"gitBranch"`
	ProjectPath  string `json:"projectPath"`
}

// ClaudeSource reads the multi-project layout: one directory per project,
// each with an optional sessions-index.json and one transcript per session.
type ClaudeSource struct {
	root    string
	log     *slog.Logger
	skipped atomic.Int64
}

// NewClaudeSource creates a source rooted at a Claude projects directory.
func NewClaudeSource(root string, logger *slog.Logger) *ClaudeSource {
	if logger == nil {
		logger = observability.Logger()
	}
	return &ClaudeSource{
		root: filepath.Clean(root),
		log:  logger.With("layout", model.LayoutClaude.String()),
	}
}

func (c *ClaudeSource) Layout() model.Layout { return model.LayoutClaude }
func (c *ClaudeSource) Root() string         { return c.root }
func (c *ClaudeSource) SupportsIndex() bool  { return true }
func (c *ClaudeSource) Skipped() int         { return int(c.skipped.Load()) }

func (c *ClaudeSource) Sessions(ctx context.Context, filter string, opts EnumerateOptions) (iter.Seq[model.SessionInfo], error) {
	entries, err := readRoot(c.root)
	if err != nil {
		return nil, err
	}

	projects := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	sort.Strings(projects)

	return func(yield func(model.SessionInfo) bool) {
		for _, name := range projects {
			if ctx.Err() != nil {
				return
			}
			if !c.yieldProject(filepath.Join(c.root, name), filter, opts, yield) {
				return
			}
		}
	}, nil
}

// yieldProject emits the sessions of one project directory. It returns false
// when the consumer stopped iterating.
func (c *ClaudeSource) yieldProject(dir, filter string, opts EnumerateOptions, yield func(model.SessionInfo) bool) bool {
	defaultProject := workdirFromProjectDir(filepath.Base(dir))
	indexed := map[string]struct{}{}

	idx, err := c.loadIndex(filepath.Join(dir, IndexFileName))
	switch {
	case err == nil:
		if idx.OriginalPath != "" {
			defaultProject = idx.OriginalPath
		}
		for _, e := range idx.Entries {
			id := strings.TrimSpace(e.SessionID)
			if id == "" {
				c.skipped.Add(1)
				c.log.Warn("skipping index entry without sessionId", "project", dir)
				continue
			}
			indexed[id] = struct{}{}

			meta := model.SessionMetadata{
				ID:           id,
				ProjectPath:  firstNonEmpty(e.ProjectPath, defaultProject),
				Summary:      e.Summary,
				FirstPrompt:  e.FirstPrompt,
				GitBranch:    e.GitBranch,
				Created:      ParseTimestamp(e.Created),
				Modified:     ParseTimestamp(e.Modified),
				MessageCount: e.MessageCount,
			}
			meta.Normalize()
			if !MatchesProject(meta.ProjectPath, filter) {
				continue
			}
			if !yield(model.SessionInfo{Metadata: meta, FilePath: transcriptPath(dir, e)}) {
				return false
			}
		}
	case os.IsNotExist(err):
		if opts.IncludeUnindexed {
			c.log.Debug("project has no session index", "project", dir)
		} else {
			c.log.Warn("project has no session index", "project", dir)
		}
	default:
		c.skipped.Add(1)
		c.log.Warn("skipping unreadable session index", "project", dir, "error", err)
	}

	if !opts.IncludeUnindexed {
		return true
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		c.log.Warn("cannot list project directory", "project", dir, "error", err)
		return true
	}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".jsonl") {
			continue
		}
		id := model.GetSessionID(f.Name())
		if _, ok := indexed[id]; ok {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, f.Name())
		projectPath := firstNonEmpty(headCWD(path), defaultProject)
		// The directory name encoding is lossy for paths containing "-", so
		// the filter also applies to the raw name.
		if !MatchesProject(projectPath, filter) && !MatchesProject(filepath.Base(dir), filter) {
			continue
		}
		meta := model.SessionMetadata{
			ID:          id,
			ProjectPath: projectPath,
			Modified:    info.ModTime(),
		}
		if !yield(model.SessionInfo{Metadata: meta, FilePath: path}) {
			return false
		}
	}
	return true
}

func (c *ClaudeSource) loadIndex(path string) (sessionIndex, error) {
	var idx sessionIndex
	data, err := os.ReadFile(path)
	if err != nil {
		return idx, err
	}
	if err := json.Unmarshal(data, &idx); err != nil {
		return idx, err
	}
	return idx, nil
}

func transcriptPath(dir string, e sessionIndexEntry) string {
	if e.FullPath != "" {
		if _, err := os.Stat(e.FullPath); err == nil {
			return e.FullPath
		}
	}
	return filepath.Join(dir, strings.TrimSpace(e.SessionID)+".jsonl")
}

// headCWD returns the first working directory recorded in the head of a
// transcript, or "" when none is found.
func headCWD(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	var cwd string
	_ = ScanLines(file, func(lineNo int, line []byte) bool {
		if lineNo > headScanLines {
			return false
		}
		var header headRecord
		if json.Unmarshal(line, &header) != nil {
			return true
		}
		cwd = strings.TrimSpace(header.CWD)
		return cwd == ""
	})
	return cwd
}

// workdirFromProjectDir decodes the project directory naming scheme,
// e.g. "-Users-eric-projects-foo" -> "/Users/eric/projects/foo". Names that
// do not use the scheme are returned unchanged.
func workdirFromProjectDir(name string) string {
	if !strings.HasPrefix(name, "-") {
		return name
	}
	return filepath.Clean(strings.ReplaceAll(name, "-", "/"))
}
