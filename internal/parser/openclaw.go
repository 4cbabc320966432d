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

const (
	headScanLines  = 100
	firstPromptMax = 200
)

// OpenClawSource reads the single-agent pool layout. There is no metadata
// index, so everything is synthesized from the head of each transcript.
type OpenClawSource struct {
	root      string
	workspace string
	log       *slog.Logger
	skipped   atomic.Int64
}

// NewOpenClawSource creates a source over an agent's sessions directory.
// workspace is the project path reported for sessions whose header has no cwd;
// when empty the agent directory is used.
func NewOpenClawSource(root, workspace string, logger *slog.Logger) *OpenClawSource {
	if logger == nil {
		logger = observability.Logger()
	}
	root = filepath.Clean(root)
	if workspace == "" {
		workspace = filepath.Dir(root)
	}
	return &OpenClawSource{
		root:      root,
		workspace: workspace,
		log:       logger.With("layout", model.LayoutOpenClaw.String()),
	}
}

func (o *OpenClawSource) Layout() model.Layout { return model.LayoutOpenClaw }
func (o *OpenClawSource) Root() string         { return o.root }
func (o *OpenClawSource) SupportsIndex() bool  { return false }
func (o *OpenClawSource) Skipped() int         { return int(o.skipped.Load()) }

func (o *OpenClawSource) Sessions(ctx context.Context, filter string, _ EnumerateOptions) (iter.Seq[model.SessionInfo], error) {
	entries, err := readRoot(o.root)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".jsonl") || strings.Contains(name, ".deleted.") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)

	return func(yield func(model.SessionInfo) bool) {
		for _, name := range files {
			if ctx.Err() != nil {
				return
			}
			path := filepath.Join(o.root, name)
			meta, err := o.readHead(path)
			if err != nil {
				o.log.Warn("skipping unreadable transcript", "path", path, "error", err)
				continue
			}
			if !MatchesProject(meta.ProjectPath, filter) {
				continue
			}
			if !yield(model.SessionInfo{Metadata: meta, FilePath: path}) {
				return
			}
		}
	}, nil
}

// headRecord holds the fields read from the first lines of a transcript.
type headRecord struct {
	Type      string `json:"type"`
	CWD       string `json:"cwd"`
	Timestamp string `json:"timestamp"`
}

// readHead synthesizes metadata from the first lines of a transcript.
func (o *OpenClawSource) readHead(path string) (model.SessionMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.SessionMetadata{}, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return model.SessionMetadata{}, err
	}

	meta := model.SessionMetadata{
		ID:       model.GetSessionID(path),
		Modified: info.ModTime(),
	}

	err = ScanLines(file, func(lineNo int, line []byte) bool {
		if lineNo > headScanLines {
			return false
		}
		var header headRecord
		if err := json.Unmarshal(line, &header); err != nil {
			o.skipped.Add(1)
			return true
		}
		if header.Type == "session" {
			meta.ProjectPath = header.CWD
			meta.Created = ParseTimestamp(header.Timestamp)
			return true
		}
		if header.Type != "message" {
			return true
		}
		meta.MessageCount++
		if meta.FirstPrompt != "" {
			return true
		}
		rec, err := DecodeMessage(line)
		if err != nil || rec.Role != model.RoleUser || isHeartbeat(rec.Text) {
			return true
		}
		meta.FirstPrompt = truncateRunes(strings.TrimSpace(rec.Text), firstPromptMax)
		return true
	})
	if err != nil {
		return model.SessionMetadata{}, err
	}

	if meta.ProjectPath == "" {
		meta.ProjectPath = o.workspace
	}
	meta.Normalize()
	return meta, nil
}

func isHeartbeat(text string) bool {
	return strings.Contains(strings.ToLower(text), "heartbeat")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
