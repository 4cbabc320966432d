package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/davidpaquet/search-sessions/internal/model"
	"github.com/davidpaquet/search-sessions/internal/observability"
	"github.com/davidpaquet/search-sessions/internal/parser"
)

// DefaultMaxMatchesPerSession caps how many lines of one session are reported.
const DefaultMaxMatchesPerSession = 2

// LineHit is a candidate transcript line produced by a ScanStrategy.
type LineHit struct {
	Path string
	Line int
	Text []byte
}

// ScanStrategy finds lines containing the query in a set of files.
// Strategies may over-report; every hit is verified again by the scanner.
type ScanStrategy interface {
	Name() string
	Scan(ctx context.Context, files []string, q model.Query) ([]LineHit, error)
}

// ScannerConfig configures a ContentScanner.
type ScannerConfig struct {
	RipgrepPath          string
	DisableRipgrep       bool
	Workers              int
	ContextChars         int
	MaxMatchesPerSession int
	Logger               *slog.Logger
}

// ScanResult is the outcome of one content scan.
type ScanResult struct {
	Results  []model.ScoredResult
	Strategy string
	Skipped  int
}

// ContentScanner runs the preferred strategy and transparently falls back to
// the built-in one when it fails. Callers only ever see results.
type ContentScanner struct {
	primary       ScanStrategy
	fallback      ScanStrategy
	contextChars  int
	maxPerSession int
	log           *slog.Logger
}

// NewContentScanner probes for ripgrep once and wires the strategies.
func NewContentScanner(cfg ScannerConfig) *ContentScanner {
	cfg = withDefaults(cfg)
	var primary ScanStrategy
	if !cfg.DisableRipgrep {
		if rg, err := NewRipgrepStrategy(cfg.RipgrepPath); err == nil {
			primary = rg
		} else {
			cfg.Logger.Debug("ripgrep unavailable, using built-in scanner", "error", err)
		}
	}
	return NewContentScannerWith(primary, NewFallbackStrategy(cfg.Workers, cfg.Logger), cfg)
}

// NewContentScannerWith builds a scanner from explicit strategies. primary may be nil.
func NewContentScannerWith(primary, fallback ScanStrategy, cfg ScannerConfig) *ContentScanner {
	cfg = withDefaults(cfg)
	if fallback == nil {
		fallback = NewFallbackStrategy(cfg.Workers, cfg.Logger)
	}
	return &ContentScanner{
		primary:       primary,
		fallback:      fallback,
		contextChars:  cfg.ContextChars,
		maxPerSession: cfg.MaxMatchesPerSession,
		log:           cfg.Logger,
	}
}

func withDefaults(cfg ScannerConfig) ScannerConfig {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.ContextChars <= 0 {
		cfg.ContextChars = DefaultContextChars
	}
	if cfg.MaxMatchesPerSession <= 0 {
		cfg.MaxMatchesPerSession = DefaultMaxMatchesPerSession
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.Logger()
	}
	return cfg
}

// Strategy names the strategy tried first.
func (c *ContentScanner) Strategy() string {
	if c.primary != nil {
		return c.primary.Name()
	}
	return c.fallback.Name()
}

// Scan searches the transcripts of sessions for q.
func (c *ContentScanner) Scan(ctx context.Context, sessions []model.SessionInfo, q model.Query) (ScanResult, error) {
	bySession := make(map[string]model.SessionInfo, len(sessions))
	files := make([]string, 0, len(sessions))
	for _, s := range sessions {
		path := filepath.Clean(s.FilePath)
		if _, dup := bySession[path]; dup {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			c.log.Debug("transcript missing", "session", s.ID(), "path", path)
			continue
		}
		s.FilePath = path
		bySession[path] = s
		files = append(files, path)
	}
	if len(files) == 0 {
		return ScanResult{Strategy: c.Strategy()}, nil
	}

	hits, strategy, err := c.runStrategies(ctx, files, q)
	if err != nil {
		return ScanResult{}, err
	}

	results, skipped := c.collect(hits, bySession, files, q)
	return ScanResult{Results: results, Strategy: strategy, Skipped: skipped}, nil
}

func (c *ContentScanner) runStrategies(ctx context.Context, files []string, q model.Query) ([]LineHit, string, error) {
	if c.primary != nil {
		hits, err := c.primary.Scan(ctx, files, q)
		if err == nil {
			return hits, c.primary.Name(), nil
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		c.log.Debug("primary scan failed, falling back", "strategy", c.primary.Name(), "error", err)
	}

	hits, err := c.fallback.Scan(ctx, files, q)
	if err != nil {
		return nil, "", fmt.Errorf("content scan: %w", err)
	}
	return hits, c.fallback.Name(), nil
}

// collect applies the strategy-independent part of a scan: verification,
// decoding, snippet extraction and the per-session cap.
func (c *ContentScanner) collect(hits []LineHit, bySession map[string]model.SessionInfo, files []string, q model.Query) ([]model.ScoredResult, int) {
	byFile := make(map[string][]LineHit)
	for _, h := range hits {
		path := filepath.Clean(h.Path)
		if _, ok := bySession[path]; !ok {
			continue
		}
		byFile[path] = append(byFile[path], h)
	}

	var results []model.ScoredResult
	skipped := 0
	for _, path := range files {
		fileHits := byFile[path]
		if len(fileHits) == 0 {
			continue
		}
		sort.SliceStable(fileHits, func(i, j int) bool { return fileHits[i].Line < fileHits[j].Line })

		session := bySession[path]
		var sessionResults []model.ScoredResult
		matched := 0
		lastLine := -1
		for _, h := range fileHits {
			if h.Line == lastLine {
				continue
			}
			lastLine = h.Line
			if !q.MatchBytes(h.Text) {
				continue
			}
			rec, err := parser.DecodeMessage(h.Text)
			if err != nil {
				skipped++
				continue
			}
			if rec.Role != model.RoleUser && rec.Role != model.RoleAssistant {
				continue
			}
			if rec.Text == "" || !q.MatchAllTerms(rec.Text) {
				continue
			}
			matched++
			if len(sessionResults) >= c.maxPerSession {
				continue
			}
			ts := rec.Timestamp
			if ts.IsZero() {
				ts = session.Metadata.Modified
			}
			sessionResults = append(sessionResults, model.ScoredResult{
				Session:    session.Metadata,
				SessionID:  session.ID(),
				Snippet:    ExtractSnippet(rec.Text, q, c.contextChars),
				Role:       rec.Role,
				LineNumber: h.Line,
				FilePath:   path,
				Timestamp:  ts,
			})
		}
		for i := range sessionResults {
			sessionResults[i].Score = float64(matched)
		}
		results = append(results, sessionResults...)
	}
	return results, skipped
}
