package search

import (
	"context"
	"fmt"

	"github.com/davidpaquet/search-sessions/internal/model"
	"github.com/davidpaquet/search-sessions/internal/observability"
	"github.com/davidpaquet/search-sessions/internal/parser"
)

// Request is one search invocation.
type Request struct {
	Query   string
	Mode    model.Mode
	Project string
	Limit   int
}

// Outcome is everything the presentation layer needs about a finished search.
type Outcome struct {
	Query    model.Query
	Mode     model.Mode
	Layout   model.Layout
	Results  []model.ScoredResult
	Total    int
	Strategy string
	Skipped  int
}

type Engine interface {
	Search(ctx context.Context, req Request) (Outcome, error)
}

type engine struct {
	source  parser.Source
	scanner *ContentScanner
}

// NewEngine wires a storage layout to the content scanner. Nothing is cached
// between searches.
func NewEngine(source parser.Source, scanner *ContentScanner) Engine {
	if scanner == nil {
		scanner = NewContentScanner(ScannerConfig{})
	}
	return &engine{
		source:  source,
		scanner: scanner,
	}
}

func (e *engine) Search(ctx context.Context, req Request) (Outcome, error) {
	q, err := model.NewQuery(req.Query)
	if err != nil {
		return Outcome{}, err
	}

	mode := req.Mode
	if mode == model.ModeIndex && !e.source.SupportsIndex() {
		mode = model.ModeContent
	}

	out := Outcome{
		Query:  q,
		Mode:   mode,
		Layout: e.source.Layout(),
	}
	log := observability.LoggerFromContext(ctx).With(
		"mode", mode.String(),
		"layout", out.Layout.String(),
	)

	skippedBefore := e.source.Skipped()
	var results []model.ScoredResult
	switch mode {
	case model.ModeIndex:
		results, err = e.searchIndex(ctx, q, req.Project)
	case model.ModeContent:
		var scan ScanResult
		scan, err = e.searchContent(ctx, q, req.Project)
		results = scan.Results
		out.Strategy = scan.Strategy
		out.Skipped = scan.Skipped
	default:
		return Outcome{}, fmt.Errorf("unknown search mode %d", mode)
	}
	if err != nil {
		return Outcome{}, err
	}

	out.Skipped += e.source.Skipped() - skippedBefore
	out.Results, out.Total = Rank(results, req.Limit)
	log.Debug("search finished", "total", out.Total, "shown", len(out.Results),
		"strategy", out.Strategy, "skipped", out.Skipped)
	return out, nil
}

func (e *engine) searchIndex(ctx context.Context, q model.Query, project string) ([]model.ScoredResult, error) {
	seq, err := e.source.Sessions(ctx, project, parser.EnumerateOptions{})
	if err != nil {
		return nil, err
	}

	var results []model.ScoredResult
	for s := range seq {
		score, field := ScoreMetadata(s.Metadata, q)
		if score <= 0 {
			continue
		}
		results = append(results, model.ScoredResult{
			Session:      s.Metadata,
			SessionID:    s.ID(),
			Score:        score,
			MatchedField: field,
			FilePath:     s.FilePath,
			Timestamp:    s.Metadata.Modified,
		})
	}
	return results, ctx.Err()
}

func (e *engine) searchContent(ctx context.Context, q model.Query, project string) (ScanResult, error) {
	seq, err := e.source.Sessions(ctx, project, parser.EnumerateOptions{IncludeUnindexed: true})
	if err != nil {
		return ScanResult{}, err
	}
	sessions := parser.Collect(seq)
	if err := ctx.Err(); err != nil {
		return ScanResult{}, err
	}
	return e.scanner.Scan(ctx, sessions, q)
}
