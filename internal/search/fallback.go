package search

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/davidpaquet/search-sessions/internal/model"
	"github.com/davidpaquet/search-sessions/internal/observability"
	"github.com/davidpaquet/search-sessions/internal/parser"
)

// FallbackStrategy scans transcripts in-process, one file per worker.
type FallbackStrategy struct {
	workers int
	log     *slog.Logger
}

// NewFallbackStrategy creates the built-in scanner. workers <= 0 uses one
// worker per CPU.
func NewFallbackStrategy(workers int, logger *slog.Logger) *FallbackStrategy {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = observability.Logger()
	}
	return &FallbackStrategy{workers: workers, log: logger}
}

func (f *FallbackStrategy) Name() string { return "builtin" }

func (f *FallbackStrategy) Scan(ctx context.Context, files []string, q model.Query) ([]LineHit, error) {
	var (
		mu   sync.Mutex
		hits []LineHit
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			local, err := scanFile(gctx, path, q)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				f.log.Warn("skipping transcript", "path", path, "error", err)
				return nil
			}
			if len(local) == 0 {
				return nil
			}
			mu.Lock()
			hits = append(hits, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hits, nil
}

// scanFile reads one transcript sequentially and returns the lines that
// contain the query.
func scanFile(ctx context.Context, path string, q model.Query) ([]LineHit, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var hits []LineHit
	err = parser.ScanLines(file, func(lineNo int, line []byte) bool {
		if lineNo%4096 == 0 && ctx.Err() != nil {
			return false
		}
		if q.MatchBytes(line) {
			hits = append(hits, LineHit{Path: path, Line: lineNo, Text: line})
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return hits, ctx.Err()
}
