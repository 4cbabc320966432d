package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/davidpaquet/search-sessions/internal/model"
)

// ripgrepBatchSize bounds the number of files passed to one rg invocation so
// the argument list stays under the platform limit.
const ripgrepBatchSize = 512

// ErrRipgrepNotFound is returned by the availability probe.
var ErrRipgrepNotFound = errors.New("ripgrep (rg) not found")

// RipgrepStrategy delegates line search to ripgrep.
type RipgrepStrategy struct {
	path      string
	batchSize int
}

// NewRipgrepStrategy locates the rg binary without running it.
func NewRipgrepStrategy(explicit string) (*RipgrepStrategy, error) {
	path, ok := findRipgrep(explicit)
	if !ok {
		return nil, ErrRipgrepNotFound
	}
	return &RipgrepStrategy{path: path, batchSize: ripgrepBatchSize}, nil
}

func findRipgrep(explicit string) (string, bool) {
	// Try common ripgrep locations
	paths := []string{
		"rg",
		"/usr/local/bin/rg",
		"/usr/bin/rg",
		"/opt/homebrew/bin/rg",
	}
	if explicit != "" {
		paths = []string{explicit}
	}

	for _, path := range paths {
		if resolved, err := exec.LookPath(path); err == nil {
			return resolved, true
		}
	}
	return "", false
}

func (r *RipgrepStrategy) Name() string { return "ripgrep" }

// Path is the resolved rg binary.
func (r *RipgrepStrategy) Path() string { return r.path }

func (r *RipgrepStrategy) Scan(ctx context.Context, files []string, q model.Query) ([]LineHit, error) {
	var hits []LineHit
	for start := 0; start < len(files); start += r.batchSize {
		end := min(start+r.batchSize, len(files))
		batch, err := r.scanBatch(ctx, files[start:end], q)
		if err != nil {
			return nil, err
		}
		hits = append(hits, batch...)
	}
	return hits, nil
}

func (r *RipgrepStrategy) args(files []string, q model.Query) []string {
	args := []string{
		"--json",
		"--no-config",
		"--ignore-case",
		"--fixed-strings",
		"--line-number",
		"--text",
		"--",
		q.Raw,
	}
	return append(args, files...)
}

func (r *RipgrepStrategy) scanBatch(ctx context.Context, files []string, q model.Query) ([]LineHit, error) {
	cmd := exec.CommandContext(ctx, r.path, r.args(files, q)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ripgrep stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ripgrep: %w", err)
	}

	hits, parseErr := parseRipgrepJSON(stdout)
	// drain so rg never blocks on a full pipe if parsing stopped early
	_, _ = io.Copy(io.Discard, stdout)

	if err := cmd.Wait(); err != nil {
		// Exit code 1 means no matches, which is not an error for us
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("ripgrep failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if parseErr != nil {
		return nil, fmt.Errorf("parse ripgrep output: %w", parseErr)
	}
	return hits, nil
}

type rgText struct {
	Text  *string `json:"text"`
	Bytes *string `json:"bytes"`
}

func (t rgText) decode() ([]byte, error) {
	if t.Text != nil {
		return []byte(*t.Text), nil
	}
	if t.Bytes != nil {
		return base64.StdEncoding.DecodeString(*t.Bytes)
	}
	return nil, errors.New("empty ripgrep text")
}

type rgEvent struct {
	Type string `json:"type"`
	Data struct {
		Path       rgText `json:"path"`
		Lines      rgText `json:"lines"`
		LineNumber int    `json:"line_number"`
	} `json:"data"`
}

// parseRipgrepJSON reads rg --json output and returns its match events.
func parseRipgrepJSON(r io.Reader) ([]LineHit, error) {
	reader := bufio.NewReaderSize(r, 256*1024)
	var hits []LineHit
	for {
		line, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var evt rgEvent
			if jsonErr := json.Unmarshal(line, &evt); jsonErr != nil {
				return hits, jsonErr
			}
			if evt.Type == "match" {
				path, perr := evt.Data.Path.decode()
				text, terr := evt.Data.Lines.decode()
				if perr == nil && terr == nil {
					hits = append(hits, LineHit{
						Path: string(path),
						Line: evt.Data.LineNumber,
						Text: bytes.TrimRight(text, "\r\n"),
					})
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return hits, nil
			}
			return hits, err
		}
	}
}
