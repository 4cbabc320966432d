package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/davidpaquet/search-sessions/internal/config"
	"github.com/davidpaquet/search-sessions/internal/model"
	"github.com/davidpaquet/search-sessions/internal/observability"
	"github.com/davidpaquet/search-sessions/internal/parser"
	"github.com/davidpaquet/search-sessions/internal/search"
	"github.com/davidpaquet/search-sessions/internal/ui"
)

const version = "v0.3.0"

type options struct {
	deep        bool
	openclaw    bool
	agent       string
	project     string
	limit       int
	claudeDir   string
	openclawDir string
	noRipgrep   bool
	workers     int
	jsonOutput  bool
	interactive bool
	verbose     bool
	configPath  string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "search-sessions <query...>",
		Short: "Search past Claude Code and OpenClaw sessions",
		Long: `Search past Claude Code and OpenClaw sessions.

By default only session metadata (summary, first prompt, branch, project) is
searched. --deep searches every user and assistant message, using ripgrep when
it is installed and a built-in parallel scanner otherwise.`,
		Example: `  search-sessions kubernetes rbac
  search-sessions --deep ffmpeg --project video
  search-sessions --openclaw --agent research "security audit"
  search-sessions --deep -i docker`,
		Args:          cobra.ArbitraryArgs,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.BoolVar(&opts.deep, "deep", false, "search full message content instead of metadata")
	f.BoolVar(&opts.openclaw, "openclaw", false, "search OpenClaw sessions instead of Claude Code")
	f.StringVar(&opts.agent, "agent", config.DefaultAgent, "OpenClaw agent whose sessions are searched")
	f.StringVar(&opts.project, "project", "", "only sessions whose project path contains this text")
	f.IntVar(&opts.limit, "limit", config.DefaultLimit, "maximum results to show (0 for all)")
	f.StringVar(&opts.claudeDir, "claude-dir", "", "Claude projects directory (default ~/.claude/projects)")
	f.StringVar(&opts.openclawDir, "openclaw-dir", "", "OpenClaw home directory (default ~/.openclaw)")
	f.BoolVar(&opts.noRipgrep, "no-rg", false, "never use ripgrep, always scan in-process")
	f.IntVar(&opts.workers, "workers", 0, "parallel workers for the built-in scanner (default one per CPU)")
	f.BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "browse results interactively")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress and skipped records to stderr")
	f.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/search-sessions/config.yaml)")
	cmd.MarkFlagsMutuallyExclusive("json", "interactive")

	return cmd
}

func run(cmd *cobra.Command, opts *options, args []string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if opts.verbose {
		level = "debug"
	}
	observability.Setup(stderr, level)
	ctx, _ := observability.NewRun(cmd.Context())
	logger := observability.LoggerFromContext(ctx)
	logger.Debug("starting search", "version", version)

	// Reject an empty query before touching the filesystem
	query := strings.Join(args, " ")
	if _, err := model.NewQuery(query); err != nil {
		return err
	}

	source := newSource(cfg, opts, logger)
	mode := model.ModeIndex
	if opts.deep {
		mode = model.ModeContent
	}
	if !source.SupportsIndex() && mode == model.ModeIndex {
		fmt.Fprintln(stderr, "NOTE: OpenClaw mode uses deep search by default (no index files).")
	}

	scannerCfg := cfg.ScannerConfig()
	scannerCfg.Logger = logger
	engine := search.NewEngine(source, search.NewContentScanner(scannerCfg))
	req := search.Request{
		Query:   query,
		Mode:    mode,
		Project: opts.project,
		Limit:   cfg.Limit,
	}

	if opts.interactive {
		app := ui.NewApp(ctx, engine, req, version)
		_, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	}

	out, err := engine.Search(ctx, req)
	if err != nil {
		if errors.Is(err, parser.ErrRootUnavailable) && opts.openclaw {
			return fmt.Errorf("%w\n       Make sure OpenClaw is installed and has session history", err)
		}
		return err
	}

	if opts.jsonOutput {
		return ui.WriteJSON(stdout, out)
	}
	ui.NewPrinter(stdout).Print(out)
	return nil
}

// loadConfig layers command-line flags over the file and environment.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("claude-dir") {
		cfg.ClaudeDir = opts.claudeDir
	}
	if flags.Changed("openclaw-dir") {
		cfg.OpenClawHome = opts.openclawDir
	}
	if flags.Changed("agent") {
		cfg.Agent = opts.agent
	}
	if flags.Changed("limit") {
		cfg.Limit = opts.limit
	}
	if flags.Changed("workers") {
		cfg.Search.Workers = opts.workers
	}
	if opts.noRipgrep {
		cfg.Search.DisableRipgrep = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSource(cfg *config.Config, opts *options, logger *slog.Logger) parser.Source {
	if opts.openclaw {
		return parser.NewOpenClawSource(cfg.OpenClawSessionsDir(), cfg.OpenClawWorkspace(), logger)
	}
	return parser.NewClaudeSource(cfg.ClaudeDir, logger)
}
