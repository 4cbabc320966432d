package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/davidpaquet/search-sessions/internal/search"
)

// Environment variables read by Load.
const (
	EnvClaudeDir    = "CLAUDE_DIR"
	EnvOpenClawHome = "OPENCLAW_HOME"
	EnvConfig       = "SEARCH_SESSIONS_CONFIG"
	EnvWorkers      = "SEARCH_SESSIONS_WORKERS"
	EnvLimit        = "SEARCH_SESSIONS_LIMIT"
)

const (
	DefaultLimit = 20
	DefaultAgent = "main"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the resolved configuration of one run.
type Config struct {
	ClaudeDir    string       `yaml:"claude_dir"`
	OpenClawHome string       `yaml:"openclaw_home"`
	Agent        string       `yaml:"agent"`
	Limit        int          `yaml:"limit"`
	Search       SearchConfig `yaml:"search"`
	Log          LogConfig    `yaml:"log"`
}

// SearchConfig tunes the content scanner.
type SearchConfig struct {
	Workers              int    `yaml:"workers"`
	ContextChars         int    `yaml:"context_chars"`
	MaxMatchesPerSession int    `yaml:"max_matches_per_session"`
	RipgrepPath          string `yaml:"ripgrep_path"`
	DisableRipgrep       bool   `yaml:"disable_ripgrep"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		ClaudeDir:    filepath.Join(home, ".claude", "projects"),
		OpenClawHome: filepath.Join(home, ".openclaw"),
		Agent:        DefaultAgent,
		Limit:        DefaultLimit,
		Search: SearchConfig{
			ContextChars:         search.DefaultContextChars,
			MaxMatchesPerSession: search.DefaultMaxMatchesPerSession,
		},
		Log: LogConfig{Level: "warn"},
	}
}

// DefaultConfigPath returns the config file location used when none is given.
func DefaultConfigPath() (string, error) {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "search-sessions", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "search-sessions", "config.yaml"), nil
}

// Load layers defaults, the YAML file and the environment, in that order.
// An explicitly named file must exist; the default one is optional.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	explicit := true
	if configPath == "" {
		configPath = os.Getenv(EnvConfig)
	}
	if configPath == "" {
		explicit = false
		if p, err := DefaultConfigPath(); err == nil {
			configPath = p
		}
	}

	if configPath != "" {
		data, err := os.ReadFile(ExpandHome(configPath))
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ClaudeDir = getEnv(EnvClaudeDir, c.ClaudeDir)
	c.OpenClawHome = getEnv(EnvOpenClawHome, c.OpenClawHome)
	c.Search.Workers = GetEnvInt(EnvWorkers, c.Search.Workers)
	c.Limit = GetEnvInt(EnvLimit, c.Limit)
}

// Validate normalizes paths and rejects values no search can run with.
func (c *Config) Validate() error {
	c.ClaudeDir = ExpandHome(c.ClaudeDir)
	c.OpenClawHome = ExpandHome(c.OpenClawHome)
	c.Search.RipgrepPath = ExpandHome(c.Search.RipgrepPath)
	c.Agent = strings.TrimSpace(c.Agent)

	switch {
	case c.Agent == "":
		return fmt.Errorf("%w: agent name is empty", ErrInvalidConfig)
	case strings.ContainsAny(c.Agent, `/\`):
		return fmt.Errorf("%w: agent name %q contains a path separator", ErrInvalidConfig, c.Agent)
	case c.Limit < 0:
		return fmt.Errorf("%w: limit must not be negative, got %d", ErrInvalidConfig, c.Limit)
	case c.Search.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Search.Workers)
	}
	return nil
}

// OpenClawSessionsDir is the transcript directory of the configured agent.
func (c *Config) OpenClawSessionsDir() string {
	return filepath.Join(c.OpenClawHome, "agents", c.Agent, "sessions")
}

// OpenClawWorkspace is the default project path for OpenClaw sessions.
func (c *Config) OpenClawWorkspace() string {
	return filepath.Join(c.OpenClawHome, "workspace")
}

// ScannerConfig converts the search settings for the content scanner.
func (c *Config) ScannerConfig() search.ScannerConfig {
	return search.ScannerConfig{
		RipgrepPath:          c.Search.RipgrepPath,
		DisableRipgrep:       c.Search.DisableRipgrep,
		Workers:              c.Search.Workers,
		ContextChars:         c.Search.ContextChars,
		MaxMatchesPerSession: c.Search.MaxMatchesPerSession,
	}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt reads an integer environment variable. Unset or malformed values
// yield defaultValue.
func GetEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
