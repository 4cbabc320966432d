package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrNoClipboard is returned when neither the native clipboard nor any
// clipboard command is available.
var ErrNoClipboard = errors.New("no clipboard available")

// Manager handles clipboard operations
type Manager struct {
	native   func(string) error
	lookPath func(string) (string, error)
	run      func(cmd *exec.Cmd) error
	goos     string
}

// NewManager creates a new clipboard manager
func NewManager() *Manager {
	return &Manager{
		native:   clipboard.WriteAll,
		lookPath: exec.LookPath,
		run:      func(cmd *exec.Cmd) error { return cmd.Run() },
		goos:     runtime.GOOS,
	}
}

// Copy copies text to the clipboard
func (m *Manager) Copy(text string) error {
	// Try the cross-platform library first
	if !clipboard.Unsupported {
		if err := m.native(text); err == nil {
			return nil
		}
	}

	// Fallback to platform-specific commands
	cmd, err := m.command()
	if err != nil {
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	if err := m.run(cmd); err != nil {
		return fmt.Errorf("clipboard command failed: %w", err)
	}
	return nil
}

// command picks the platform clipboard command
func (m *Manager) command() (*exec.Cmd, error) {
	switch m.goos {
	case "darwin":
		return exec.Command("pbcopy"), nil
	case "windows":
		return exec.Command("clip.exe"), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		candidates := [][]string{
			{"wl-copy"},
			{"xclip", "-selection", "clipboard"},
			{"xsel", "--clipboard", "--input"},
		}
		for _, c := range candidates {
			if path, err := m.lookPath(c[0]); err == nil {
				return exec.Command(path, c[1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: install xclip, xsel, or wl-clipboard", ErrNoClipboard)
	default:
		return nil, fmt.Errorf("%w: unsupported platform %s", ErrNoClipboard, m.goos)
	}
}
