package model

import (
	"path/filepath"
	"strings"
	"time"
)

// Layout identifies which on-disk session storage a record came from.
type Layout int

const (
	LayoutClaude Layout = iota
	LayoutOpenClaw
)

func (l Layout) String() string {
	switch l {
	case LayoutOpenClaw:
		return "openclaw"
	default:
		return "claude"
	}
}

// SessionMetadata is the layout-independent description of one session
type SessionMetadata struct {
	ID           string
	ProjectPath  string
	Summary      string
	FirstPrompt  string
	GitBranch    string
	Created      time.Time
	Modified     time.Time
	MessageCount int
}

// Normalize raises Modified to Created when the source reported them out of order.
func (m *SessionMetadata) Normalize() {
	if m.MessageCount < 0 {
		m.MessageCount = 0
	}
	if !m.Created.IsZero() && !m.Modified.IsZero() && m.Modified.Before(m.Created) {
		m.Modified = m.Created
	}
}

// Label returns the best human-readable title for the session.
func (m SessionMetadata) Label() string {
	if s := strings.TrimSpace(m.Summary); s != "" {
		return s
	}
	if s := strings.TrimSpace(m.FirstPrompt); s != "" {
		return s
	}
	return "(no summary)"
}

// SessionInfo pairs a session's metadata with the location of its transcript
type SessionInfo struct {
	Metadata SessionMetadata
	FilePath string
}

// ID is a shorthand for Metadata.ID.
func (s SessionInfo) ID() string {
	return s.Metadata.ID
}

// GetSessionID extracts the session ID from a transcript filename
func GetSessionID(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, ".jsonl")
}

// ResumeCommand returns the command that reopens the session in its tool.
func ResumeCommand(layout Layout, id string) string {
	if layout == LayoutOpenClaw {
		return "openclaw --session " + id
	}
	return "claude --resume " + id
}
