package model

import "time"

// Field names the metadata field that produced an index-mode match.
type Field string

const (
	FieldNone        Field = ""
	FieldSummary     Field = "summary"
	FieldFirstPrompt Field = "firstPrompt"
	FieldGitBranch   Field = "gitBranch"
	FieldProjectPath Field = "projectPath"
)

// Mode selects between metadata and full-content search.
type Mode int

const (
	ModeIndex Mode = iota
	ModeContent
)

func (m Mode) String() string {
	if m == ModeContent {
		return "content"
	}
	return "index"
}

// ScoredResult is one ranked hit. It lives for a single query only.
type ScoredResult struct {
	Session   SessionMetadata
	SessionID string
	Score     float64

	// index mode
	MatchedField Field

	// content mode
	Snippet    string
	Role       Role
	LineNumber int
	FilePath   string
	Timestamp  time.Time
}
