package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/davidpaquet/search-sessions/internal/model"
	"github.com/davidpaquet/search-sessions/internal/search"
)

const (
	separatorWidth = 60
	promptPreview  = 100
	labelWidth     = 100
)

// Printer renders a finished search as a plain listing. Styling follows the
// color profile of the destination, so redirected output stays plain.
type Printer struct {
	w    io.Writer
	home string

	header  lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	resume  lipgloss.Style
	roleFor func(model.Role) lipgloss.Style
}

// NewPrinter creates a printer for w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	home, _ := os.UserHomeDir()
	return &Printer{
		w:      w,
		home:   home,
		header: r.NewStyle().Foreground(primaryColor).Bold(true),
		label:  r.NewStyle().Bold(true),
		muted:  r.NewStyle().Foreground(mutedColor),
		resume: r.NewStyle().Foreground(secondaryColor),
		roleFor: func(role model.Role) lipgloss.Style {
			return roleStyle(role).Renderer(r)
		},
	}
}

// Print writes the listing for out in the format of its mode.
func (p *Printer) Print(out search.Outcome) {
	if out.Mode == model.ModeIndex {
		p.printIndex(out)
		return
	}
	p.printContent(out)
}

func (p *Printer) printHeader(title string, out search.Outcome) {
	sep := strings.Repeat("=", separatorWidth)
	fmt.Fprintf(p.w, "\n%s\n", sep)
	fmt.Fprintf(p.w, "  %s\n", p.header.Render(fmt.Sprintf("%s: %q", title, out.Query.Raw)))
	if len(out.Results) < out.Total {
		fmt.Fprintf(p.w, "  %d matches found (showing top %d)\n", out.Total, len(out.Results))
	} else {
		fmt.Fprintf(p.w, "  %d matches found\n", out.Total)
	}
	fmt.Fprintf(p.w, "%s\n\n", sep)
}

func (p *Printer) printIndex(out search.Outcome) {
	p.printHeader("INDEX SEARCH", out)
	sep := strings.Repeat("=", separatorWidth)

	if len(out.Results) == 0 {
		fmt.Fprintln(p.w, "  No matches found in session metadata.")
		fmt.Fprintln(p.w, "  Tip: Try --deep to search full message content.")
		fmt.Fprintln(p.w)
		return
	}

	for i, r := range out.Results {
		meta := r.Session
		fmt.Fprintf(p.w, "  [%d] %s\n", i+1, p.label.Render(runewidth.Truncate(meta.Label(), labelWidth, "...")))
		p.field("Project", p.shortPath(meta.ProjectPath))
		if meta.GitBranch != "" {
			p.field("Branch", meta.GitBranch)
		}
		p.field("Date", formatDate(firstTime(meta.Created, meta.Modified)))
		p.field("Messages", fmt.Sprint(meta.MessageCount))
		p.field("Matched", fmt.Sprintf("%s (score %g)", r.MatchedField, r.Score))
		if meta.FirstPrompt != "" && r.MatchedField != model.FieldFirstPrompt {
			p.field("Prompt", runewidth.Truncate(oneLine(meta.FirstPrompt), promptPreview, "..."))
		}
		p.field("Session", r.SessionID)
		p.field("Resume", p.resume.Render(model.ResumeCommand(out.Layout, r.SessionID)))
		fmt.Fprintln(p.w)
	}

	fmt.Fprintln(p.w, sep)
	fmt.Fprintln(p.w, p.muted.Render("  Tip: Use --deep to search inside message content."))
	fmt.Fprintf(p.w, "%s\n\n", sep)
}

func (p *Printer) printContent(out search.Outcome) {
	p.printHeader(fmt.Sprintf("DEEP SEARCH (%s)", LayoutTitle(out.Layout)), out)

	if len(out.Results) == 0 {
		fmt.Fprintln(p.w, "  No matches found in session message content.")
		fmt.Fprintln(p.w)
		return
	}

	for i, r := range out.Results {
		role := p.roleFor(r.Role).Render(r.Role.Short())
		fmt.Fprintf(p.w, "  [%d] [%s] %s\n", i+1, role, p.label.Render(runewidth.Truncate(r.Session.Label(), labelWidth, "...")))
		p.field("Project", p.shortPath(r.Session.ProjectPath))
		p.field("Date", formatDate(r.Timestamp))
		p.field("Snippet", oneLine(r.Snippet))
		p.field("Session", fmt.Sprintf("%s (line %d)", r.SessionID, r.LineNumber))
		fmt.Fprintln(p.w)
	}

	fmt.Fprintf(p.w, "%s\n", strings.Repeat("=", separatorWidth))
	if out.Skipped > 0 {
		fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf("  %d unreadable records skipped", out.Skipped)))
	}
	fmt.Fprintln(p.w)
}

func (p *Printer) field(name, value string) {
	fmt.Fprintf(p.w, "      %-9s %s\n", name+":", value)
}

// shortPath abbreviates the home directory to "~".
func (p *Printer) shortPath(path string) string {
	if path == "" {
		return "unknown"
	}
	if p.home != "" && strings.HasPrefix(path, p.home) {
		return "~" + strings.TrimPrefix(path, p.home)
	}
	return path
}

// LayoutTitle is the display name of a storage layout.
func LayoutTitle(l model.Layout) string {
	if l == model.LayoutOpenClaw {
		return "OPENCLAW"
	}
	return "CLAUDE CODE"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006-01-02 15:04")
}

func firstTime(times ...time.Time) time.Time {
	for _, t := range times {
		if !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type jsonOutcome struct {
	Query    string       `json:"query"`
	Mode     string       `json:"mode"`
	Layout   string       `json:"layout"`
	Total    int          `json:"total"`
	Shown    int          `json:"shown"`
	Strategy string       `json:"strategy,omitempty"`
	Skipped  int          `json:"skipped"`
	Results  []jsonResult `json:"results"`
}

type jsonResult struct {
	SessionID    string     `json:"sessionId"`
	Score        float64    `json:"score"`
	MatchedField string     `json:"matchedField,omitempty"`
	Summary      string     `json:"summary,omitempty"`
	FirstPrompt  string     `json:"firstPrompt,omitempty"`
	ProjectPath  string     `json:"projectPath,omitempty"`
	GitBranch    string     `json:"gitBranch,omitempty"`
	MessageCount int        `json:"messageCount"`
	Created      *time.Time `json:"created,omitempty"`
	Modified     *time.Time `json:"modified,omitempty"`
	Role         string     `json:"role,omitempty"`
	Snippet      string     `json:"snippet,omitempty"`
	LineNumber   int        `json:"lineNumber,omitempty"`
	FilePath     string     `json:"filePath,omitempty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
	Resume       string     `json:"resume"`
}

// WriteJSON writes out as a single indented JSON document.
func WriteJSON(w io.Writer, out search.Outcome) error {
	doc := jsonOutcome{
		Query:    out.Query.Raw,
		Mode:     out.Mode.String(),
		Layout:   out.Layout.String(),
		Total:    out.Total,
		Shown:    len(out.Results),
		Strategy: out.Strategy,
		Skipped:  out.Skipped,
		Results:  make([]jsonResult, 0, len(out.Results)),
	}
	for _, r := range out.Results {
		jr := jsonResult{
			SessionID:    r.SessionID,
			Score:        r.Score,
			MatchedField: string(r.MatchedField),
			Summary:      r.Session.Summary,
			FirstPrompt:  r.Session.FirstPrompt,
			ProjectPath:  r.Session.ProjectPath,
			GitBranch:    r.Session.GitBranch,
			MessageCount: r.Session.MessageCount,
			Created:      timePtr(r.Session.Created),
			Modified:     timePtr(r.Session.Modified),
			FilePath:     r.FilePath,
			Resume:       model.ResumeCommand(out.Layout, r.SessionID),
		}
		if out.Mode == model.ModeContent {
			jr.Role = r.Role.String()
			jr.Snippet = r.Snippet
			jr.LineNumber = r.LineNumber
			jr.Timestamp = timePtr(r.Timestamp)
		}
		doc.Results = append(doc.Results, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
