package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/davidpaquet/search-sessions/internal/clipboard"
	"github.com/davidpaquet/search-sessions/internal/model"
	"github.com/davidpaquet/search-sessions/internal/parser"
	"github.com/davidpaquet/search-sessions/internal/search"
)

// FilterState represents the current filter mode
type FilterState int

const (
	FilterStateNormal  FilterState = iota // No filter active
	FilterStateInput                      // User is typing in filter box
	FilterStateResults                    // User is navigating filtered results
)

const maxTranscriptMatches = 5

// Copier puts text on the clipboard.
type Copier interface {
	Copy(text string) error
}

// Model is the app model
type Model struct {
	// Data
	ctx     context.Context
	engine  search.Engine
	request search.Request
	copier  Copier
	version string
	outcome search.Outcome

	// transcript of the selected result
	transcriptPath string
	transcript     []model.MessageRecord
	transcriptErr  error

	// UI State
	width        int
	height       int
	selected     int
	scrollOffset int
	loading      bool
	err          error

	// Filter State
	filterState FilterState
	filterInput textinput.Model
	filterQuery string
	filtered    []search.FilteredResult

	// Status
	statusMsg   string
	statusTimer time.Time
}

// NewApp creates a browser that runs req against engine. Searches run under
// ctx and end when it is cancelled.
func NewApp(ctx context.Context, engine search.Engine, req search.Request, version string) *Model {
	// Initialize filter input
	filterInput := textinput.New()
	filterInput.Placeholder = "Filter results..."
	filterInput.CharLimit = 100
	filterInput.Width = 30

	return &Model{
		ctx:         ctx,
		engine:      engine,
		request:     req,
		copier:      clipboard.NewManager(),
		version:     version,
		loading:     true,
		width:       80,
		height:      24,
		filterInput: filterInput,
	}
}

// WithCopier replaces the clipboard used by the enter key.
func (m *Model) WithCopier(c Copier) *Model {
	m.copier = c
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.runSearch()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case searchCompleteMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.outcome = msg.outcome
		m.applyFilter()
		if m.outcome.Skipped > 0 {
			m.setStatus(fmt.Sprintf("%d unreadable records skipped", m.outcome.Skipped))
		}
		return m, m.loadSelected()

	case transcriptLoadedMsg:
		// Ignore stale loads for a result that is no longer selected
		if r, ok := m.current(); !ok || r.FilePath != msg.path {
			return m, nil
		}
		m.transcriptPath = msg.path
		m.transcript = msg.messages
		m.transcriptErr = msg.err
		return m, nil

	case clearStatusMsg:
		m.statusMsg = ""
		return m, nil

	case tea.KeyMsg:
		switch m.filterState {
		case FilterStateInput:
			switch msg.String() {
			case "esc":
				m.clearFilter()
				return m, m.loadSelected()
			case "tab", "enter":
				if m.filterQuery != "" {
					m.filterState = FilterStateResults
					m.filterInput.Blur()
				}
				return m, nil
			default:
				var cmd tea.Cmd
				m.filterInput, cmd = m.filterInput.Update(msg)
				if m.filterInput.Value() != m.filterQuery {
					m.filterQuery = m.filterInput.Value()
					m.applyFilter()
					return m, tea.Batch(cmd, m.loadSelected())
				}
				return m, cmd
			}

		case FilterStateResults:
			switch msg.String() {
			case "esc":
				m.clearFilter()
				return m, m.loadSelected()
			case "/":
				m.filterState = FilterStateInput
				m.filterInput.Focus()
				return m, textinput.Blink
			}
			return m.handleNavigation(msg)

		default:
			if msg.String() == "/" {
				m.filterState = FilterStateInput
				m.filterInput.Focus()
				m.filterInput.SetValue(m.filterQuery)
				return m, textinput.Blink
			}
			return m.handleNavigation(msg)
		}
	}

	return m, nil
}

// handleNavigation covers the keys shared by the normal and results states.
func (m *Model) handleNavigation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
			m.ensureVisible()
			return m, m.loadSelected()
		}

	case "down", "j":
		if m.selected < len(m.filtered)-1 {
			m.selected++
			m.ensureVisible()
			return m, m.loadSelected()
		}

	case "enter":
		r, ok := m.current()
		if !ok {
			return m, nil
		}
		cmd := model.ResumeCommand(m.outcome.Layout, r.SessionID)
		if err := m.copier.Copy(cmd); err != nil {
			m.setStatus(fmt.Sprintf("Copy failed: %v", err))
		} else {
			m.setStatus("Copied to clipboard: " + cmd)
		}
		// Clear the message after 2 seconds
		return m, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case "r":
		m.loading = true
		m.clearFilter()
		return m, m.runSearch()
	}
	return m, nil
}

func (m *Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			fmt.Sprintf("Searching for %q...", m.request.Query))
	}

	if m.err != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err)))
	}

	// Reserve space for status bar and filter bar if active
	reservedHeight := 1
	if m.filterState != FilterStateNormal {
		reservedHeight += 3
	}
	availableHeight := m.height - reservedHeight

	leftWidth := 48
	if m.width < 96 {
		leftWidth = m.width / 2
	}
	rightWidth := m.width - leftWidth - 1

	leftPane := m.renderResultList(leftWidth, availableHeight)
	rightPane := m.renderDetails(rightWidth, availableHeight)
	main := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	components := []string{main}
	if m.filterState != FilterStateNormal {
		components = append(components, m.renderFilterBar())
	}
	components = append(components, m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, components...)
}

func (m *Model) renderResultList(width, height int) string {
	// 1 border + 1 padding on each side, plus the top margin
	innerHeight := height - 5
	innerWidth := width - 4

	lines := []string{}
	title := fmt.Sprintf("%s: %d of %d", m.modeTitle(), len(m.outcome.Results), m.outcome.Total)
	if m.filterQuery != "" {
		title = fmt.Sprintf("%s (%d filtered)", title, len(m.filtered))
	}
	lines = append(lines, titleStyle.Render(ansi.Truncate(title, max(innerWidth, 1), "…")))
	lines = append(lines, "")

	itemsHeight := max(innerHeight-2, 1)
	m.clampScroll(itemsHeight)

	visibleEnd := min(m.scrollOffset+itemsHeight, len(m.filtered))
	for i := m.scrollOffset; i < visibleEnd; i++ {
		// PaddingLeft(2) takes two columns of the inner width
		line := ansi.Truncate(m.resultRow(m.filtered[i]), max(innerWidth-2, 1), "…")
		if i == m.selected {
			line = selectedItemStyle.Render(line)
		} else {
			line = resultItemStyle.Render(line)
		}
		lines = append(lines, line)
	}

	if len(m.filtered) == 0 {
		lines = append(lines, mutedTextStyle.Render("  No results"))
	}

	for len(lines) < innerHeight {
		lines = append(lines, "")
	}

	return resultListStyle.
		Width(width).
		Height(height).
		Render(strings.Join(lines, "\n"))
}

// resultRow renders one list entry, highlighting the fuzzy-matched runes of
// the label. The label is the leading part of the filter text, so indexes
// below its length refer to it directly.
func (m *Model) resultRow(fr search.FilteredResult) string {
	r := fr.Result
	label := search.FilterLabel(r)
	labelLen := len([]rune(label))

	var labelIdx []int
	for _, idx := range fr.MatchedIndexes {
		if idx < labelLen {
			labelIdx = append(labelIdx, idx)
		}
	}
	label = search.HighlightText(label, labelIdx, func(s string) string {
		return highlightStyle.Render(s)
	})

	prefix := fmt.Sprintf("%g", r.Score)
	if m.outcome.Mode == model.ModeContent {
		prefix = roleStyle(r.Role).Render(r.Role.Short())
	}
	return fmt.Sprintf("%s %s %s", prefix, mutedTextStyle.Render(getRelativeTime(r.Session.Modified)), label)
}

func (m *Model) renderDetails(width, height int) string {
	innerHeight := height - 5
	innerWidth := width - 4

	if innerHeight < 1 || innerWidth < 1 {
		return detailsStyle.Width(width).Height(height).Render("")
	}

	lines := []string{}
	r, ok := m.current()
	if !ok {
		lines = append(lines, "Nothing selected")
	} else {
		lines = append(lines, m.detailLines(r, innerWidth)...)
	}

	if len(lines) > innerHeight {
		lines = lines[:innerHeight]
	}
	for len(lines) < innerHeight {
		lines = append(lines, "")
	}
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, innerWidth, "…")
	}

	return detailsStyle.Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func (m *Model) detailLines(r model.ScoredResult, innerWidth int) []string {
	meta := r.Session
	lines := []string{titleStyle.Render("Session Details"), ""}

	lines = append(lines, wrapText(meta.Label(), innerWidth)...)
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("ID:       %s", r.SessionID))
	lines = append(lines, fmt.Sprintf("Project:  %s", meta.ProjectPath))
	if meta.GitBranch != "" {
		lines = append(lines, fmt.Sprintf("Branch:   %s", meta.GitBranch))
	}
	lines = append(lines, fmt.Sprintf("Modified: %s (%s)", formatDate(meta.Modified), getRelativeTime(meta.Modified)))
	if meta.MessageCount > 0 {
		lines = append(lines, fmt.Sprintf("Messages: %d", meta.MessageCount))
	}

	if m.outcome.Mode == model.ModeIndex {
		lines = append(lines, fmt.Sprintf("Matched:  %s (score %g)", r.MatchedField, r.Score))
	} else {
		lines = append(lines, fmt.Sprintf("Match:    %s line %d, %g matching lines",
			roleStyle(r.Role).Render(r.Role.String()), r.LineNumber, r.Score))
		lines = append(lines, "")
		for _, line := range wrapText(r.Snippet, innerWidth-2) {
			lines = append(lines, "  "+line)
		}
	}
	lines = append(lines, "")

	lines = append(lines, "Resume:")
	lines = append(lines, infoStyle.Render("  "+model.ResumeCommand(m.outcome.Layout, r.SessionID)))
	lines = append(lines, "")

	return append(lines, m.transcriptLines(r, innerWidth)...)
}

// transcriptLines lists the messages of the loaded transcript that contain
// the query.
func (m *Model) transcriptLines(r model.ScoredResult, innerWidth int) []string {
	if r.FilePath == "" || m.transcriptPath != r.FilePath {
		return nil
	}
	if m.transcriptErr != nil {
		return []string{errorStyle.Render(fmt.Sprintf("Transcript unreadable: %v", m.transcriptErr))}
	}

	var matches []model.MessageRecord
	for _, rec := range m.transcript {
		if m.outcome.Query.MatchAllTerms(rec.Text) {
			matches = append(matches, rec)
		}
	}

	lines := []string{fmt.Sprintf("Transcript: %d messages, %d matching", len(m.transcript), len(matches))}
	lines = append(lines, mutedTextStyle.Render(strings.Repeat("─", max(innerWidth-2, 1))))
	for i, rec := range matches {
		if i >= maxTranscriptMatches {
			lines = append(lines, mutedTextStyle.Render(fmt.Sprintf("  ... and %d more matches", len(matches)-i)))
			break
		}
		snippet := search.ExtractSnippet(rec.Text, m.outcome.Query, innerWidth/2)
		lines = append(lines, fmt.Sprintf("  %s %s", roleStyle(rec.Role).Render(rec.Role.Short()), snippet))
	}
	return lines
}

func (m *Model) renderStatusBar() string {
	var leftText string

	if m.statusMsg != "" && time.Since(m.statusTimer) < 3*time.Second {
		leftText = m.statusMsg
	} else if m.filterState == FilterStateInput {
		leftText = "[Tab/Enter] Navigate results  [Esc] Cancel  Type to filter..."
	} else if m.filterState == FilterStateResults {
		leftText = "[↑↓] Navigate  [/] Edit filter  [Esc] Clear filter  [Enter] Copy"
	} else {
		leftText = "[↑↓] Navigate  [Enter] Copy resume  [/] Filter  [r] Rerun  [q] Quit"
	}

	right := m.version
	if m.outcome.Strategy != "" {
		right = m.outcome.Strategy + " " + right
	}

	leftStyle := keyHelpStyle.Width(max(m.width-lipgloss.Width(right)-2, 0))
	rightStyle := keyHelpStyle.Align(lipgloss.Right)

	content := lipgloss.JoinHorizontal(lipgloss.Bottom, leftStyle.Render(leftText), rightStyle.Render(right))
	return statusBarStyle.Width(m.width).Render(content)
}

func (m *Model) renderFilterBar() string {
	var borderColor lipgloss.Color
	var statusText string

	if m.filterState == FilterStateInput {
		borderColor = lipgloss.Color("#9B59B6")
	} else {
		borderColor = lipgloss.Color("#4B5563")
		if len(m.filtered) == 0 {
			statusText = " (no matches)"
		} else {
			statusText = fmt.Sprintf(" (%d matches)", len(m.filtered))
		}
	}

	filterStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(max(m.width-2, 1))

	var prompt string
	if m.filterState == FilterStateInput {
		prompt = "Filter: " + m.filterInput.View()
	} else {
		prompt = "Filter: " + m.filterQuery + statusText + " [Press / to edit]"
	}
	return filterStyle.Render(prompt)
}

func (m *Model) modeTitle() string {
	if m.outcome.Mode == model.ModeIndex {
		return "Index"
	}
	return "Deep (" + strings.ToLower(LayoutTitle(m.outcome.Layout)) + ")"
}

func (m *Model) current() (model.ScoredResult, bool) {
	if m.selected < 0 || m.selected >= len(m.filtered) {
		return model.ScoredResult{}, false
	}
	return m.filtered[m.selected].Result, true
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusTimer = time.Now()
}

func (m *Model) applyFilter() {
	m.filtered = search.FilterResults(m.outcome.Results, m.filterQuery)
	m.selected = 0
	m.scrollOffset = 0
}

func (m *Model) clearFilter() {
	m.filterState = FilterStateNormal
	m.filterInput.Blur()
	m.filterInput.SetValue("")
	m.filterQuery = ""
	m.applyFilter()
}

func (m *Model) visibleItems() int {
	// status bar, borders, padding, margin, title and blank line
	return max(m.height-1-5-2, 1)
}

func (m *Model) ensureVisible() {
	itemsHeight := m.visibleItems()
	if m.selected < m.scrollOffset {
		m.scrollOffset = m.selected
	} else if m.selected >= m.scrollOffset+itemsHeight {
		m.scrollOffset = m.selected - itemsHeight + 1
	}
	m.clampScroll(itemsHeight)
}

func (m *Model) clampScroll(itemsHeight int) {
	maxScroll := max(len(m.filtered)-itemsHeight, 0)
	m.scrollOffset = min(max(m.scrollOffset, 0), maxScroll)
}

func (m *Model) runSearch() tea.Cmd {
	ctx, engine, req := m.ctx, m.engine, m.request
	return func() tea.Msg {
		out, err := engine.Search(ctx, req)
		return searchCompleteMsg{outcome: out, err: err}
	}
}

// loadSelected reads the transcript of the selected result unless it is
// already loaded.
func (m *Model) loadSelected() tea.Cmd {
	r, ok := m.current()
	if !ok || r.FilePath == "" || r.FilePath == m.transcriptPath {
		return nil
	}
	path := r.FilePath
	return func() tea.Msg {
		messages, _, err := parser.ReadMessages(path)
		return transcriptLoadedMsg{path: path, messages: messages, err: err}
	}
}

// Messages
type searchCompleteMsg struct {
	outcome search.Outcome
	err     error
}

type transcriptLoadedMsg struct {
	path     string
	messages []model.MessageRecord
	err      error
}

type clearStatusMsg struct{}

// Helper functions
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	lines := []string{}
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if ansi.StringWidth(currentLine+" "+word) <= width {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}

	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}

func getRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	diff := time.Since(t)

	if diff < time.Minute {
		return "just now"
	} else if diff < time.Hour {
		minutes := int(diff.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	} else if diff < 24*time.Hour {
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	} else if diff < 7*24*time.Hour {
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	} else if diff < 30*24*time.Hour {
		weeks := int(diff.Hours() / (24 * 7))
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	} else if diff < 365*24*time.Hour {
		months := int(diff.Hours() / (24 * 30))
		if months == 1 {
			return "1 month ago"
		}
		return fmt.Sprintf("%d months ago", months)
	}
	years := int(diff.Hours() / (24 * 365))
	if years == 1 {
		return "1 year ago"
	}
	return fmt.Sprintf("%d years ago", years)
}
