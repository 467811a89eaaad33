package tui

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/keyreaper/keyreaper/internal/audit"
	"github.com/keyreaper/keyreaper/internal/redact"
	"github.com/keyreaper/keyreaper/internal/report"
	"github.com/keyreaper/keyreaper/internal/types"
)

var (
	tableBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	detailPaneBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	emptyTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Align(lipgloss.Center)

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(1, 4)

	stDeactivatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	stNotFoundStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	stFailedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	stReviewStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// entry is one reviewable row: an access key that went through
// remediation, or a general secret waiting on manual rotation.
// Exactly one of the two pointers is set.
type entry struct {
	Key     *types.KeyOutcome
	General *types.GeneralSecret
}

func flatten(r *types.Report) []entry {
	if r == nil {
		return nil
	}
	entries := make([]entry, 0, len(r.AWSKeys)+len(r.GeneralSecrets))
	for i := range r.AWSKeys {
		entries = append(entries, entry{Key: &r.AWSKeys[i]})
	}
	for i := range r.GeneralSecrets {
		entries = append(entries, entry{General: &r.GeneralSecrets[i]})
	}
	return entries
}

func (e entry) path() string {
	if e.Key != nil {
		return e.Key.Path
	}
	return e.General.Path
}

func (e entry) line() int {
	if e.Key != nil {
		return e.Key.Line
	}
	return e.General.Line
}

func (e entry) kindText() string {
	if e.Key != nil {
		return "AWS Access Key"
	}
	return e.General.SecretType
}

// statusText returns plain text for the status column (ANSI codes break
// table truncation).
func (e entry) statusText() string {
	if e.Key == nil {
		return "REVIEW"
	}
	switch e.Key.Status {
	case types.StatusDeactivated:
		return "DEACTIVATED"
	case types.StatusNotFound:
		return "NOT FOUND"
	case types.StatusFailed:
		return "FAILED"
	default:
		return strings.ToUpper(string(e.Key.Status))
	}
}

func (e entry) outcomeStyle() lipgloss.Style {
	if e.Key == nil {
		return stReviewStyle
	}
	switch e.Key.Status {
	case types.StatusDeactivated:
		return stDeactivatedStyle
	case types.StatusNotFound:
		return stNotFoundStyle
	default:
		return stFailedStyle
	}
}

// identifier is the rightmost column: the access key ID (masked unless
// revealed) or the stored preview for general secrets. Previews are
// already truncated and never need masking.
func (e entry) identifier(hideKeyIDs bool) string {
	if e.Key == nil {
		return e.General.Preview
	}
	if hideKeyIDs {
		return redact.Mask(e.Key.AccessKeyID)
	}
	return e.Key.AccessKeyID
}

func (e entry) failed() bool {
	return e.Key != nil && e.Key.Status == types.StatusFailed
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// Model represents the main state of the TUI application.
type Model struct {
	table             table.Model
	viewport          viewport.Model
	spinner           spinner.Model
	rpt               *types.Report
	entries           []entry
	filteredEntries   []entry // Entries after filter applied (nil = no filter)
	filteredIndices   []int   // Maps filtered index to original entries index
	source            string  // Where the report came from (results file, last-run cache)
	quitting          bool
	ready             bool      // Indicates if terminal dimensions are known
	loading           bool      // True when a reload is in progress
	viewingHistorical bool      // True when viewing a run loaded from the audit log
	lastRunTime       time.Time // When the displayed run finished
	showRunHistory    bool      // True when run history popup is shown
	runHistory        []audit.RunRecord
	historySelection  int // Selected run in history list (0-based)
	height            int
	width             int
	statusMessage     string
	statusTimeout     *time.Time                    // When to clear status message
	reloadFunc        func() (*types.Report, error) // Callback to re-read the results file
	showEmpty         bool                          // True if there is nothing to review
	showHelp          bool                          // True when help overlay is shown
	hideKeyIDs        bool                          // Masks access key IDs in table and detail pane

	// Search state
	searchMode  bool            // True when search input is active
	searchInput textinput.Model // Text input for search
	searchQuery string          // Current active search query

	// Export mode state
	showExportMenu bool // True when export format menu is shown

	// Context expansion state
	contextLines int // Number of lines to show around the leak (default 3)

	pendingKey string // For the gg go-to-top sequence
}

// NewModel initializes a new TUI model over a remediation report.
func NewModel(rpt *types.Report, source string, reloadFunc func() (*types.Report, error)) Model {
	entries := flatten(rpt)
	prefs := LoadPrefs()

	columns := []table.Column{
		{Title: "Status", Width: 13},
		{Title: "Type", Width: 20},
		{Title: "Path", Width: 40},
		{Title: "Identifier", Width: 28},
	}

	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		rows[i] = table.Row{
			e.statusText(),
			e.kindText(),
			e.path(),
			e.identifier(prefs.HideKeyIDs),
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Padding(0, 1).
		Align(lipgloss.Left)

	s.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color("208")).
		Bold(true).
		Padding(0, 1)

	s.Cell = lipgloss.NewStyle().
		Padding(0, 1)

	t.SetStyles(s)

	// Line spinner avoids Braille characters that render poorly on some terminals
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	ti := textinput.New()
	ti.Placeholder = "Search path, type, status, or key..."
	ti.CharLimit = 100
	ti.Width = 50
	ti.Prompt = "/ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	m := Model{
		table:        t,
		spinner:      sp,
		rpt:          rpt,
		entries:      entries,
		source:       source,
		reloadFunc:   reloadFunc,
		showEmpty:    len(entries) == 0,
		lastRunTime:  time.Now(),
		searchInput:  ti,
		hideKeyIDs:   prefs.HideKeyIDs,
		contextLines: 3, // Default context lines around the leak
	}

	if m.showEmpty {
		m.statusMessage = "q: quit | r: reload | a: run history"
	} else {
		m.statusMessage = "q: quit | ?: help | j/k: navigate | o: open | m: mask | e: export | a: run history"
	}

	return m
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) reload() tea.Cmd {
	return func() tea.Msg {
		if m.reloadFunc == nil {
			return statusMsg("Reload not available")
		}

		rpt, err := m.reloadFunc()
		if err != nil {
			return statusMsg(fmt.Sprintf("Reload error: %v", err))
		}
		if rpt == nil {
			return statusMsg("Reload returned no report")
		}

		return reportMsg{report: rpt}
	}
}

type reportMsg struct {
	report *types.Report
}

func (m *Model) applyFilters() {
	if m.searchQuery == "" {
		m.filteredEntries = nil
		m.filteredIndices = nil
		m.rebuildTableRows()
		return
	}

	var filtered []entry
	var indices []int
	query := strings.ToLower(m.searchQuery)

	for i, e := range m.entries {
		pathMatch := strings.Contains(strings.ToLower(e.path()), query)
		kindMatch := strings.Contains(strings.ToLower(e.kindText()), query)
		statusMatch := strings.Contains(strings.ToLower(e.statusText()), query)
		idMatch := strings.Contains(strings.ToLower(e.identifier(false)), query)
		if !pathMatch && !kindMatch && !statusMatch && !idMatch {
			continue
		}

		filtered = append(filtered, e)
		indices = append(indices, i)
	}

	m.filteredEntries = filtered
	m.filteredIndices = indices
	m.rebuildTableRows()
}

func (m *Model) clearFilters() {
	m.searchQuery = ""
	m.filteredEntries = nil
	m.filteredIndices = nil
	m.rebuildTableRows()
}

func (m *Model) rebuildTableRows() {
	entries := m.getDisplayEntries()
	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		rows[i] = table.Row{
			e.statusText(),
			e.kindText(),
			e.path(),
			e.identifier(m.hideKeyIDs),
		}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(entries) {
		m.table.SetCursor(0)
	}
	m.showEmpty = len(entries) == 0
	m.updateViewportContent()
}

func (m *Model) getDisplayEntries() []entry {
	if m.filteredEntries != nil {
		return m.filteredEntries
	}
	return m.entries
}

func (m *Model) getOriginalIndex(displayIdx int) int {
	if m.filteredIndices != nil {
		if displayIdx >= 0 && displayIdx < len(m.filteredIndices) {
			return m.filteredIndices[displayIdx]
		}
		return -1
	}
	return displayIdx
}

// jumpToNextFailed finds the next failed key outcome (direction: 1=forward, -1=backward).
func (m *Model) jumpToNextFailed(direction int) bool {
	entries := m.getDisplayEntries()
	if len(entries) == 0 {
		return false
	}

	current := m.table.Cursor()
	n := len(entries)

	for i := 1; i <= n; i++ {
		idx := (current + direction*i + n) % n
		if entries[idx].failed() {
			m.table.SetCursor(idx)
			return true
		}
	}
	return false
}

func (m *Model) expandContext() {
	if m.contextLines < 20 {
		m.contextLines += 2
		if m.contextLines > 20 {
			m.contextLines = 20
		}
		m.updateViewportContent()
	}
}

func (m *Model) contractContext() {
	if m.contextLines > 1 {
		m.contextLines -= 2
		if m.contextLines < 1 {
			m.contextLines = 1
		}
		m.updateViewportContent()
	}
}

func readFileContext(path string, targetLine int, contextLines int) ([]string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	startLine := targetLine - contextLines
	if startLine < 1 {
		startLine = 1
	}
	endLine := targetLine + contextLines

	var lines []string
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines, startLine, scanner.Err()
}

type BlameInfo struct {
	Author string
	Date   string
	Commit string
}

func getGitBlame(path string, line int) *BlameInfo {
	cmd := fmt.Sprintf("git blame -L %d,%d --porcelain -- %q 2>/dev/null", line, line, path)
	out, err := runCommand(cmd)
	if err != nil || out == "" {
		return nil
	}

	lines := strings.Split(out, "\n")
	if len(lines) < 2 {
		return nil
	}

	info := &BlameInfo{}

	parts := strings.Fields(lines[0])
	if len(parts) > 0 && len(parts[0]) >= 8 {
		info.Commit = parts[0][:8]
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "author ") {
			info.Author = strings.TrimPrefix(line, "author ")
		} else if strings.HasPrefix(line, "author-time ") {
			timeStr := strings.TrimPrefix(line, "author-time ")
			if ts, err := parseUnixTimestamp(timeStr); err == nil {
				info.Date = ts.Format("2006-01-02")
			}
		}
	}

	return info
}

func runCommand(cmd string) (string, error) {
	out, err := execCommand("sh", "-c", cmd)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

var execCommand = func(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

func parseUnixTimestamp(s string) (time.Time, error) {
	var ts int64
	if _, err := fmt.Sscanf(s, "%d", &ts); err != nil {
		return time.Time{}, err
	}
	return time.Unix(ts, 0), nil
}

func highlightLine(line string, filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		ext := filepath.Ext(filename)
		if ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		return line // No highlighting for unknown file types
	}

	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return line
	}

	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return line
	}

	result := buf.String()
	result = strings.TrimSuffix(result, "\n")
	return result
}

func (m *Model) updateViewportContent() {
	entries := m.getDisplayEntries()
	if len(entries) == 0 || !m.ready {
		m.viewport.SetContent("")
		return
	}

	idx := m.table.Cursor()
	if idx >= 0 && idx < len(entries) {
		m.updateViewportContentForEntry(entries[idx])
	}
}

func (m *Model) updateViewportContentForEntry(e entry) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s\n\n", titleStyle.Render("Remediation Details")))

	if e.Key != nil {
		b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Status:"), e.outcomeStyle().Render(e.statusText())))
		b.WriteString(fmt.Sprintf("%s %s", keyStyle.Render("Access key:"), e.identifier(m.hideKeyIDs)))
		if m.hideKeyIDs {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("  (m to reveal)"))
		}
		b.WriteString("\n")

		owner := "-"
		if e.Key.UserName != nil && *e.Key.UserName != "" {
			owner = *e.Key.UserName
		}
		b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Owner:"), owner))
		if e.Key.Message != "" {
			b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Message:"), e.Key.Message))
		}
		b.WriteString(fmt.Sprintf("%s %.1f%%\n", keyStyle.Render("Confidence:"), e.Key.Confidence*100))
	} else {
		b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Status:"), e.outcomeStyle().Render("MANUAL REVIEW")))
		b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Type:"), e.General.SecretType))
		b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Preview:"), e.General.Preview))
		b.WriteString(fmt.Sprintf("%s %.1f%%\n", keyStyle.Render("Confidence:"), e.General.Confidence*100))

		rotateStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Italic(true)
		b.WriteString(rotateStyle.Render("No automated remediation for this type. Rotate the credential manually."))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Path:"), e.path()))
	b.WriteString(fmt.Sprintf("%s %d\n", keyStyle.Render("Line:"), e.line()))

	if blame := getGitBlame(e.path(), e.line()); blame != nil {
		commitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
		commitText := fmt.Sprintf("%s (%s, %s)", blame.Commit, blame.Author, blame.Date)
		b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Commit:"), commitStyle.Render(commitText)))
	}

	contextHint := fmt.Sprintf(" (+/- to expand/contract, showing %d lines)", m.contextLines*2+1)
	b.WriteString(fmt.Sprintf("\n%s%s\n",
		keyStyle.Render("Context:"),
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(contextHint)))

	lines, startLine, err := readFileContext(e.path(), e.line(), m.contextLines)
	if err == nil && len(lines) > 0 {
		lineNumStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		leakLineStyle := lipgloss.NewStyle().Background(lipgloss.Color("236"))

		for i, line := range lines {
			lineNum := startLine + i
			lineNumStr := lineNumStyle.Render(fmt.Sprintf("%4d ", lineNum))
			highlightedLine := highlightLine(line, e.path())

			if lineNum == e.line() {
				if e.Key != nil {
					highlightedLine = strings.ReplaceAll(highlightedLine, e.Key.AccessKeyID, matchStyle.Render(e.Key.AccessKeyID))
				}
				b.WriteString(lineNumStr + leakLineStyle.Render(highlightedLine) + "\n")
			} else {
				b.WriteString(lineNumStr + highlightedLine + "\n")
			}
		}
	} else {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Render("Source file not available in this checkout."))
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		if m.showRunHistory {
			switch msg.String() {
			case "q", "esc", "a":
				m.showRunHistory = false
				m.historySelection = 0
			case "up", "k":
				if m.historySelection > 0 {
					m.historySelection--
				}
			case "down", "j":
				if m.historySelection < len(m.runHistory)-1 {
					m.historySelection++
				}
			case "enter":
				if m.historySelection >= 0 && m.historySelection < len(m.runHistory) {
					selected := m.runHistory[m.historySelection]
					if selected.Report == nil {
						m.showRunHistory = false
						timeout := time.Now().Add(3 * time.Second)
						m.statusTimeout = &timeout
						m.statusMessage = "Record has no stored report"
						return m, nil
					}

					m.rpt = selected.Report
					m.entries = flatten(selected.Report)
					m.searchQuery = ""
					m.filteredEntries = nil
					m.filteredIndices = nil
					m.lastRunTime = selected.Timestamp
					m.viewingHistorical = true
					m.showRunHistory = false
					m.rebuildTableRows()

					timeout := time.Now().Add(5 * time.Second)
					m.statusTimeout = &timeout
					m.statusMessage = fmt.Sprintf("Loaded run from %s (stored key IDs are masked)", selected.Timestamp.Format("Jan 2, 15:04"))
				}
			case "d", "x", "backspace", "delete":
				if m.historySelection >= 0 && m.historySelection < len(m.runHistory) {
					auditLog := audit.NewAuditLog(".")
					if err := auditLog.DeleteRecord(m.historySelection); err == nil {
						if history, err := auditLog.LoadHistory(); err == nil {
							m.runHistory = history
							if m.historySelection >= len(m.runHistory) {
								m.historySelection = len(m.runHistory) - 1
							}
							if m.historySelection < 0 {
								m.historySelection = 0
							}
						}
					}
				}
			}
			return m, nil
		}

		if m.showExportMenu {
			switch msg.String() {
			case "1", "j": // JSON
				m.showExportMenu = false
				return m, m.exportResults("json")
			case "2", "c": // CSV
				m.showExportMenu = false
				return m, m.exportResults("csv")
			case "3", "s": // SARIF
				m.showExportMenu = false
				return m, m.exportResults("sarif")
			case "esc", "q", "e":
				m.showExportMenu = false
				return m, nil
			}
			return m, nil
		}

		if m.searchMode {
			switch msg.String() {
			case "enter":
				m.searchQuery = m.searchInput.Value()
				m.searchMode = false
				m.searchInput.Blur()
				return m, nil
			case "esc":
				m.searchMode = false
				m.searchInput.Blur()
				m.searchInput.SetValue(m.searchQuery)
				m.applyFilters()
				return m, nil
			default:
				m.searchInput, cmd = m.searchInput.Update(msg)
				m.searchQuery = m.searchInput.Value()
				m.applyFilters()
				return m, cmd
			}
		}

		if m.pendingKey == "g" {
			m.pendingKey = ""
			if msg.String() == "g" && !m.showEmpty { // gg - go to top
				m.table.GotoTop()
				m.updateViewportContent()
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "/":
			if !m.showEmpty || len(m.entries) > 0 {
				m.searchMode = true
				m.searchInput.SetValue(m.searchQuery)
				m.searchInput.Focus()
				return m, textinput.Blink
			}
		case "esc":
			if m.searchQuery != "" {
				m.clearFilters()
				timeout := time.Now().Add(3 * time.Second)
				m.statusTimeout = &timeout
				m.statusMessage = "Filter cleared"
				return m, nil
			}
		case "n": // next failed key
			if !m.showEmpty {
				if m.jumpToNextFailed(1) {
					m.updateViewportContent()
				} else {
					timeout := time.Now().Add(2 * time.Second)
					m.statusTimeout = &timeout
					m.statusMessage = "No failed keys"
				}
				return m, nil
			}
		case "N": // prev failed key
			if !m.showEmpty {
				if m.jumpToNextFailed(-1) {
					m.updateViewportContent()
				} else {
					timeout := time.Now().Add(2 * time.Second)
					m.statusTimeout = &timeout
					m.statusMessage = "No failed keys"
				}
				return m, nil
			}
		case "m":
			m.hideKeyIDs = !m.hideKeyIDs
			_ = SavePrefs(Prefs{HideKeyIDs: m.hideKeyIDs}) //nolint:errcheck // Display still toggles when the pref fails to persist
			m.rebuildTableRows()
			timeout := time.Now().Add(3 * time.Second)
			m.statusTimeout = &timeout
			if m.hideKeyIDs {
				m.statusMessage = "Access key IDs masked"
			} else {
				m.statusMessage = "Access key IDs revealed (m to mask)"
			}
			return m, nil
		case "o", "enter":
			if !m.showEmpty {
				return m, m.openEditor()
			}
		case "e": // export
			if len(m.getDisplayEntries()) > 0 {
				m.showExportMenu = true
				return m, nil
			}
		case "+", "=":
			if !m.showEmpty {
				m.expandContext()
				timeout := time.Now().Add(2 * time.Second)
				m.statusTimeout = &timeout
				m.statusMessage = fmt.Sprintf("Context: %d lines", m.contextLines*2+1)
				return m, nil
			}
		case "-", "_":
			if !m.showEmpty {
				m.contractContext()
				timeout := time.Now().Add(2 * time.Second)
				m.statusTimeout = &timeout
				m.statusMessage = fmt.Sprintf("Context: %d lines", m.contextLines*2+1)
				return m, nil
			}
		case "y": // copy path
			if !m.showEmpty {
				return m, m.copyPathToClipboard()
			}
		case "Y": // copy entry
			if !m.showEmpty {
				return m, m.copyEntryToClipboard()
			}
		case "r":
			if m.reloadFunc == nil {
				timeout := time.Now().Add(3 * time.Second)
				m.statusTimeout = &timeout
				m.statusMessage = "Reload not available"
				return m, nil
			}
			if !m.loading {
				m.loading = true
				m.statusMessage = "Reloading..."
				return m, m.reload()
			}
		case "a": // run history
			if !m.showRunHistory {
				auditLog := audit.NewAuditLog(".")
				history, err := auditLog.LoadHistory()
				if err == nil {
					m.runHistory = history
					m.historySelection = 0
				}
			}
			m.showRunHistory = !m.showRunHistory
		case "?", "h":
			m.showHelp = !m.showHelp
			return m, nil
		case "down", "j":
			if !m.showEmpty {
				m.table, cmd = m.table.Update(msg)
				m.updateViewportContent()
				return m, cmd
			}
		case "up", "k":
			if !m.showEmpty {
				m.table, cmd = m.table.Update(msg)
				m.updateViewportContent()
				return m, cmd
			}
		case "ctrl+d":
			if !m.showEmpty {
				halfPage := m.table.Height() / 2
				if halfPage < 1 {
					halfPage = 1
				}
				m.table.MoveDown(halfPage)
				m.updateViewportContent()
				return m, nil
			}
		case "ctrl+u":
			if !m.showEmpty {
				halfPage := m.table.Height() / 2
				if halfPage < 1 {
					halfPage = 1
				}
				m.table.MoveUp(halfPage)
				m.updateViewportContent()
				return m, nil
			}
		case "ctrl+f", "pgdown":
			if !m.showEmpty {
				m.table.MoveDown(m.table.Height())
				m.updateViewportContent()
				return m, nil
			}
		case "ctrl+b", "pgup":
			if !m.showEmpty {
				m.table.MoveUp(m.table.Height())
				m.updateViewportContent()
				return m, nil
			}
		case "g":
			m.pendingKey = "g"
			return m, nil
		case "home":
			if !m.showEmpty {
				m.table.GotoTop()
				m.updateViewportContent()
				return m, nil
			}
		case "G", "end":
			if !m.showEmpty {
				m.table.GotoBottom()
				m.updateViewportContent()
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		usableWidth := m.width - 10
		statusWidth := 13
		typeWidth := 20
		remainingWidth := usableWidth - statusWidth - typeWidth
		pathWidth := int(float64(remainingWidth) * 0.55)
		idWidth := remainingWidth - pathWidth
		if pathWidth < 25 {
			pathWidth = 25
		}
		if idWidth < 22 {
			idWidth = 22
		}

		cols := m.table.Columns()
		cols[0].Width = statusWidth
		cols[1].Width = typeWidth
		cols[2].Width = pathWidth
		cols[3].Width = idWidth
		m.table.SetColumns(cols)

		statsHeaderHeight := 1
		availableHeight := m.height - lipgloss.Height(statusStyle.Render("")) - statsHeaderHeight
		tableHeight := int(float64(availableHeight) * 0.45)
		viewportHeight := availableHeight - tableHeight - detailPaneBorderStyle.GetVerticalFrameSize() - 1

		m.table.SetWidth(m.width)
		m.table.SetHeight(tableHeight)

		if m.viewport.Height == 0 {
			m.viewport = viewport.New(m.width, viewportHeight)
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()
		statusStyle = statusStyle.Width(m.width)

	case reportMsg:
		m.rpt = msg.report
		m.entries = flatten(msg.report)
		m.searchQuery = ""
		m.filteredEntries = nil
		m.filteredIndices = nil
		m.lastRunTime = time.Now()
		m.viewingHistorical = false
		m.rebuildTableRows()
		if m.showEmpty {
			m.table.SetCursor(0)
		}

		m.loading = false
		timeout := time.Now().Add(5 * time.Second)
		m.statusTimeout = &timeout
		if m.showEmpty {
			m.statusMessage = "Reloaded - nothing left to review"
		} else {
			tally := report.Count(*msg.report)
			m.statusMessage = fmt.Sprintf("Reloaded - %d keys (%d failed), %d general",
				len(msg.report.AWSKeys), tally.Failed, len(msg.report.GeneralSecrets))
		}

	case statusMsg:
		timeout := time.Now().Add(3 * time.Second)
		m.statusTimeout = &timeout
		m.statusMessage = string(msg)

	case spinner.TickMsg:
		var spinCmd tea.Cmd
		m.spinner, spinCmd = m.spinner.Update(msg)
		if m.statusTimeout != nil && time.Now().After(*m.statusTimeout) {
			m.statusTimeout = nil
			if m.showEmpty {
				m.statusMessage = "q: quit | r: reload | a: run history"
			} else {
				m.statusMessage = "q: quit | ?: help | j/k: navigate | o: open | m: mask | e: export | a: run history"
			}
		}
		return m, spinCmd
	}

	if !m.quitting && !m.showEmpty {
		shouldUpdate := true
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			key := keyMsg.String()
			if key == "down" || key == "j" || key == "up" || key == "k" {
				shouldUpdate = false
			}
		}
		if shouldUpdate {
			m.table, cmd = m.table.Update(msg)
		}
	}

	m.updateViewportContent()
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	if m.loading {
		msgContent := fmt.Sprintf("%s  Reloading results...\n\nPlease wait", m.spinner.View())
		popupBox := popupStyle.
			Width(55).
			Align(lipgloss.Center).
			Render(msgContent)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, popupBox)
	}

	displayEntries := m.getDisplayEntries()
	var deactivated, notFound, failed, general int
	for _, e := range displayEntries {
		if e.Key == nil {
			general++
			continue
		}
		switch e.Key.Status {
		case types.StatusDeactivated:
			deactivated++
		case types.StatusNotFound:
			notFound++
		default:
			failed++
		}
	}

	var statsContent string
	if len(m.entries) == 0 {
		statsContent = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("[OK] Nothing left to remediate")
	} else {
		var filterInfo string
		if m.searchQuery != "" {
			filterInfo = fmt.Sprintf("  [FILTER: '%s']", m.searchQuery)
		}

		var maskInfo string
		if m.hideKeyIDs {
			maskInfo = "  [keys masked]"
		}

		var sourceInfo string
		if m.source != "" {
			sourceInfo = fmt.Sprintf("  [%s]", m.source)
		}

		if m.filteredEntries != nil {
			statsContent = fmt.Sprintf(
				"Showing: %d/%d  |  %s %-4d  |  %s %-4d  |  %s %-4d  |  %s %-4d%s%s",
				len(displayEntries),
				len(m.entries),
				stDeactivatedStyle.Render("Deactivated:"),
				deactivated,
				stNotFoundStyle.Render("Not found:"),
				notFound,
				stFailedStyle.Render("Failed:"),
				failed,
				stReviewStyle.Render("General:"),
				general,
				filterInfo,
				maskInfo,
			)
		} else {
			statsContent = fmt.Sprintf(
				"Total: %-4d  |  %s %-4d  |  %s %-4d  |  %s %-4d  |  %s %-4d%s%s",
				len(m.entries),
				stDeactivatedStyle.Render("Deactivated:"),
				deactivated,
				stNotFoundStyle.Render("Not found:"),
				notFound,
				stFailedStyle.Render("Failed:"),
				failed,
				stReviewStyle.Render("General:"),
				general,
				maskInfo,
				sourceInfo,
			)
		}
	}

	statsHeader := lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 2).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("237")).
		Render(statsContent)

	tableRender := tableBorderStyle.
		Width(m.width).
		Height(m.table.Height()).
		Render(m.table.View())

	var detailContent string
	if len(displayEntries) == 0 {
		var emptyMsg string
		if len(m.entries) == 0 {
			emptyMsg = "Nothing to review.\n\nPress 'r' to reload results\nPress 'a' for run history"
		} else {
			emptyMsg = "No entries match filter.\n\nPress 'Esc' to clear filter"
		}
		detailContent = lipgloss.Place(
			m.width,
			m.viewport.Height,
			lipgloss.Center,
			lipgloss.Center,
			emptyTextStyle.Render(emptyMsg),
		)
	} else {
		detailContent = m.viewport.View()
	}

	detailRender := detailPaneBorderStyle.
		Width(m.width).
		Height(m.viewport.Height).
		Render(detailContent)

	var timeInfo string
	if m.viewingHistorical {
		timeInfo = fmt.Sprintf("Viewing: %s", m.lastRunTime.Format("Jan 2, 15:04"))
	} else if !m.lastRunTime.IsZero() {
		timeAgo := time.Since(m.lastRunTime)
		timeInfo = fmt.Sprintf("Run: %s ago", formatDuration(timeAgo))
	}

	statusLeft := m.statusMessage
	statusRight := timeInfo
	leftWidth := lipgloss.Width(statusLeft)
	rightWidth := lipgloss.Width(statusRight)
	availWidth := m.width - 4
	spacer := availWidth - leftWidth - rightWidth
	if spacer < 1 {
		spacer = 1
	}

	var statusContent string
	if timeInfo != "" {
		statusContent = statusLeft + strings.Repeat(" ", spacer) + statusRight
	} else {
		statusContent = statusLeft
	}

	statusRender := statusStyle.
		Width(m.width).
		Padding(0, 2).
		Render(statusContent)

	var bottomBar string
	if m.searchMode {
		matchCount := len(m.getDisplayEntries())
		searchStatus := fmt.Sprintf(" (%d matches)", matchCount)
		searchBarStyle := lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("15")).
			Width(m.width).
			Padding(0, 1)
		bottomBar = searchBarStyle.Render(m.searchInput.View() + searchStatus)
	} else {
		bottomBar = statusRender
	}

	mainView := lipgloss.JoinVertical(lipgloss.Left,
		statsHeader,
		tableRender,
		detailRender,
		bottomBar,
	)

	if m.showHelp {
		titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
		sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
		keyColor := lipgloss.Color("10")
		descColor := lipgloss.Color("250")

		formatRow := func(key, desc string) string {
			keyStyled := lipgloss.NewStyle().Foreground(keyColor).Render(key)
			descStyled := lipgloss.NewStyle().Foreground(descColor).Render(desc)
			padding := 12 - len(key)
			if padding < 1 {
				padding = 1
			}
			return "  " + keyStyled + strings.Repeat(" ", padding) + descStyled
		}

		var lines []string
		lines = append(lines, titleStyle.Render("Keyboard Shortcuts"))
		lines = append(lines, "")
		lines = append(lines, sectionStyle.Render("Navigation"))
		lines = append(lines, formatRow("j / k", "Move down / up"))
		lines = append(lines, formatRow("Ctrl+d/u", "Half-page down / up"))
		lines = append(lines, formatRow("Ctrl+f/b", "Full page down / up"))
		lines = append(lines, formatRow("g / G", "First / last row"))
		lines = append(lines, formatRow("n / N", "Next / prev failed key"))
		lines = append(lines, "")
		lines = append(lines, sectionStyle.Render("Search"))
		lines = append(lines, formatRow("/", "Search entries"))
		lines = append(lines, formatRow("Esc", "Clear filter"))
		lines = append(lines, "")
		lines = append(lines, sectionStyle.Render("Display"))
		lines = append(lines, formatRow("m", "Mask / reveal key IDs"))
		lines = append(lines, formatRow("+ / -", "Expand / contract context"))
		lines = append(lines, "")
		lines = append(lines, sectionStyle.Render("Export & Copy"))
		lines = append(lines, formatRow("e", "Export (JSON/CSV/SARIF)"))
		lines = append(lines, formatRow("y / Y", "Copy path / full entry"))
		lines = append(lines, "")
		lines = append(lines, sectionStyle.Render("Actions"))
		lines = append(lines, formatRow("Enter", "Open in $EDITOR"))
		lines = append(lines, formatRow("r", "Reload results file"))
		lines = append(lines, formatRow("a", "View run history"))
		lines = append(lines, "")
		lines = append(lines, sectionStyle.Render("Other"))
		lines = append(lines, formatRow("?", "Toggle help"))
		lines = append(lines, formatRow("q", "Quit"))
		lines = append(lines, "")
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true).
			Render("Press any key to close"))

		helpContent := lipgloss.JoinVertical(lipgloss.Left, lines...)
		helpBox := popupStyle.Width(44).Padding(1, 3).Render(helpContent)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, helpBox)
	}

	if m.showExportMenu {
		titleStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

		keyColor := lipgloss.Color("10")
		descColor := lipgloss.Color("250")

		var lines []string
		lines = append(lines, titleStyle.Render("Export Results"))
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("  %s  JSON  (report format)",
			lipgloss.NewStyle().Foreground(keyColor).Bold(true).Render("1/j")))
		lines = append(lines, fmt.Sprintf("  %s  CSV   (spreadsheet)",
			lipgloss.NewStyle().Foreground(keyColor).Bold(true).Render("2/c")))
		lines = append(lines, fmt.Sprintf("  %s  SARIF (code scanning)",
			lipgloss.NewStyle().Foreground(keyColor).Bold(true).Render("3/s")))
		lines = append(lines, "")
		lines = append(lines, lipgloss.NewStyle().
			Foreground(descColor).
			Italic(true).
			Render(fmt.Sprintf("Exporting %d entries", len(m.getDisplayEntries()))))
		lines = append(lines, "")
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true).
			Render("Esc to cancel"))

		exportContent := lipgloss.JoinVertical(lipgloss.Left, lines...)
		exportBox := popupStyle.
			Width(40).
			Padding(1, 3).
			Render(exportContent)

		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, exportBox)
	}

	if m.showRunHistory {
		historyTitle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Render("RUN HISTORY")

		var content string
		if len(m.runHistory) == 0 {
			content = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8")).
				Render("No run history found.\n\nRemediation runs append to the audit log.")
		} else {
			var lines []string
			lines = append(lines, historyTitle)
			lines = append(lines, "")

			maxRuns := 10
			if len(m.runHistory) < maxRuns {
				maxRuns = len(m.runHistory)
			}

			for i := 0; i < maxRuns; i++ {
				rec := m.runHistory[i]
				timeStr := rec.Timestamp.Format("Jan 2, 15:04:05")

				keys := rec.Counts.Deactivated + rec.Counts.NotFound + rec.Counts.Failed
				total := keys + rec.Counts.General

				summaryStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
				if total == 0 {
					summaryStyle = summaryStyle.Foreground(lipgloss.Color("10"))
				} else if rec.Counts.Failed > 0 {
					summaryStyle = summaryStyle.Foreground(lipgloss.Color("11"))
				}

				summary := fmt.Sprintf("%s - %d keys (%d deactivated, %d failed), %d general",
					timeStr, keys, rec.Counts.Deactivated, rec.Counts.Failed, rec.Counts.General)
				if rec.DryRun {
					summary += " [dry-run]"
				}

				if i == m.historySelection {
					lines = append(lines, lipgloss.NewStyle().
						Foreground(lipgloss.Color("232")).
						Background(lipgloss.Color("208")).
						Bold(true).
						Render("  > "+summary))
				} else {
					lines = append(lines, summaryStyle.Render("    "+summary))
				}
			}

			lines = append(lines, "")
			lines = append(lines, "")
			lines = append(lines, lipgloss.NewStyle().
				Foreground(lipgloss.Color("8")).
				Italic(true).
				Render("Enter: view | d: delete | a: close"))

			content = lipgloss.JoinVertical(lipgloss.Left, lines...)
		}

		historyBox := popupStyle.Width(70).Padding(2, 4).Render(content)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, historyBox)
	}

	return mainView
}
