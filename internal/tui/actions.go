package tui

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/keyreaper/keyreaper/internal/report"
	"github.com/keyreaper/keyreaper/internal/types"
)

func (m Model) getSelectedEntry() *entry {
	idx := m.table.Cursor()
	entries := m.getDisplayEntries()
	if idx >= 0 && idx < len(entries) {
		return &entries[idx]
	}
	return nil
}

func (m Model) openEditor() tea.Cmd {
	e := m.getSelectedEntry()
	if e == nil {
		return nil
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim" // Default to vim
	}

	// Build args based on editor type
	var args []string
	editorBase := editor
	// Extract just the editor name (handle paths like /usr/bin/vim)
	if idx := strings.LastIndex(editor, "/"); idx != -1 {
		editorBase = editor[idx+1:]
	}

	switch editorBase {
	case "code", "code-insiders":
		// VS Code: code -g file:line
		args = []string{"-g", fmt.Sprintf("%s:%d", e.path(), e.line())}
	case "subl", "sublime", "sublime_text":
		// Sublime: subl file:line
		args = []string{fmt.Sprintf("%s:%d", e.path(), e.line())}
	default:
		// vim, nvim, emacs, nano and friends all accept +line
		args = []string{fmt.Sprintf("+%d", e.line()), e.path()}
	}

	c := exec.Command(editor, args...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		if err != nil {
			return statusMsg(fmt.Sprintf("Error opening editor: %v", err))
		}
		return statusMsg("Editor closed")
	})
}

// copyPathToClipboard copies the current entry's file path to clipboard
func (m Model) copyPathToClipboard() tea.Cmd {
	e := m.getSelectedEntry()
	if e == nil {
		return func() tea.Msg { return statusMsg("No entry selected") }
	}

	if err := clipboard.WriteAll(e.path()); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}

	return func() tea.Msg { return statusMsg(fmt.Sprintf("Copied: %s", e.path())) }
}

// copyEntryToClipboard copies full entry details to clipboard. Key IDs
// honor the mask toggle so a masked screen never yields an unmasked paste.
func (m Model) copyEntryToClipboard() tea.Cmd {
	e := m.getSelectedEntry()
	if e == nil {
		return func() tea.Msg { return statusMsg("No entry selected") }
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Type: %s\n", e.kindText()))
	sb.WriteString(fmt.Sprintf("Status: %s\n", e.statusText()))
	if e.Key != nil {
		sb.WriteString(fmt.Sprintf("Access key: %s\n", e.identifier(m.hideKeyIDs)))
		if e.Key.UserName != nil && *e.Key.UserName != "" {
			sb.WriteString(fmt.Sprintf("Owner: %s\n", *e.Key.UserName))
		}
		if e.Key.Message != "" {
			sb.WriteString(fmt.Sprintf("Message: %s\n", e.Key.Message))
		}
		sb.WriteString(fmt.Sprintf("Confidence: %.1f%%\n", e.Key.Confidence*100))
	} else {
		sb.WriteString(fmt.Sprintf("Preview: %s\n", e.General.Preview))
		sb.WriteString(fmt.Sprintf("Confidence: %.1f%%\n", e.General.Confidence*100))
	}
	sb.WriteString(fmt.Sprintf("Location: %s:%d\n", e.path(), e.line()))

	if err := clipboard.WriteAll(sb.String()); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}

	return func() tea.Msg { return statusMsg("Copied entry details to clipboard") }
}

// exportResults exports the current view to a file. JSON and SARIF carry
// the full report data; only the on-screen display is subject to masking.
func (m *Model) exportResults(format string) tea.Cmd {
	displayEntries := m.getDisplayEntries()
	if len(displayEntries) == 0 {
		return func() tea.Msg { return statusMsg("Nothing to export") }
	}

	rpt := buildReport(displayEntries)

	// Generate filename with timestamp
	timestamp := time.Now().Format("20060102-150405")
	var filename string
	var err error

	switch format {
	case "json":
		filename = fmt.Sprintf("keyreaper-export-%s.json", timestamp)
		err = report.WriteJSON(filename, rpt)
	case "csv":
		filename = fmt.Sprintf("keyreaper-export-%s.csv", timestamp)
		var data []byte
		data, err = entriesToCSV(displayEntries)
		if err == nil {
			err = os.WriteFile(filename, data, 0644)
		}
	case "sarif":
		filename = fmt.Sprintf("keyreaper-export-%s.sarif", timestamp)
		var f *os.File
		f, err = os.Create(filename)
		if err == nil {
			err = report.WriteSARIF(f, rpt, "")
			_ = f.Close()
		}
	default:
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Unknown format: %s", format)) }
	}

	if err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Export error: %v", err)) }
	}

	absPath, _ := filepath.Abs(filename)
	return func() tea.Msg {
		return statusMsg(fmt.Sprintf("Exported %d entries to %s", len(displayEntries), absPath))
	}
}

// buildReport reassembles a report from the displayed entries so a
// filtered view exports exactly what is on screen.
func buildReport(entries []entry) types.Report {
	var r types.Report
	for _, e := range entries {
		if e.Key != nil {
			r.AWSKeys = append(r.AWSKeys, *e.Key)
		} else {
			r.GeneralSecrets = append(r.GeneralSecrets, *e.General)
		}
	}
	return report.Normalize(r)
}

// entriesToCSV converts entries to CSV format
func entriesToCSV(entries []entry) ([]byte, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	// Header
	if err := writer.Write([]string{"Type", "Status", "Identifier", "Owner", "Path", "Line", "Confidence", "Message"}); err != nil {
		return nil, err
	}

	// Rows
	for _, e := range entries {
		var owner, message string
		confidence := 0.0
		if e.Key != nil {
			if e.Key.UserName != nil {
				owner = *e.Key.UserName
			}
			message = e.Key.Message
			confidence = e.Key.Confidence
		} else {
			confidence = e.General.Confidence
		}

		row := []string{
			e.kindText(),
			e.statusText(),
			e.identifier(false),
			owner,
			e.path(),
			fmt.Sprintf("%d", e.line()),
			fmt.Sprintf("%.3f", confidence),
			message,
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	return []byte(sb.String()), writer.Error()
}

type statusMsg string
