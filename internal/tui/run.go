package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/keyreaper/keyreaper/internal/types"
)

// Run starts the review TUI over a remediation report. reloadFunc
// re-reads the source the report came from; pass nil to disable reload.
func Run(rpt *types.Report, source string, reloadFunc func() (*types.Report, error)) error {
	m := NewModel(rpt, source, reloadFunc)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// RunCached starts the TUI over a previously saved run. The status bar
// reports the run's original timestamp rather than load time.
func RunCached(rpt *types.Report, source string, reloadFunc func() (*types.Report, error), timestamp time.Time) error {
	m := NewModel(rpt, source, reloadFunc)
	m.lastRunTime = timestamp
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
