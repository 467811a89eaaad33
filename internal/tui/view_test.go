package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/keyreaper/keyreaper/internal/audit"
	"github.com/keyreaper/keyreaper/internal/remediate"
)

// =============================================================================
// View Rendering Tests
// =============================================================================

func TestView_Rendering(t *testing.T) {
	t.Run("renders basic view", func(t *testing.T) {
		m := NewModel(sampleReport(), "results.json", nil)
		m.ready = true
		m.width = 120
		m.height = 40

		view := m.View()

		if view == "" {
			t.Error("view should not be empty")
		}
		if !strings.Contains(view, "Total:") {
			t.Error("view should contain the stats header")
		}
		if !strings.Contains(view, "[results.json]") {
			t.Error("view should show the result source")
		}
	})

	t.Run("renders empty state", func(t *testing.T) {
		m := NewModel(nil, "", nil)
		m.ready = true
		m.width = 120
		m.height = 40

		view := m.View()

		if !strings.Contains(view, "Nothing left to remediate") {
			t.Error("empty view should show the all-clear message")
		}
	})

	t.Run("renders loading overlay", func(t *testing.T) {
		m := NewModel(sampleReport(), "", nil)
		m.ready = true
		m.width = 120
		m.height = 40
		m.loading = true
		m.spinner = spinner.New()

		view := m.View()

		if !strings.Contains(view, "Reloading results") {
			t.Error("loading view should show the reload message")
		}
	})

	t.Run("renders help overlay", func(t *testing.T) {
		m := NewModel(sampleReport(), "", nil)
		m.ready = true
		m.width = 120
		m.height = 40
		m.showHelp = true

		view := m.View()

		if !strings.Contains(view, "Keyboard Shortcuts") {
			t.Error("help view should show shortcut reference")
		}
		if !strings.Contains(view, "Mask / reveal key IDs") {
			t.Error("help view should document the mask toggle")
		}
	})

	t.Run("renders export menu", func(t *testing.T) {
		m := NewModel(sampleReport(), "", nil)
		m.ready = true
		m.width = 120
		m.height = 40
		m.showExportMenu = true

		view := m.View()

		if !strings.Contains(view, "Export Results") {
			t.Error("export menu should show its title")
		}
		if !strings.Contains(view, "SARIF") {
			t.Error("export menu should offer SARIF")
		}
	})

	t.Run("renders empty run history", func(t *testing.T) {
		m := NewModel(sampleReport(), "", nil)
		m.ready = true
		m.width = 120
		m.height = 40
		m.showRunHistory = true

		view := m.View()

		if !strings.Contains(view, "No run history found") {
			t.Error("history popup should explain there are no runs")
		}
	})

	t.Run("renders run history records", func(t *testing.T) {
		m := NewModel(sampleReport(), "", nil)
		m.ready = true
		m.width = 120
		m.height = 40
		m.showRunHistory = true
		m.runHistory = []audit.RunRecord{
			{
				Timestamp: time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC),
				Counts:    remediate.Counts{Deactivated: 2, Failed: 1, General: 3},
				DryRun:    true,
			},
		}

		view := m.View()

		if !strings.Contains(view, "RUN HISTORY") {
			t.Error("history popup should show its title")
		}
		if !strings.Contains(view, "3 keys (2 deactivated, 1 failed), 3 general") {
			t.Error("history popup should summarize record counts")
		}
		if !strings.Contains(view, "[dry-run]") {
			t.Error("dry runs should be flagged")
		}
	})

	t.Run("renders not ready state", func(t *testing.T) {
		m := NewModel(sampleReport(), "", nil)

		view := m.View()

		if !strings.Contains(view, "Initializing") {
			t.Error("unready view should show the init message")
		}
	})

	t.Run("renders nothing when quitting", func(t *testing.T) {
		m := NewModel(sampleReport(), "", nil)
		m.quitting = true

		if m.View() != "" {
			t.Error("quitting view should be empty")
		}
	})
}

func TestView_MaskIndicator(t *testing.T) {
	m := NewModel(sampleReport(), "", nil)
	m.ready = true
	m.width = 120
	m.height = 40

	m.hideKeyIDs = true
	m.rebuildTableRows()
	if !strings.Contains(m.View(), "[keys masked]") {
		t.Error("masked view should advertise masking in the header")
	}

	m.hideKeyIDs = false
	m.rebuildTableRows()
	if strings.Contains(m.View(), "[keys masked]") {
		t.Error("unmasked view should not show the mask indicator")
	}
}

func TestView_SearchBar(t *testing.T) {
	m := NewModel(sampleReport(), "", nil)
	m.ready = true
	m.width = 120
	m.height = 40
	m.searchMode = true
	m.searchInput.SetValue("config")
	m.searchQuery = "config"
	m.applyFilters()
	m.rebuildTableRows()

	view := m.View()

	if !strings.Contains(view, "1 matches") {
		t.Error("search bar should show the match count")
	}
	if !strings.Contains(view, "Showing: 1/3") {
		t.Error("filtered header should show filtered/total counts")
	}
}

func TestInit(t *testing.T) {
	m := NewModel(sampleReport(), "", nil)
	if m.Init() == nil {
		t.Error("Init should return the spinner tick command")
	}
}

// =============================================================================
// Duration Formatting Tests
// =============================================================================

func TestFormatDuration_Coverage(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{2 * time.Hour, "2h"},
		{48 * time.Hour, "2d"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.expected {
			t.Errorf("formatDuration(%v) = %s, want %s", tt.d, got, tt.expected)
		}
	}
}
