package tui

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Prefs holds user preferences for the TUI that persist across sessions.
type Prefs struct {
	// HideKeyIDs controls whether access key IDs are redacted in the
	// display. Defaults to true for security (prevents shoulder surfing).
	HideKeyIDs bool `json:"hide_key_ids"`
}

// DefaultPrefs returns the default preferences.
func DefaultPrefs() Prefs {
	return Prefs{
		HideKeyIDs: true, // Default to hidden for security
	}
}

// prefsPath returns the path to the TUI preferences file.
func prefsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".keyreaper", "tui_prefs.json"), nil
}

// LoadPrefs loads user preferences from disk, returning defaults if not found.
func LoadPrefs() Prefs {
	prefs := DefaultPrefs()

	path, err := prefsPath()
	if err != nil {
		return prefs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return prefs // File doesn't exist yet, use defaults
	}

	// Ignore unmarshal errors, just use defaults
	_ = json.Unmarshal(data, &prefs) //nolint:errcheck // Intentionally ignore: fall back to defaults
	return prefs
}

// SavePrefs persists user preferences to disk.
func SavePrefs(prefs Prefs) error {
	path, err := prefsPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
