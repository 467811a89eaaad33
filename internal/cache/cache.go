package cache

import (
	"os"
	"path/filepath"

	"github.com/keyreaper/keyreaper/internal/audit"
)

// statePath resolves where repo-local state lives.
// Prefer storing under .git to avoid accidental commits,
// fall back to a dotfile at the repo root.
func statePath(root, gitName, plainName string) string {
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, gitName)
	}
	return filepath.Join(root, plainName)
}

// Purge removes keyreaper state files and returns the paths it deleted.
// The audit log is only removed when includeAudit is set.
func Purge(root string, includeAudit bool) ([]string, error) {
	targets := []string{resultsPath(root)}
	if includeAudit {
		targets = append(targets, audit.NewAuditLog(root).Path())
	}

	var removed []string
	for _, p := range targets {
		err := os.Remove(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, err
		}
		removed = append(removed, p)
	}
	return removed, nil
}
