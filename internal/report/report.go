// Package report renders and persists remediation results: the JSON
// artifact, console output, CI step summaries and the acknowledge list.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/keyreaper/keyreaper/internal/types"
)

// Normalize replaces nil sections with empty slices so the JSON artifact
// always carries both arrays.
func Normalize(r types.Report) types.Report {
	if r.AWSKeys == nil {
		r.AWSKeys = []types.KeyOutcome{}
	}
	if r.GeneralSecrets == nil {
		r.GeneralSecrets = []types.GeneralSecret{}
	}
	return r
}

// WriteJSON writes the report atomically: the document lands under a temp
// name in the target directory and is renamed into place, so a crashed run
// never leaves a truncated artifact behind.
func WriteJSON(path string, r types.Report) error {
	r = Normalize(r)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".keyreaper-report-*")
	if err != nil {
		return fmt.Errorf("creating report temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath) //nolint:errcheck // Gone after rename on success
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck
		return fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing report: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("setting report permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("moving report into place: %w", err)
	}
	return nil
}

// ReadJSON loads a previously written report.
func ReadJSON(path string) (types.Report, error) {
	var r types.Report
	data, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return Normalize(r), nil
}

// ShouldFail implements the fail-on policy for CI gates.
// "failed" fails the build when any key could not be deactivated, "any"
// fails on any surviving finding at all, everything else never fails.
func ShouldFail(r types.Report, failOn string) bool {
	switch failOn {
	case "failed":
		for _, k := range r.AWSKeys {
			if k.Status == types.StatusFailed {
				return true
			}
		}
		return false
	case "any":
		return len(r.AWSKeys) > 0 || len(r.GeneralSecrets) > 0
	}
	return false
}
