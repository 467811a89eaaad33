package cache

import (
	"encoding/json"
	"os"
	"time"

	"github.com/keyreaper/keyreaper/internal/types"
)

// LastRun stores the report and metadata of the most recent remediation run
type LastRun struct {
	Report    types.Report `json:"report"`
	RunID     string       `json:"run_id"`
	Source    string       `json:"source"`
	Timestamp time.Time    `json:"timestamp"`
	Root      string       `json:"root"`
	Count     int          `json:"count"`
}

func resultsPath(root string) string {
	// Store in .git directory or repo root
	return statePath(root, "keyreaper_last_run.json", ".keyreaper_last_run.json")
}

// SaveResults caches the latest run so review and notify can find it
// without a flag.
func SaveResults(root, source, runID string, r types.Report) error {
	p := resultsPath(root)
	results := LastRun{
		Report:    r,
		RunID:     runID,
		Source:    source,
		Timestamp: time.Now(),
		Root:      root,
		Count:     len(r.AWSKeys) + len(r.GeneralSecrets),
	}
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0600)
}

// LoadResults loads the last cached run
func LoadResults(root string) (LastRun, error) {
	var results LastRun
	p := resultsPath(root)
	f, err := os.ReadFile(p)
	if err != nil {
		return results, err
	}
	if err := json.Unmarshal(f, &results); err != nil {
		return results, err
	}
	return results, nil
}
