package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/keyreaper/keyreaper/internal/redact"
	"github.com/keyreaper/keyreaper/internal/remediate"
	"github.com/keyreaper/keyreaper/internal/types"
)

type RunRecord struct {
	Timestamp   time.Time        `json:"timestamp"`
	RunID       string           `json:"run_id"`
	Source      string           `json:"source"`
	Mode        string           `json:"mode"`
	DryRun      bool             `json:"dry_run,omitempty"`
	Partial     bool             `json:"partial,omitempty"`
	Counts      remediate.Counts `json:"counts"`
	Duration    string           `json:"duration"`
	TopOutcomes []OutcomeSummary `json:"top_outcomes,omitempty"`
	Report      *types.Report    `json:"report,omitempty"`
}

type OutcomeSummary struct {
	AccessKey string `json:"access_key"`
	Status    string `json:"status"`
	Path      string `json:"path"`
	Line      int    `json:"line"`
}

type AuditLog struct {
	logPath string
}

func NewAuditLog(root string) *AuditLog {
	gitDir := filepath.Join(root, ".git")
	logPath := filepath.Join(root, ".keyreaper_audit.jsonl")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		logPath = filepath.Join(gitDir, "keyreaper_audit.jsonl")
	}
	return &AuditLog{logPath: logPath}
}

func (a *AuditLog) Path() string { return a.logPath }

func (a *AuditLog) LoadHistory() ([]RunRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []RunRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record RunRecord
		if err := decoder.Decode(&record); err != nil {
			continue
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogRun(record RunRecord) error {
	if record.RunID == "" {
		record.RunID = fmt.Sprintf("run_%d", time.Now().Unix())
	}

	// Owner-only permissions, the log names key owners and locations
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	if err := encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

func (a *AuditLog) DeleteRecord(index int) error {
	records, err := a.LoadHistory()
	if err != nil {
		return err
	}

	if index < 0 || index >= len(records) {
		return fmt.Errorf("invalid index: %d", index)
	}

	records = append(records[:index], records[index+1:]...)

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	f, err := os.Create(a.logPath)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("failed to write audit record: %w", err)
		}
	}
	return nil
}

func CreateRunRecord(
	source string,
	mode string,
	res remediate.Result,
	duration time.Duration,
	dryRun bool,
) RunRecord {
	topOutcomes := make([]OutcomeSummary, 0, 10)
	for i, k := range res.Report.AWSKeys {
		if i >= 10 {
			break
		}
		topOutcomes = append(topOutcomes, OutcomeSummary{
			AccessKey: redact.Mask(k.AccessKeyID),
			Status:    string(k.Status),
			Path:      k.Path,
			Line:      k.Line,
		})
	}

	// Mask key IDs before the report copy reaches the audit log
	masked := maskKeys(res.Report)

	return RunRecord{
		Timestamp:   time.Now(),
		RunID:       res.RunID,
		Source:      source,
		Mode:        mode,
		DryRun:      dryRun,
		Partial:     res.Partial,
		Counts:      res.Counts,
		Duration:    duration.String(),
		TopOutcomes: topOutcomes,
		Report:      &masked,
	}
}

// maskKeys returns a copy of the report with access key IDs masked.
// The audit log records what happened, not reusable identifiers.
func maskKeys(r types.Report) types.Report {
	masked := r
	masked.AWSKeys = make([]types.KeyOutcome, len(r.AWSKeys))
	for i, k := range r.AWSKeys {
		masked.AWSKeys[i] = k
		masked.AWSKeys[i].AccessKeyID = redact.Mask(k.AccessKeyID)
	}
	return masked
}
