package core

import (
	"encoding/json"
	"io"

	"github.com/keyreaper/keyreaper/internal/report"
)

// MarshalReport pretty-prints a report as JSON for humans or pipelines.
// Nil sections are written as empty arrays, matching the report artifact.
func MarshalReport(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report.Normalize(r))
}

// UnmarshalReport decodes report JSON, useful for ingestion tests.
func UnmarshalReport(rd io.Reader) (Report, error) {
	var r Report
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return Report{}, err
	}
	return report.Normalize(r), nil
}
