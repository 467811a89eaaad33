// Package findings loads scanner and classifier output documents and
// normalizes them into the canonical types.Finding shape consumed by the
// remediation pipeline.
package findings

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/keyreaper/keyreaper/internal/types"
)

// Mode selects the input schema for Load. Callers state the schema
// explicitly; Load never guesses from document structure.
type Mode string

const (
	// ModeRaw is TruffleHog filesystem-scan output: an array (or a single
	// object) of records carrying DetectorName, Raw and SourceMetadata.
	ModeRaw Mode = "raw"
	// ModeAIFiltered is classifier output: {"findings": [...]} where each
	// entry carries a deberta_prediction verdict block.
	ModeAIFiltered Mode = "ai-filtered"
)

// ParseMode validates a user-supplied mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRaw:
		return ModeRaw, nil
	case ModeAIFiltered:
		return ModeAIFiltered, nil
	}
	return "", fmt.Errorf("unknown input mode %q (valid: %s, %s)", s, ModeRaw, ModeAIFiltered)
}

const (
	defaultCategory = "Unknown"
	defaultPath     = "unknown"
)

// rawRecord mirrors one line of trufflehog's JSON output.
type rawRecord struct {
	DetectorName   string `json:"DetectorName"`
	Raw            string `json:"Raw"`
	SourceMetadata struct {
		Data struct {
			Filesystem struct {
				File string `json:"file"`
				Line int    `json:"line"`
			} `json:"Filesystem"`
		} `json:"Data"`
	} `json:"SourceMetadata"`
}

// filteredRecord mirrors one entry of the classifier document. Older
// classifier builds used secret/category/line_number where newer ones emit
// secret_raw/secret_type/line, so each pair is kept and merged.
type filteredRecord struct {
	SecretRaw  string `json:"secret_raw"`
	Secret     string `json:"secret"`
	SecretType string `json:"secret_type"`
	Category   string `json:"category"`
	FilePath   string `json:"file_path"`
	Line       *int   `json:"line"`
	LineNumber *int   `json:"line_number"`
	Prediction *struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"deberta_prediction"`
}

type filteredDoc struct {
	Findings []filteredRecord `json:"findings"`
}

// Load reads the file at path and normalizes it under the given mode.
// Records with no secret text are dropped silently; everything else is
// returned in document order.
func Load(path string, mode Mode) ([]types.Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading findings file: %w", err)
	}
	return Decode(data, mode)
}

// Decode normalizes an in-memory document under the given mode.
func Decode(data []byte, mode Mode) ([]types.Finding, error) {
	switch mode {
	case ModeRaw:
		return decodeRaw(data)
	case ModeAIFiltered:
		return decodeFiltered(data)
	}
	return nil, fmt.Errorf("unknown input mode %q", mode)
}

func decodeRaw(data []byte) ([]types.Finding, error) {
	// Raw mode accepts trufflehog's native schema and the flattened Record
	// shape in the same document, so both field sets decode together.
	type rawEntry struct {
		rawRecord
		Record
	}
	var entries []rawEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A single bare object is accepted as a one-element array.
		var one rawEntry
		if err2 := json.Unmarshal(data, &one); err2 != nil {
			return nil, fmt.Errorf("parsing raw findings: %w", err)
		}
		entries = []rawEntry{one}
	}
	out := make([]types.Finding, 0, len(entries))
	for _, e := range entries {
		f, ok := normalizeRaw(e.rawRecord, e.Record)
		if !ok {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// EncodeFiltered renders findings as a classifier output document using
// the current field set (secret_raw, secret_type, line). Decode under
// ModeAIFiltered reads the result back unchanged. A non-nil summary is
// carried under the document's "summary" key.
func EncodeFiltered(fs []types.Finding, summary any) ([]byte, error) {
	type prediction struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	type outRecord struct {
		SecretRaw  string     `json:"secret_raw"`
		SecretType string     `json:"secret_type"`
		FilePath   string     `json:"file_path"`
		Line       int        `json:"line"`
		Prediction prediction `json:"deberta_prediction"`
	}
	doc := struct {
		Findings []outRecord `json:"findings"`
		Summary  any         `json:"summary,omitempty"`
	}{Findings: make([]outRecord, 0, len(fs)), Summary: summary}
	for _, f := range fs {
		doc.Findings = append(doc.Findings, outRecord{
			SecretRaw:  f.Secret,
			SecretType: f.Category,
			FilePath:   f.Path,
			Line:       f.Line,
			Prediction: prediction{
				Label:      string(f.Verdict.Label),
				Confidence: f.Verdict.Confidence,
			},
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

func decodeFiltered(data []byte) ([]types.Finding, error) {
	var doc filteredDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing classifier findings: %w", err)
	}
	out := make([]types.Finding, 0, len(doc.Findings))
	for _, r := range doc.Findings {
		f, ok := normalizeFiltered(r)
		if !ok {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// normalizeRaw flattens a trufflehog record. Scanner output carries no
// verdict, so every surviving record is marked actionable with full
// confidence; the classifier gate does not apply to raw input.
func normalizeRaw(r rawRecord, p Record) (types.Finding, bool) {
	secret := r.Raw
	if secret == "" {
		secret = p.Secret
	}
	if secret == "" {
		return types.Finding{}, false
	}
	category := r.DetectorName
	if category == "" {
		category = p.Category
	}
	if category == "" {
		category = defaultCategory
	}
	path := r.SourceMetadata.Data.Filesystem.File
	if path == "" {
		path = p.FilePath
	}
	if path == "" {
		path = defaultPath
	}
	line := r.SourceMetadata.Data.Filesystem.Line
	if line == 0 {
		line = p.Line
	}
	return types.Finding{
		Secret:     secret,
		Category:   category,
		Path:       path,
		Line:       line,
		Confidence: 1.0,
		Verdict:    types.Verdict{Label: types.LabelTrue, Confidence: 1.0},
	}, true
}

// normalizeFiltered flattens a classifier record. A missing prediction
// block leaves the verdict label empty, which the pipeline gate treats the
// same as N.
func normalizeFiltered(r filteredRecord) (types.Finding, bool) {
	secret := r.SecretRaw
	if secret == "" {
		secret = r.Secret
	}
	if secret == "" {
		return types.Finding{}, false
	}
	category := r.SecretType
	if category == "" {
		category = r.Category
	}
	if category == "" {
		category = defaultCategory
	}
	path := r.FilePath
	if path == "" {
		path = defaultPath
	}
	line := 0
	if r.Line != nil {
		line = *r.Line
	} else if r.LineNumber != nil {
		line = *r.LineNumber
	}
	f := types.Finding{
		Secret:   secret,
		Category: category,
		Path:     path,
		Line:     line,
	}
	if r.Prediction != nil {
		f.Confidence = r.Prediction.Confidence
		f.Verdict = types.Verdict{
			Label:      types.Label(strings.ToUpper(strings.TrimSpace(r.Prediction.Label))),
			Confidence: r.Prediction.Confidence,
		}
	}
	return f, true
}
