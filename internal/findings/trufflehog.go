package findings

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Record is the flattened finding shape the parse command writes. Raw-mode
// loading accepts it interchangeably with trufflehog's native schema.
type Record struct {
	Secret   string `json:"secret"`
	Category string `json:"category"`
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
}

// ParseTruffleHog reads trufflehog JSONL output and extracts one Record per
// detection. Blank lines, malformed lines and records without secret text
// are skipped.
func ParseTruffleHog(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	// Detections embed the matched file content, so lines can run long.
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var out []Record
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var raw rawRecord
		if err := json.Unmarshal(line, &raw); err != nil {
			continue
		}
		if raw.Raw == "" {
			continue
		}
		category := raw.DetectorName
		if category == "" {
			category = defaultCategory
		}
		out = append(out, Record{
			Secret:   raw.Raw,
			Category: category,
			FilePath: raw.SourceMetadata.Data.Filesystem.File,
			Line:     raw.SourceMetadata.Data.Filesystem.Line,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning trufflehog output: %w", err)
	}
	return out, nil
}

// ParseTruffleHogFile parses the trufflehog JSONL file at path.
func ParseTruffleHogFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trufflehog output: %w", err)
	}
	defer f.Close()
	return ParseTruffleHog(f)
}

// Stats summarizes parsed records by detector category.
type Stats struct {
	Total            int            `json:"total"`
	ByCategory       map[string]int `json:"by_category"`
	UniqueCategories int            `json:"unique_categories"`
}

// Summarize counts records per category.
func Summarize(records []Record) Stats {
	by := make(map[string]int, 8)
	for _, r := range records {
		by[r.Category]++
	}
	return Stats{Total: len(records), ByCategory: by, UniqueCategories: len(by)}
}

// FilterCategory returns the records whose category matches exactly.
func FilterCategory(records []Record, category string) []Record {
	var out []Record
	for _, r := range records {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}
