package report

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/keyreaper/keyreaper/internal/types"
)

type sarif struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID string `json:"id"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	RuleIndex int          `json:"ruleIndex"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int           `json:"startLine"`
	Snippet   *sarifMessage `json:"snippet,omitempty"`
}

const awsRuleID = "aws-access-key"

func statusToLevel(s types.Status) string {
	switch s {
	case types.StatusFailed:
		return "error"
	case types.StatusNotFound:
		return "note"
	default:
		return "warning"
	}
}

func ruleSlug(category string) string {
	slug := strings.ToLower(strings.TrimSpace(category))
	slug = strings.ReplaceAll(slug, " ", "-")
	if slug == "" {
		return "unknown-secret"
	}
	return slug
}

// WriteSARIF writes the report as SARIF 2.1.0 for code-scanning upload.
// Access key locations reference the key ID in the snippet; general secrets
// carry only their redacted preview.
func WriteSARIF(w io.Writer, r types.Report, version string) error {
	r = Normalize(r)
	if version == "" {
		version = "dev"
	}
	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: "keyreaper", Version: version, Rules: []sarifRule{}}},
		Results: []sarifResult{},
	}
	ruleIndex := map[string]int{}
	rule := func(id string) int {
		if i, ok := ruleIndex[id]; ok {
			return i
		}
		i := len(run.Tool.Driver.Rules)
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{ID: id})
		ruleIndex[id] = i
		return i
	}

	for _, k := range r.AWSKeys {
		run.Results = append(run.Results, sarifResult{
			RuleID:    awsRuleID,
			RuleIndex: rule(awsRuleID),
			Level:     statusToLevel(k.Status),
			Message:   sarifMessage{Text: "Leaked AWS access key " + k.AccessKeyID + ": " + k.Message},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: k.Path},
					Region: sarifRegion{
						StartLine: k.Line,
						Snippet:   &sarifMessage{Text: k.AccessKeyID},
					},
				},
			}},
		})
	}
	for _, g := range r.GeneralSecrets {
		id := ruleSlug(g.SecretType)
		run.Results = append(run.Results, sarifResult{
			RuleID:    id,
			RuleIndex: rule(id),
			Level:     "warning",
			Message:   sarifMessage{Text: g.SecretType + " detected"},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: g.Path},
					Region: sarifRegion{
						StartLine: g.Line,
						Snippet:   &sarifMessage{Text: g.Preview},
					},
				},
			}},
		})
	}

	t := Count(r)
	run.Properties = map[string]any{
		"outcomeStats": map[string]int{
			"deactivated": t.Deactivated,
			"notFound":    t.NotFound,
			"failed":      t.Failed,
			"general":     len(r.GeneralSecrets),
		},
	}

	doc := sarif{
		Version: "2.1.0",
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
