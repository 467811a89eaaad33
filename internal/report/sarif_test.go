package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/keyreaper/keyreaper/internal/types"
)

func TestWriteSARIF_Golden(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, sampleReport(), "1.0.0"); err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc["version"] != "2.1.0" {
		t.Fatalf("expected SARIF 2.1.0, got %v", doc["version"])
	}
	runs, ok := doc["runs"].([]any)
	if !ok || len(runs) != 1 {
		t.Fatalf("expected 1 run")
	}
	run := runs[0].(map[string]any)
	driver := run["tool"].(map[string]any)["driver"].(map[string]any)
	// One rule for AWS keys plus one per general category
	rules, ok := driver["rules"].([]any)
	if !ok || len(rules) != 2 {
		t.Fatalf("expected 2 rules under tool.driver.rules, got %v", driver["rules"])
	}
	results := run["results"].([]any)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	first := results[0].(map[string]any)
	if first["ruleId"] != "aws-access-key" {
		t.Fatalf("expected aws rule id, got %v", first["ruleId"])
	}
	locs := first["locations"].([]any)
	phys := locs[0].(map[string]any)["physicalLocation"].(map[string]any)
	region := phys["region"].(map[string]any)
	if _, ok := region["snippet"]; !ok {
		t.Fatalf("expected snippet present")
	}
}

func TestWriteSARIF_LevelsFollowStatus(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, sampleReport(), ""); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Runs []struct {
			Results []struct {
				Level   string `json:"level"`
				Message struct {
					Text string `json:"text"`
				} `json:"message"`
			} `json:"results"`
			Properties map[string]any `json:"properties"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	res := doc.Runs[0].Results
	if res[0].Level != "warning" {
		t.Fatalf("deactivated key should map to warning, got %s", res[0].Level)
	}
	if res[1].Level != "error" {
		t.Fatalf("failed key should map to error, got %s", res[1].Level)
	}
	if res[2].Level != "warning" {
		t.Fatalf("general secret should map to warning, got %s", res[2].Level)
	}
	stats, ok := doc.Runs[0].Properties["outcomeStats"].(map[string]any)
	if !ok {
		t.Fatalf("expected outcomeStats in properties, got %#v", doc.Runs[0].Properties)
	}
	if stats["failed"].(float64) != 1 {
		t.Fatalf("unexpected outcomeStats: %#v", stats)
	}
}

func TestWriteSARIF_GeneralSnippetIsPreviewOnly(t *testing.T) {
	r := types.Report{GeneralSecrets: []types.GeneralSecret{{
		SecretType: "Github Token",
		Path:       "deploy.yml",
		Line:       9,
		Preview:    "ghp_0123456789abcdef...",
	}}}
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, r, ""); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte("ghp_0123456789abcdef...")) {
		t.Fatalf("expected preview in snippet; got: %s", out)
	}
}
