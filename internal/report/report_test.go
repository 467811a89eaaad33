package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keyreaper/keyreaper/internal/types"
)

func TestWriteJSON_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outputs", "remediation_results.json")
	if err := WriteJSON(path, sampleReport()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(got.AWSKeys) != 2 || len(got.GeneralSecrets) != 1 {
		t.Fatalf("unexpected round trip: %+v", got)
	}
	if got.AWSKeys[0].UserName == nil || *got.AWSKeys[0].UserName != "ci-bot" {
		t.Fatalf("expected owner to survive round trip: %+v", got.AWSKeys[0])
	}
}

func TestWriteJSON_EmptyReportHasBothSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := WriteJSON(path, types.Report{}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	if !strings.Contains(body, `"aws_keys": []`) {
		t.Fatalf("expected empty aws_keys array; got: %s", body)
	}
	if !strings.Contains(body, `"general_secrets": []`) {
		t.Fatalf("expected empty general_secrets array; got: %s", body)
	}
}

func TestWriteJSON_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := WriteJSON(filepath.Join(dir, "report.json"), sampleReport()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "report.json" {
		t.Fatalf("expected only the report in %s, got %v", dir, entries)
	}
}

func TestShouldFail(t *testing.T) {
	withFailure := sampleReport()
	onlyGeneral := types.Report{GeneralSecrets: []types.GeneralSecret{{SecretType: "Github Token"}}}
	empty := types.Report{}

	cases := []struct {
		name   string
		report types.Report
		failOn string
		want   bool
	}{
		{"none never fails", withFailure, "none", false},
		{"failed with failure", withFailure, "failed", true},
		{"failed without failure", onlyGeneral, "failed", false},
		{"any with general", onlyGeneral, "any", true},
		{"any empty", empty, "any", false},
		{"unknown policy", withFailure, "bogus", false},
	}
	for _, tc := range cases {
		if got := ShouldFail(tc.report, tc.failOn); got != tc.want {
			t.Fatalf("%s: ShouldFail=%v want %v", tc.name, got, tc.want)
		}
	}
}
