package core

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

const filteredDoc = `{
  "findings": [
    {
      "secret_raw": "ghp_1234567890abcdefghij",
      "secret_type": "Github Token",
      "file_path": "deploy.yml",
      "line": 9,
      "deberta_prediction": {"label": "Y", "confidence": 0.93}
    },
    {
      "secret_raw": "not-a-secret",
      "secret_type": "Generic",
      "file_path": "README.md",
      "line": 1,
      "deberta_prediction": {"label": "N", "confidence": 0.99}
    }
  ]
}`

func TestRemediate_Smoke(t *testing.T) {
	fs, err := DecodeFindings([]byte(filteredDoc), ModeAIFiltered)
	if err != nil {
		t.Fatalf("DecodeFindings error: %v", err)
	}
	if len(fs) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(fs))
	}

	res := Remediate(context.Background(), Config{}, fs)
	if res.Counts.Input != 2 || res.Counts.Discarded != 1 {
		t.Fatalf("unexpected counts: %+v", res.Counts)
	}
	if len(res.Report.GeneralSecrets) != 1 {
		t.Fatalf("expected 1 general secret, got %d", len(res.Report.GeneralSecrets))
	}
	if res.Report.GeneralSecrets[0].SecretType != "Github Token" {
		t.Fatalf("unexpected catalog entry: %+v", res.Report.GeneralSecrets[0])
	}
}

func TestMarshalUnmarshalReport(t *testing.T) {
	fs, err := DecodeFindings([]byte(filteredDoc), ModeAIFiltered)
	if err != nil {
		t.Fatal(err)
	}
	res := Remediate(context.Background(), Config{}, fs)

	var buf bytes.Buffer
	if err := MarshalReport(&buf, res.Report); err != nil {
		t.Fatalf("MarshalReport error: %v", err)
	}
	if !strings.Contains(buf.String(), `"aws_keys": []`) {
		t.Fatal("empty key section should render as an empty array")
	}

	back, err := UnmarshalReport(&buf)
	if err != nil {
		t.Fatalf("UnmarshalReport error: %v", err)
	}
	if len(back.GeneralSecrets) != 1 {
		t.Fatalf("round trip lost the catalog: %+v", back)
	}
}
