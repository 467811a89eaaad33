package core_test

import (
	"context"
	"fmt"
	"os"

	"github.com/keyreaper/keyreaper/pkg/core"
)

// ExampleRemediate demonstrates remediating a classifier output document.
func ExampleRemediate() {
	// 1. Load the classifier output
	fs, err := core.LoadFindings("filtered.json", core.ModeAIFiltered)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load failed: %v\n", err)
		return
	}

	// 2. Run the pipeline. With no providers registered, every actionable
	// finding lands in the general catalog for manual review.
	res := core.Remediate(context.Background(), core.Config{}, fs)

	// 3. Process the report
	if len(res.Report.AWSKeys) == 0 && len(res.Report.GeneralSecrets) == 0 {
		fmt.Println("No leaked credentials to remediate.")
	} else {
		fmt.Printf("Handled %d keys, cataloged %d secrets.\n",
			len(res.Report.AWSKeys), len(res.Report.GeneralSecrets))
		// Helper to write JSON output to stdout
		_ = core.MarshalReport(os.Stdout, res.Report)
	}
}

// ExampleRemediate_counts shows how to inspect run statistics.
func ExampleRemediate_counts() {
	doc := []byte(`{
	  "findings": [
	    {
	      "secret_raw": "ghp_1234567890abcdefghij",
	      "secret_type": "Github Token",
	      "file_path": "deploy.yml",
	      "line": 9,
	      "deberta_prediction": {"label": "Y", "confidence": 0.93}
	    }
	  ]
	}`)

	fs, err := core.DecodeFindings(doc, core.ModeAIFiltered)
	if err != nil {
		panic(err)
	}

	res := core.Remediate(context.Background(), core.Config{Workers: 4}, fs)

	fmt.Printf("Input: %d, actionable: %d\n", res.Counts.Input, res.Counts.Actionable)
	fmt.Printf("General secrets: %d\n", res.Counts.General)
	// Output:
	// Input: 1, actionable: 1
	// General secrets: 1
}
