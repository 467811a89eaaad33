// Package core provides a small, stable facade over Keyreaper's internal
// pipeline for external integrations. It deliberately re-exports a narrow
// API surface to allow CI platforms and third-party tools to depend on a
// stable import path without exposing internal implementation packages.
//
// Example:
//
//	fs, err := core.LoadFindings("filtered.json", core.ModeAIFiltered)
//	if err != nil { /* handle */ }
//	res := core.Remediate(ctx, core.Config{}, fs)
//	_ = core.MarshalReport(os.Stdout, res.Report)
package core
