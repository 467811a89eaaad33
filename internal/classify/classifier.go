package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/keyreaper/keyreaper/internal/config"
	"github.com/keyreaper/keyreaper/internal/findings"
	"github.com/keyreaper/keyreaper/internal/types"
)

// Summary mirrors the wrapper's run counters.
type Summary struct {
	Total          int  `json:"total"`
	PredictedTrue  int  `json:"predicted_true"`
	PredictedFalse int  `json:"predicted_false"`
	Errors         int  `json:"errors"`
	FallbackUsed   bool `json:"fallback_used"`
}

// Result is one classification run over a findings batch.
type Result struct {
	Findings []types.Finding
	Summary  Summary
	Backend  Backend
}

// Classifier invokes the DeBERTa CLI wrapper over findings batches.
type Classifier struct {
	binaryPath string
	modelPath  string
	threshold  float64
	strategy   Strategy
	version    string
}

// New creates a classifier from configuration.
func New(cfg config.ClassifierConfig) (*Classifier, error) {
	bm := NewBinaryManager(cfg.GetBinaryPath())

	binaryPath, err := bm.Find()
	if err != nil {
		return nil, fmt.Errorf("classifier binary not found: %w\n\n"+
			"To fix this:\n"+
			"  1. Install the DeBERTa CLI wrapper into $PATH or ~/.keyreaper/bin\n"+
			"  2. Or specify an explicit path in config:\n"+
			"     classifier:\n"+
			"       binary: /path/to/%s", err, BinaryName)
	}

	version, err := bm.Version(binaryPath)
	if err != nil {
		version = "unknown"
	}

	strategy := DefaultStrategy()
	if d := cfg.GetDevice(); d != "" {
		strategy = PinnedStrategy(Backend(d))
	}

	return &Classifier{
		binaryPath: binaryPath,
		modelPath:  cfg.GetModelPath(),
		threshold:  cfg.GetThreshold(),
		strategy:   strategy,
		version:    version,
	}, nil
}

// Version reports the wrapper version string.
func (c *Classifier) Version() string {
	return c.version
}

// Classify annotates findings with verdicts in a single wrapper invocation.
// When the primary device reports memory exhaustion the batch is retried
// once on the fallback device.
func (c *Classifier) Classify(ctx context.Context, in []types.Finding) (*Result, error) {
	if len(in) == 0 {
		return &Result{}, nil
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		backend, ok := c.strategy.Next(attempt, lastErr)
		if !ok {
			if attempt > 1 {
				return nil, fmt.Errorf("%w: %v", ErrBackendsExhausted, lastErr)
			}
			return nil, lastErr
		}

		res, err := c.runOnce(ctx, backend, in)
		if err == nil {
			res.Summary.FallbackUsed = attempt > 0
			return res, nil
		}
		lastErr = err
	}
}

func (c *Classifier) runOnce(ctx context.Context, backend Backend, in []types.Finding) (*Result, error) {
	tmpDir, err := os.MkdirTemp("", "keyreaper-classify-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp workspace: %w", err)
	}
	// Restrictive permissions: the workspace holds raw secret text.
	if err := os.Chmod(tmpDir, 0700); err != nil {
		_ = os.RemoveAll(tmpDir) //nolint:errcheck
		return nil, fmt.Errorf("failed to secure temp workspace: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(tmpDir) //nolint:errcheck // Best-effort cleanup
	}()

	batch := make([]findings.Record, 0, len(in))
	for _, f := range in {
		batch = append(batch, findings.Record{
			Secret:   f.Secret,
			Category: f.Category,
			FilePath: f.Path,
			Line:     f.Line,
		})
	}
	data, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode classifier input: %w", err)
	}
	inputPath := filepath.Join(tmpDir, "findings.json")
	if err := os.WriteFile(inputPath, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write classifier input: %w", err)
	}

	reportPath := filepath.Join(tmpDir, "predictions.json")

	args := []string{
		"--input", inputPath,
		"--output", reportPath,
		"--device", string(backend),
		"--confidence-threshold", strconv.FormatFloat(c.threshold, 'f', -1, 64),
	}
	if c.modelPath != "" {
		args = append(args, "--model", c.modelPath)
	}

	cmd := exec.CommandContext(ctx, c.binaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, wrapRunError(err, backend, stderr.String())
	}

	reportData, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier report: %w", err)
	}

	out, err := findings.Decode(reportData, findings.ModeAIFiltered)
	if err != nil {
		return nil, fmt.Errorf("failed to parse classifier JSON output: %w\n\n"+
			"This usually indicates a wrapper version incompatibility.\n"+
			"Current classifier version: %s", err, c.version)
	}

	// The wrapper appends its own counters; fall back to recounting when an
	// older build omits them.
	var doc struct {
		Summary Summary `json:"summary"`
	}
	summary := SummaryOf(out)
	if err := json.Unmarshal(reportData, &doc); err == nil && doc.Summary.Total > 0 {
		summary = doc.Summary
	}

	return &Result{Findings: out, Summary: summary, Backend: backend}, nil
}

func wrapRunError(err error, backend Backend, stderr string) error {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return &RunError{Backend: backend, ExitCode: exitErr.ExitCode(), Stderr: stderr, Err: err}
	}
	return fmt.Errorf("classifier execution failed: %w\n\nError output:\n%s", err, stderr)
}

// SummaryOf recounts verdict labels. Findings without a prediction block
// count as errors.
func SummaryOf(fs []types.Finding) Summary {
	s := Summary{Total: len(fs)}
	for _, f := range fs {
		switch f.Verdict.Label {
		case types.LabelTrue:
			s.PredictedTrue++
		case types.LabelFalse:
			s.PredictedFalse++
		default:
			s.Errors++
		}
	}
	return s
}
