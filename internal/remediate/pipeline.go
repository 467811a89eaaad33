// Package remediate runs the gate-route-deactivate pipeline over
// normalized findings and aggregates the remediation report.
package remediate

import (
	"context"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"

	"github.com/keyreaper/keyreaper/internal/providers"
	"github.com/keyreaper/keyreaper/internal/redact"
	"github.com/keyreaper/keyreaper/internal/types"
)

// dedupeCap bounds the seen-key set. A CI scan rarely surfaces more than a
// few hundred distinct keys; the cap only guards pathological inputs.
const dedupeCap = 8192

// Config controls pipeline behavior.
type Config struct {
	// Workers sizes the provider-call pool. 0 or 1 runs sequentially.
	Workers int

	// NoDedup disables collapsing repeat occurrences of the same key id.
	NoDedup bool

	// Suppress, when set, drops a finding before gating (acknowledged
	// leaks). Suppressed findings are counted but never routed.
	Suppress func(types.Finding) bool
}

// Counts summarizes one pipeline run.
type Counts struct {
	Input       int `json:"input"`
	Suppressed  int `json:"suppressed"`
	Discarded   int `json:"discarded"`
	GateErrors  int `json:"gate_errors"`
	Actionable  int `json:"actionable"`
	Fragments   int `json:"fragments"`
	Duplicates  int `json:"duplicates"`
	General     int `json:"general_secrets"`
	Deactivated int `json:"deactivated"`
	NotFound    int `json:"not_found"`
	Failed      int `json:"failed"`
}

// Result is the aggregate of one run.
type Result struct {
	RunID  string
	Report types.Report
	Counts Counts

	// Partial marks a run cancelled before every finding was dispatched.
	// Outcomes produced before cancellation are still in the report.
	Partial bool
}

// Pipeline routes actionable findings to providers and aggregates their
// outcomes together with the general-secret catalog.
type Pipeline struct {
	registry *providers.Registry
	cfg      Config
}

// New builds a pipeline over the given provider registry.
func New(registry *providers.Registry, cfg Config) *Pipeline {
	return &Pipeline{registry: registry, cfg: cfg}
}

type job struct {
	provider providers.Provider
	finding  types.Finding
}

// Run processes findings in input order. Non-actionable findings are
// discarded, provider-claimed key fragments are skipped outright, claimed
// keys go to their provider and everything else lands in the general
// catalog. Both report sections preserve input order regardless of worker
// completion order.
func (p *Pipeline) Run(ctx context.Context, findings []types.Finding) Result {
	res := Result{RunID: uuid.NewString(), Report: types.Report{
		AWSKeys:        []types.KeyOutcome{},
		GeneralSecrets: []types.GeneralSecret{},
	}}

	logger := log.WithField("run_id", res.RunID)
	logger.WithField("findings", len(findings)).Info("remediation run started")

	seen, _ := lru.New[string, bool](dedupeCap)

	var jobs []job
	for _, f := range findings {
		res.Counts.Input++

		if p.cfg.Suppress != nil && p.cfg.Suppress(f) {
			res.Counts.Suppressed++
			continue
		}
		if !f.Verdict.Actionable() {
			if f.Verdict.Label == types.LabelError {
				res.Counts.GateErrors++
			} else {
				res.Counts.Discarded++
			}
			continue
		}
		res.Counts.Actionable++

		provider := p.registry.Match(f)
		if provider == nil {
			res.Counts.General++
			res.Report.GeneralSecrets = append(res.Report.GeneralSecrets, types.GeneralSecret{
				SecretType: f.Category,
				Path:       f.Path,
				Line:       f.Line,
				Confidence: f.Confidence,
				Preview:    redact.Preview(f.Secret),
			})
			continue
		}
		if !provider.Remediable(f) {
			// Claimed but not actionable by key id: a fragment of a leak
			// handled through its key id, kept out of the report entirely.
			res.Counts.Fragments++
			continue
		}
		if !p.cfg.NoDedup {
			key := provider.Name() + "|" + f.Secret
			if _, dup := seen.Get(key); dup {
				res.Counts.Duplicates++
				continue
			}
			seen.Add(key, true)
		}
		jobs = append(jobs, job{provider: provider, finding: f})
	}

	outcomes := make([]*types.KeyOutcome, len(jobs))
	res.Partial = p.dispatch(ctx, jobs, outcomes)

	for _, out := range outcomes {
		if out == nil {
			continue
		}
		res.Report.AWSKeys = append(res.Report.AWSKeys, *out)
		switch out.Status {
		case types.StatusDeactivated:
			res.Counts.Deactivated++
		case types.StatusNotFound:
			res.Counts.NotFound++
		default:
			res.Counts.Failed++
		}
	}

	logger.WithFields(log.Fields{
		"deactivated": res.Counts.Deactivated,
		"not_found":   res.Counts.NotFound,
		"failed":      res.Counts.Failed,
		"general":     res.Counts.General,
		"partial":     res.Partial,
	}).Info("remediation run finished")

	return res
}

// dispatch runs provider calls and fills outcomes by job index. It returns
// true when cancellation stopped it before every job was issued.
func (p *Pipeline) dispatch(ctx context.Context, jobs []job, outcomes []*types.KeyOutcome) bool {
	if len(jobs) == 0 {
		return false
	}

	if p.cfg.Workers <= 1 {
		for i, j := range jobs {
			if ctx.Err() != nil {
				return true
			}
			out := j.provider.Remediate(ctx, j.finding)
			outcomes[i] = &out
		}
		return false
	}

	workers := p.cfg.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	partial := false
dispatch:
	for i, j := range jobs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			partial = true
			break dispatch
		}
		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			defer func() { <-sem }()
			out := j.provider.Remediate(ctx, j.finding)
			outcomes[i] = &out
		}(i, j)
	}
	wg.Wait()
	return partial
}
