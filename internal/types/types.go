package types

// Label is the classifier's verdict on a finding.
type Label string

const (
	LabelTrue  Label = "Y"
	LabelFalse Label = "N"
	LabelError Label = "ERROR"
)

// Verdict carries the classifier's decision and its confidence in [0,1].
// Raw-mode findings that never pass through a classifier get LabelTrue
// with confidence 1.0.
type Verdict struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Actionable reports whether the verdict lets a finding proceed to
// remediation or the catalog. Only a confirmed true positive does.
func (v Verdict) Actionable() bool {
	return v.Label == LabelTrue
}

// Finding is the canonical record produced by the normalizer. Both input
// schemas reduce to this shape before anything downstream sees them.
type Finding struct {
	Secret     string  `json:"secret"`
	Category   string  `json:"category"`
	Path       string  `json:"file_path"`
	Line       int     `json:"line"`
	Confidence float64 `json:"confidence"`
	Verdict    Verdict `json:"verdict"`
}

// Status is the terminal outcome of one access-key remediation.
type Status string

const (
	StatusDeactivated Status = "deactivated"
	StatusNotFound    Status = "not_found"
	StatusFailed      Status = "failed"
)

// KeyOutcome is the result of driving one AWS access key through
// resolution and revocation. UserName is nil when the owner could not
// be determined; Status is StatusFailed in that case.
type KeyOutcome struct {
	AccessKeyID string  `json:"access_key_id"`
	Path        string  `json:"file_path"`
	Line        int     `json:"line"`
	Confidence  float64 `json:"confidence"`
	UserName    *string `json:"user_name"`
	Status      Status  `json:"status"`
	Message     string  `json:"message"`
}

// GeneralSecret is a catalog-only entry for a confirmed leak that has no
// automated remediation route. Preview never contains the full secret.
type GeneralSecret struct {
	SecretType string  `json:"secret_type"`
	Path       string  `json:"file_path"`
	Line       int     `json:"line"`
	Confidence float64 `json:"confidence"`
	Preview    string  `json:"secret_preview"`
}

// Report is the run's aggregate output. Both slices preserve the order
// findings were read in; they are never nil once finalized so the JSON
// output always carries both arrays.
type Report struct {
	AWSKeys        []KeyOutcome    `json:"aws_keys"`
	GeneralSecrets []GeneralSecret `json:"general_secrets"`
}
