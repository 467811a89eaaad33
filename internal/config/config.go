package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for Keyreaper.
type FileConfig struct {
	Include *string `yaml:"include"`
	Exclude *string `yaml:"exclude"`
	Mode    *string `yaml:"mode"`
	Output  *string `yaml:"output"`
	Workers *int    `yaml:"workers"`
	NoDedup *bool   `yaml:"no_dedup"`
	DryRun  *bool   `yaml:"dry_run"`
	NoColor *bool   `yaml:"no_color"`
	FailOn  *string `yaml:"fail_on"`

	// Cloud provider config
	AWS *AWSConfig `yaml:"aws"`

	// Classifier integration config
	Classifier *ClassifierConfig `yaml:"classifier"`

	// Slack notification config
	Slack *SlackConfig `yaml:"slack"`
}

// AWSConfig holds configuration for the AWS credential provider.
type AWSConfig struct {
	// Region overrides the SDK's resolved region.
	Region *string `yaml:"region"`

	// Profile selects a shared-credentials profile.
	Profile *string `yaml:"profile"`
}

// ClassifierConfig holds configuration for the external DeBERTa classifier.
type ClassifierConfig struct {
	// BinaryPath is an explicit path to the classifier binary.
	// If empty, the binary will be searched in $PATH and ~/.keyreaper/bin.
	BinaryPath *string `yaml:"binary"`

	// ModelPath is the fine-tuned checkpoint passed to the classifier.
	ModelPath *string `yaml:"model"`

	// Threshold is the probability cutoff for a Y verdict. Defaults to 0.7.
	Threshold *float64 `yaml:"threshold"`

	// Device pins the primary execution device (cuda or cpu).
	// If empty, cuda is tried first with a cpu fallback.
	Device *string `yaml:"device"`
}

// SlackConfig holds configuration for Slack notifications.
type SlackConfig struct {
	// WebhookURL overrides the SLACK_WEBHOOK_URL environment variable.
	WebhookURL *string `yaml:"webhook_url"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
// It supports .keyreaper.yml/.yaml and keyreaper.yml/.yaml.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".keyreaper.yml", ".keyreaper.yaml", "keyreaper.yml", "keyreaper.yaml"} {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "keyreaper", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// LoadDotEnv loads environment variables from a repo-local .env file if one
// exists. Missing files are not an error; CI sets everything directly.
func LoadDotEnv(repoRoot string) {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(filepath.Join(repoRoot, name)); err == nil {
			return
		}
	}
}

// GetClassifierConfig returns the classifier configuration with defaults
// applied for nil fields.
func (fc FileConfig) GetClassifierConfig() ClassifierConfig {
	var cfg ClassifierConfig
	if fc.Classifier != nil {
		cfg = *fc.Classifier
	}
	if cfg.Threshold == nil {
		threshold := 0.7
		cfg.Threshold = &threshold
	}
	return cfg
}

// GetAWSConfig returns the AWS configuration, zero-valued when absent.
func (fc FileConfig) GetAWSConfig() AWSConfig {
	if fc.AWS == nil {
		return AWSConfig{}
	}
	return *fc.AWS
}

// GetSlackWebhook returns the configured webhook URL, falling back to the
// SLACK_WEBHOOK_URL environment variable.
func (fc FileConfig) GetSlackWebhook() string {
	if fc.Slack != nil && fc.Slack.WebhookURL != nil && *fc.Slack.WebhookURL != "" {
		return *fc.Slack.WebhookURL
	}
	return os.Getenv("SLACK_WEBHOOK_URL")
}

// GetBinaryPath returns the custom classifier binary path or empty string.
func (cc ClassifierConfig) GetBinaryPath() string {
	if cc.BinaryPath == nil {
		return ""
	}
	return *cc.BinaryPath
}

// GetModelPath returns the checkpoint path or empty string.
func (cc ClassifierConfig) GetModelPath() string {
	if cc.ModelPath == nil {
		return ""
	}
	return *cc.ModelPath
}

// GetThreshold returns the probability cutoff (default: 0.7).
func (cc ClassifierConfig) GetThreshold() float64 {
	if cc.Threshold == nil {
		return 0.7
	}
	return *cc.Threshold
}

// GetDevice returns the pinned device or empty string for the default
// cuda-then-cpu order.
func (cc ClassifierConfig) GetDevice() string {
	if cc.Device == nil {
		return ""
	}
	return *cc.Device
}

// GetRegion returns the region override or empty string.
func (ac AWSConfig) GetRegion() string {
	if ac.Region == nil {
		return ""
	}
	return *ac.Region
}

// GetProfile returns the shared-credentials profile or empty string.
func (ac AWSConfig) GetProfile() string {
	if ac.Profile == nil {
		return ""
	}
	return *ac.Profile
}
