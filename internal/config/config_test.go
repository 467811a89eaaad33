package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "keyreaper.yml")
	content := `
mode: ai-filtered
output: outputs/report.json
workers: 4
fail_on: failed
exclude: "vendor/**,**/*_test.go"
aws:
  region: us-east-1
  profile: security
classifier:
  binary: /opt/deberta/bin/deberta-filter
  model: /opt/deberta/model.pt
  threshold: 0.85
  device: cpu
slack:
  webhook_url: https://hooks.slack.com/services/T000/B000/XXXX
`
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Mode == nil || *cfg.Mode != "ai-filtered" {
		t.Fatalf("mode: %+v", cfg.Mode)
	}
	if cfg.Workers == nil || *cfg.Workers != 4 {
		t.Fatalf("workers: %+v", cfg.Workers)
	}
	if cfg.GetAWSConfig().GetRegion() != "us-east-1" {
		t.Fatalf("region: %q", cfg.GetAWSConfig().GetRegion())
	}
	if cfg.GetAWSConfig().GetProfile() != "security" {
		t.Fatalf("profile: %q", cfg.GetAWSConfig().GetProfile())
	}
	cc := cfg.GetClassifierConfig()
	if cc.GetBinaryPath() != "/opt/deberta/bin/deberta-filter" || cc.GetModelPath() != "/opt/deberta/model.pt" {
		t.Fatalf("classifier paths: %q %q", cc.GetBinaryPath(), cc.GetModelPath())
	}
	if cc.GetThreshold() != 0.85 || cc.GetDevice() != "cpu" {
		t.Fatalf("classifier tuning: %v %q", cc.GetThreshold(), cc.GetDevice())
	}
	if cfg.GetSlackWebhook() != "https://hooks.slack.com/services/T000/B000/XXXX" {
		t.Fatalf("webhook: %q", cfg.GetSlackWebhook())
	}
}

func TestDefaults(t *testing.T) {
	var cfg FileConfig
	cc := cfg.GetClassifierConfig()
	if cc.GetThreshold() != 0.7 {
		t.Fatalf("default threshold: %v", cc.GetThreshold())
	}
	if cc.GetBinaryPath() != "" || cc.GetModelPath() != "" || cc.GetDevice() != "" {
		t.Fatal("zero classifier config should have empty paths and device")
	}
	if cfg.GetAWSConfig().GetRegion() != "" {
		t.Fatal("zero aws config should have empty region")
	}
}

func TestLoadLocal(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadLocal(dir); err == nil {
		t.Fatal("expected error when no local config exists")
	}
	p := filepath.Join(dir, ".keyreaper.yml")
	if err := os.WriteFile(p, []byte("workers: 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	if cfg.Workers == nil || *cfg.Workers != 2 {
		t.Fatalf("workers: %+v", cfg.Workers)
	}
}

func TestLoadGlobal(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if _, err := LoadGlobal(); err == nil {
		t.Fatal("expected error when no global config exists")
	}
	if err := os.MkdirAll(filepath.Join(dir, "keyreaper"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	p := filepath.Join(dir, "keyreaper", "config.yml")
	if err := os.WriteFile(p, []byte("no_color: true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.NoColor == nil || !*cfg.NoColor {
		t.Fatalf("no_color: %+v", cfg.NoColor)
	}
}

func TestSlackWebhookEnvFallback(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/env")
	var cfg FileConfig
	if got := cfg.GetSlackWebhook(); got != "https://hooks.slack.com/services/env" {
		t.Fatalf("env fallback: %q", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	if err := os.WriteFile(p, []byte("KEYREAPER_TEST_DOTENV=loaded\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("KEYREAPER_TEST_DOTENV", "")
	os.Unsetenv("KEYREAPER_TEST_DOTENV")
	LoadDotEnv(dir)
	if got := os.Getenv("KEYREAPER_TEST_DOTENV"); got != "loaded" {
		t.Fatalf("dotenv not loaded: %q", got)
	}
}
