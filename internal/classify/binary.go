package classify

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// BinaryName is the DeBERTa CLI wrapper executable the adapter drives.
const BinaryName = "deberta-filter"

// BinaryManager handles detection of the classifier binary. There is no
// auto-download path: the fine-tuned wrapper is distributed privately and
// has no public release URL.
type BinaryManager struct {
	customPath string
	cachePath  string
}

// NewBinaryManager creates a new binary manager.
// customPath: optional explicit path to the classifier binary
// cached binaries live in ~/.keyreaper/bin
func NewBinaryManager(customPath string) *BinaryManager {
	homeDir, _ := os.UserHomeDir()
	cachePath := filepath.Join(homeDir, ".keyreaper", "bin")

	return &BinaryManager{
		customPath: customPath,
		cachePath:  cachePath,
	}
}

// Find locates the classifier binary using the following search order:
// 1. Custom path (if provided)
// 2. $PATH lookup
// 3. Installed binary in ~/.keyreaper/bin/deberta-filter
// Returns the path to the binary or an error if not found.
func (bm *BinaryManager) Find() (string, error) {
	if bm.customPath != "" {
		if _, err := os.Stat(bm.customPath); err == nil {
			return bm.customPath, nil
		}
		return "", fmt.Errorf("custom classifier path not found: %s", bm.customPath)
	}

	if path, err := exec.LookPath(BinaryName); err == nil {
		return path, nil
	}

	installedPath := filepath.Join(bm.cachePath, BinaryName)
	if runtime.GOOS == "windows" {
		installedPath += ".exe"
	}
	if _, err := os.Stat(installedPath); err == nil {
		return installedPath, nil
	}

	return "", fmt.Errorf("classifier binary not found in PATH or %s", installedPath)
}

// Version runs the classifier with --version and parses the output.
func (bm *BinaryManager) Version(binaryPath string) (string, error) {
	cmd := exec.Command(binaryPath, "--version")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get classifier version: %w", err)
	}

	version := strings.TrimSpace(string(output))
	version = strings.TrimPrefix(version, "v")
	version = strings.TrimPrefix(version, "version ")
	if lines := strings.Split(version, "\n"); len(lines) > 0 {
		version = strings.TrimSpace(lines[0])
	}

	return version, nil
}
