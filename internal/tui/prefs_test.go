package tui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPrefs(t *testing.T) {
	prefs := DefaultPrefs()
	if !prefs.HideKeyIDs {
		t.Error("key IDs should be hidden by default")
	}
}

func TestLoadPrefs_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	prefs := LoadPrefs()
	if !prefs.HideKeyIDs {
		t.Error("missing prefs file should fall back to defaults")
	}
}

func TestLoadPrefs_CorruptFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".keyreaper")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tui_prefs.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	prefs := LoadPrefs()
	if !prefs.HideKeyIDs {
		t.Error("corrupt prefs file should fall back to defaults")
	}
}

func TestSaveAndLoadPrefs(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := SavePrefs(Prefs{HideKeyIDs: false}); err != nil {
		t.Fatalf("SavePrefs: %v", err)
	}

	prefs := LoadPrefs()
	if prefs.HideKeyIDs {
		t.Error("saved preference should survive a reload")
	}
}

func TestSavePrefs_CreatesConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := SavePrefs(DefaultPrefs()); err != nil {
		t.Fatalf("SavePrefs: %v", err)
	}

	if _, err := os.Stat(filepath.Join(home, ".keyreaper", "tui_prefs.json")); err != nil {
		t.Errorf("prefs file should exist after save: %v", err)
	}
}
