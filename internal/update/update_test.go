package update

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCheck_NoNetworkOrCI(t *testing.T) {
	t.Setenv("CI", "1")
	if latest, newer, err := Check("1.0.0", false); err != nil || latest != "" || newer {
		t.Fatalf("expected no-op in CI; got latest=%q newer=%v err=%v", latest, newer, err)
	}
}

func TestNormalize(t *testing.T) {
	if normalize(" v1.2.3 ") != "1.2.3" {
		t.Fatalf("normalize failed")
	}
}

func TestIsNewer(t *testing.T) {
	if isNewer("1.2.3", "1.2.3") {
		t.Fatalf("equal versions are not newer")
	}
	if !isNewer("1.3.0", "1.2.9") {
		t.Fatalf("1.3.0 should be newer than 1.2.9")
	}
	if isNewer("1.2.0", "1.2.1") {
		t.Fatalf("1.2.0 is not newer than 1.2.1")
	}
	if !isNewer("2.0.0", "2.0.0-rc.1") {
		t.Fatalf("release should be newer than its prerelease")
	}
	if isNewer("not-a-version", "1.0.0") {
		t.Fatalf("unparseable tags must not trigger an update prompt")
	}
}

func TestCheck_UsesCacheWhenFresh(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("CI", "")
	c := cache{LastChecked: time.Now(), Latest: "1.2.3"}
	path := filepath.Join(dir, "keyreaper", cacheFileName)
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	b, _ := json.Marshal(c)
	if err := os.WriteFile(path, b, 0644); err != nil {
		t.Fatal(err)
	}
	latest, newer, err := Check("1.2.2", false)
	if err != nil {
		t.Fatal(err)
	}
	if latest != "1.2.3" || !newer {
		t.Fatalf("expected cached latest=1.2.3 and newer=true; got latest=%q newer=%v", latest, newer)
	}
}

func TestCheck_RefreshesStaleCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"tag_name": "v2.0.0"})
	}))
	defer srv.Close()

	orig := repoLatestURL
	repoLatestURL = srv.URL
	defer func() { repoLatestURL = orig }()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("CI", "")
	c := cache{LastChecked: time.Now().Add(-48 * time.Hour), Latest: "1.0.0"}
	path := filepath.Join(dir, "keyreaper", cacheFileName)
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	b, _ := json.Marshal(c)
	if err := os.WriteFile(path, b, 0644); err != nil {
		t.Fatal(err)
	}

	latest, newer, err := Check("1.0.0", false)
	if err != nil {
		t.Fatal(err)
	}
	if latest != "2.0.0" || !newer {
		t.Fatalf("expected refreshed latest=2.0.0 and newer=true; got latest=%q newer=%v", latest, newer)
	}

	// The refreshed result lands back in the cache file.
	refreshed, err := loadCache()
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.Latest != "2.0.0" {
		t.Fatalf("expected cache updated to 2.0.0, got %q", refreshed.Latest)
	}
}

func TestLatestVersionOnline_WithServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"tag_name": "v9.9.9"})
	}))
	defer srv.Close()

	orig := repoLatestURL
	repoLatestURL = srv.URL
	defer func() { repoLatestURL = orig }()

	v, err := latestVersionOnline()
	if err != nil {
		t.Fatal(err)
	}
	if v != "v9.9.9" {
		t.Fatalf("expected v9.9.9, got %q", v)
	}
}
