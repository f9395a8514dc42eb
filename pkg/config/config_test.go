package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.IndexRoot != "index" {
		t.Errorf("IndexRoot = %q", cfg.IndexRoot)
	}
	if cfg.StoreBackend != "file" {
		t.Errorf("StoreBackend = %q", cfg.StoreBackend)
	}
	if cfg.Manager != "fcpkg" {
		t.Errorf("Manager = %q", cfg.Manager)
	}
	if got := cfg.Compiler.String(); got != "fc-9.4.0" {
		t.Errorf("Compiler = %q", got)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	// With no explicit path and no repoforge.toml in the working directory,
	// Load returns the defaults without error.
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer func() { _ = os.Chdir(old) }()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Manager != "fcpkg" {
		t.Errorf("Manager = %q", cfg.Manager)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load with missing explicit path should fail")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repoforge.toml")
	content := `
index_root = "/srv/index"
manager = "altpkg"
stats_dir = "/srv/stats"
overrides = ["PREFIX=/opt/pkg"]

[compiler]
name = "fc"
version = "9.6.1"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IndexRoot != "/srv/index" || cfg.Manager != "altpkg" {
		t.Errorf("cfg = %+v", cfg)
	}
	if got := cfg.Compiler.String(); got != "fc-9.6.1" {
		t.Errorf("Compiler = %q", got)
	}
	if len(cfg.Overrides) != 1 || cfg.Overrides[0] != "PREFIX=/opt/pkg" {
		t.Errorf("Overrides = %v", cfg.Overrides)
	}
	// Untouched fields keep their defaults.
	if cfg.StoreBackend != "file" {
		t.Errorf("StoreBackend = %q", cfg.StoreBackend)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repoforge.toml")
	if err := os.WriteFile(path, []byte("manager = [unclosed"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load with malformed TOML should fail")
	}
}

func TestInstallCacheEntry(t *testing.T) {
	cfg := Default()
	if got := cfg.InstallCacheEntry("alpha-1.0.0"); got != "" {
		t.Errorf("InstallCacheEntry without cache dir = %q", got)
	}

	cfg.InstallCacheDir = "/var/cache/fcpkg"
	want := filepath.Join("/var/cache/fcpkg", "alpha-1.0.0")
	if got := cfg.InstallCacheEntry("alpha-1.0.0"); got != want {
		t.Errorf("InstallCacheEntry = %q, want %q", got, want)
	}
}
