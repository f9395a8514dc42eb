// Package config builds the single immutable configuration value every
// component receives explicitly. There is no ambient mutable state: the
// config is assembled once at process start from an optional repoforge.toml
// plus command-line flags, and passed down from there.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/pkgspec"
)

// Filename is the config file looked up in the working directory when
// --config is not given.
const Filename = "repoforge.toml"

// Config carries every knob the engine needs. Values are fixed after Load.
type Config struct {
	// IndexRoot is the persisted repository index directory (file store).
	IndexRoot string `toml:"index_root"`

	// StoreBackend selects the persisted index implementation: "file"
	// (default) or "mongo".
	StoreBackend string `toml:"store_backend,omitempty"`

	// MongoURI and MongoDatabase configure the mongo store backend.
	MongoURI      string `toml:"mongo_uri,omitempty"`
	MongoDatabase string `toml:"mongo_database,omitempty"`

	// Manager is the external package-manager executable driving checkout,
	// install, test, and uninstall.
	Manager string `toml:"manager"`

	// Compiler is the compiler identity repository operations target.
	Compiler pkgspec.Compiler `toml:"compiler"`

	// Overrides are key=value configuration definitions passed unchanged to
	// every nested package-manager invocation, so runs are deterministic.
	Overrides []string `toml:"overrides,omitempty"`

	// StatsDir, when set, receives per-package statistics files written by
	// the test step.
	StatsDir string `toml:"stats_dir,omitempty"`

	// InstallCacheDir is the package manager's global install cache; the
	// admission rollback removes the entry for a failed identity from here.
	InstallCacheDir string `toml:"install_cache_dir,omitempty"`

	// WorkRoot is where per-run scratch directories are created.
	// Defaults to the system temp directory.
	WorkRoot string `toml:"work_root,omitempty"`

	// SnapshotPath is the JSON index snapshot the serve command reads and
	// the publisher regenerates.
	SnapshotPath string `toml:"snapshot_path,omitempty"`

	// CacheDir backs the artifact cache; RedisAddr switches it to redis.
	CacheDir  string `toml:"cache_dir,omitempty"`
	RedisAddr string `toml:"redis_addr,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		IndexRoot:    "index",
		StoreBackend: "file",
		Manager:      "fcpkg",
		Compiler: pkgspec.Compiler{
			Name:    "fc",
			Version: pkgspec.NewVersion(9, 4, 0),
		},
	}
}

// Load reads path (or Filename in the current directory when path is empty)
// and overlays it on Default. A missing default file is not an error; a
// missing explicit path is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = Filename
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parsing config %s", path)
	}
	return cfg, nil
}

// DefaultCacheDir returns the per-user artifact cache directory
// (~/.cache/repoforge).
func DefaultCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "repoforge"), nil
}

// InstallCacheEntry returns the install-cache directory for one identity,
// or empty when no install cache is configured.
func (c Config) InstallCacheEntry(id string) string {
	if c.InstallCacheDir == "" {
		return ""
	}
	return filepath.Join(c.InstallCacheDir, id)
}
