// Package cli implements the repoforge command-line interface.
//
// This package provides the verbs that drive the repository: validating and
// admitting new package versions, sweeping the whole index through the
// release pipeline, analyzing and rendering the dependency graph, merging
// test statistics, and serving the published snapshot. The CLI is built
// using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - test-all: run the release pipeline over every selected package
//   - add / update: admit a new package version into the index
//   - show-deps / write-deps: dependency closures and rendered graphs
//   - sum-stats: merge per-package test statistics
//   - list: show the index working set
//   - serve: expose the published snapshot over HTTP
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/repoforge/repoforge/pkg/buildinfo"
	"github.com/repoforge/repoforge/pkg/cache"
	"github.com/repoforge/repoforge/pkg/config"
	"github.com/repoforge/repoforge/pkg/index"
	"github.com/repoforge/repoforge/pkg/pipeline"
	"github.com/repoforge/repoforge/pkg/pkgspec"
)

// appName is the application name used for directories and display.
const appName = "repoforge"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	flags rootFlags
}

// rootFlags are the persistent flags every command can use to override the
// config file.
type rootFlags struct {
	configPath string
	indexRoot  string
	manager    string
	compiler   string
	statsDir   string
	defines    []string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "repoforge maintains a package repository index and drives its releases",
		Long:         `repoforge maintains a central index of versioned packages and drives repeatable release operations (checkout, install, test, publish) against each indexed version.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Make the logger reachable through the command context so long-running
	// operations log through the same configured instance.
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.flags.configPath, "config", "", "config file (default: ./repoforge.toml)")
	flags.StringVar(&c.flags.indexRoot, "index", "", "persisted index root directory")
	flags.StringVar(&c.flags.manager, "manager", "", "external package-manager executable")
	flags.StringVar(&c.flags.compiler, "compiler", "", "target compiler identity (name-version)")
	flags.StringVar(&c.flags.statsDir, "stats-dir", "", "directory receiving per-package test statistics")
	flags.StringArrayVar(&c.flags.defines, "define", nil, "key=value override for package-manager invocations (repeatable)")

	// Register all subcommands
	root.AddCommand(c.testAllCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.updateCommand())
	root.AddCommand(c.showDepsCommand())
	root.AddCommand(c.writeDepsCommand())
	root.AddCommand(c.sumStatsCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config and Wiring
// =============================================================================

// config loads the configuration and applies flag overrides.
func (c *CLI) config() (config.Config, error) {
	cfg, err := config.Load(c.flags.configPath)
	if err != nil {
		return cfg, err
	}

	if c.flags.indexRoot != "" {
		cfg.IndexRoot = c.flags.indexRoot
	}
	if c.flags.manager != "" {
		cfg.Manager = c.flags.manager
	}
	if c.flags.statsDir != "" {
		cfg.StatsDir = c.flags.statsDir
	}
	if len(c.flags.defines) > 0 {
		cfg.Overrides = append(cfg.Overrides, c.flags.defines...)
	}
	if c.flags.compiler != "" {
		compiler, err := pkgspec.ParseCompiler(c.flags.compiler)
		if err != nil {
			return cfg, err
		}
		cfg.Compiler = compiler
	}

	return cfg, nil
}

// newStore creates the persisted index store the config selects.
func newStore(ctx context.Context, cfg config.Config) (index.Store, error) {
	if cfg.StoreBackend == "mongo" {
		return index.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}
	return index.NewFileStore(cfg.IndexRoot)
}

// loadIndex builds the in-memory index from a fresh store scan.
func loadIndex(ctx context.Context, store index.Store) (*index.Index, error) {
	records, err := store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return index.Build(records)
}

// newPipeline wires a pipeline with the exec runner.
func (c *CLI) newPipeline(cfg config.Config) *pipeline.Pipeline {
	return pipeline.New(cfg, pipeline.NewExecRunner(c.Logger), c.Logger)
}

// newCache creates the artifact cache: redis when configured, otherwise the
// per-user file cache, otherwise a null cache.
func newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if cfg.RedisAddr != "" {
		return cache.NewRedisCache(ctx, cfg.RedisAddr)
	}

	dir := cfg.CacheDir
	if dir == "" {
		d, err := config.DefaultCacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}
