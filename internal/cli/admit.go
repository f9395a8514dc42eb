package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/index"
	"github.com/repoforge/repoforge/pkg/pipeline"
	"github.com/repoforge/repoforge/pkg/pkgspec"
	"github.com/repoforge/repoforge/pkg/repo"
)

// addCommand creates the add command: admit a brand-new package version.
func (c *CLI) addCommand() *cobra.Command {
	var tag bool

	cmd := &cobra.Command{
		Use:   "add [spec-dir]",
		Short: "Admit a new package version into the index",
		Long: `Admit a new package version into the index.

The spec directory's package.toml is loaded, optionally tagged, appended to
the persisted index, and validated with a full release pipeline run. If the
pipeline fails, the entry is rolled back: the index never durably contains a
version whose pipeline run failed.

On success the command prints the version-control commands to run to publish
the new index entry; it never pushes the index itself.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAdmit(cmd.Context(), args[0], tag, false)
		},
	}

	cmd.Flags().BoolVar(&tag, "tag", false, "tag the working copy with the version before admitting")

	return cmd
}

// updateCommand creates the update command: admit a newer version of a
// package that is already indexed.
func (c *CLI) updateCommand() *cobra.Command {
	var tag bool

	cmd := &cobra.Command{
		Use:   "update [spec-dir]",
		Short: "Admit a newer version of an already-indexed package",
		Long: `Admit a newer version of an already-indexed package.

Identical to add, with two extra checks: the package name must already exist
in the index, and the new version must be higher than the latest indexed
one. The existing entries are never overwritten; the new version is inserted
alongside them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAdmit(cmd.Context(), args[0], tag, true)
		},
	}

	cmd.Flags().BoolVar(&tag, "tag", false, "tag the working copy with the version before admitting")

	return cmd
}

func (c *CLI) runAdmit(ctx context.Context, specDir string, tag, requireExisting bool) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}

	if requireExisting {
		if err := checkUpdate(ctx, store, specDir); err != nil {
			return err
		}
	}

	runner := pipeline.NewExecRunner(c.Logger)
	var publisher repo.Publisher
	if cfg.SnapshotPath != "" {
		publisher = repo.NewSnapshotPublisher(store, cfg.SnapshotPath, c.Logger)
	}

	admitter := repo.NewAdmitter(cfg, store, c.newPipeline(cfg), repo.NewGitTagger(runner), publisher, c.Logger)

	rec, err := admitter.Admit(ctx, specDir, repo.Options{Tag: tag})
	if err != nil {
		return err
	}

	printSuccess("admitted %s", rec.ID())
	printInfo("to publish the index entry, run:")
	for _, cmd := range repo.FollowUp(cfg, rec) {
		printCommand(cmd)
	}
	return nil
}

// checkUpdate enforces the update command's extra preconditions.
func checkUpdate(ctx context.Context, store index.Store, specDir string) error {
	rec, err := pkgspec.Load(specDir)
	if err != nil {
		return err
	}

	records, err := store.ListAll(ctx)
	if err != nil {
		return err
	}

	var latest *pkgspec.Record
	for _, existing := range records {
		if existing.Name != rec.Name {
			continue
		}
		if latest == nil || latest.Version.Less(existing.Version) {
			latest = existing
		}
	}

	if latest == nil {
		return errors.New(errors.ErrCodePackageNotFound, "%s is not in the index; use add for new packages", rec.Name)
	}
	if !latest.Version.Less(rec.Version) {
		return errors.New(errors.ErrCodeInvalidVersion, "%s does not increment the latest indexed version %s", rec.ID(), latest.Version)
	}
	return nil
}
