package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/repoforge/repoforge/pkg/index"
	"github.com/repoforge/repoforge/pkg/pipeline"
)

// testAllCommand creates the test-all command: one release pipeline run per
// selected package.
func (c *CLI) testAllCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test-all",
		Short: "Run the release pipeline over every package in the index",
		Long: `Run the release pipeline (checkout, install, test, uninstall) over every
package in the index.

One representative version is selected per package name: the highest version
compatible with the configured compiler. Packages with no compatible version
are excluded from the sweep.

A failing package is reported and the sweep continues; the command exits
non-zero if any package failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTestAll(cmd.Context())
		},
	}

	return cmd
}

func (c *CLI) runTestAll(ctx context.Context) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	idx, err := loadIndex(ctx, store)
	if err != nil {
		return err
	}

	working := index.WorkingSet(idx, cfg.Compiler, true)
	if skipped := len(idx.Names()) - len(working); skipped > 0 {
		printWarning("%d packages have no version compatible with %s and are excluded", skipped, cfg.Compiler)
	}
	if len(working) == 0 {
		printInfo("nothing to test")
		return nil
	}

	prog := newProgress(loggerFromContext(ctx))
	pipe := c.newPipeline(cfg)

	var failed []pipeline.Outcome
	for _, rec := range working {
		if err := ctx.Err(); err != nil {
			return err
		}

		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Testing %s...", rec.ID()))
		spinner.Start()

		outcome := pipe.Run(ctx, rec)
		if outcome.ExitCode == 0 {
			spinner.StopWithSuccess(rec.ID())
		} else {
			spinner.StopWithError(fmt.Sprintf("%s (%s exited %d)", rec.ID(), outcome.FailedStep, outcome.ExitCode))
			failed = append(failed, outcome)
		}
	}

	prog.done(fmt.Sprintf("Tested %d packages", len(working)))

	if len(failed) > 0 {
		ids := make([]string, len(failed))
		for i, o := range failed {
			ids[i] = o.PackageID
		}
		return fmt.Errorf("%d of %d packages failed: %s", len(failed), len(working), strings.Join(ids, ", "))
	}

	printSuccess("all %d packages passed", len(working))
	return nil
}
