package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/stats"
)

// sumStatsCommand creates the sum-stats command: merge per-package test
// statistics into one summary.
func (c *CLI) sumStatsCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "sum-stats [stats-dir]",
		Short: "Merge per-package test statistics into a single summary",
		Long: `Merge the per-package statistics files written by the test step into a
single summary: one row per package sorted by identity, plus a trailing
TOTAL row with element-wise counter sums.

The stats directory defaults to the configured one. A malformed row anywhere
fails the whole merge; rows are never skipped or zero-filled.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return c.runSumStats(dir, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output CSV file (default stdout)")

	return cmd
}

func (c *CLI) runSumStats(dir, output string) error {
	if dir == "" {
		cfg, err := c.config()
		if err != nil {
			return err
		}
		dir = cfg.StatsDir
	}
	if dir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no stats directory given or configured")
	}

	rows, err := stats.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		printInfo("no statistics rows in %s", dir)
		return nil
	}

	summary := stats.Combine(rows)

	if output == "" {
		return stats.WriteCSV(os.Stdout, summary)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer f.Close()

	if err := stats.WriteCSV(f, summary); err != nil {
		return err
	}
	printSuccess("summarized %d packages", len(summary.Rows))
	printFile(output)
	return nil
}
