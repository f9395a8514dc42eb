package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repoforge/repoforge/pkg/index"
)

// listCommand creates the list command: the index working set.
func (c *CLI) listCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every package with its selected version",
		Long: `List every package in the index with the version a repository-wide
operation would select for it.

Every name appears, including packages with no version compatible with the
configured compiler; those are marked, since test-all would skip them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runList(cmd.Context())
		},
	}

	return cmd
}

func (c *CLI) runList(ctx context.Context) error {
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

	names := idx.Names()
	for _, name := range names {
		versions := idx.Versions(name)
		rec := index.Select(versions, cfg.Compiler, false)

		line := fmt.Sprintf("%s %s", StyleValue.Render(rec.ID()), StyleDim.Render(rec.Synopsis))
		if index.Select(versions, cfg.Compiler, true) == nil {
			line += " " + StyleWarning.Render(fmt.Sprintf("(no version compatible with %s)", cfg.Compiler))
		}
		fmt.Println(line)
	}

	printDetail("%d packages, %d versions", len(names), idx.Len())
	return nil
}
