package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repoforge/repoforge/pkg/depgraph"
	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/graph"
	"github.com/repoforge/repoforge/pkg/pkgspec"
)

// showDepsCommand creates the show-deps command: textual dependency closures.
func (c *CLI) showDepsCommand() *cobra.Command {
	var reverse bool

	cmd := &cobra.Command{
		Use:   "show-deps [package]",
		Short: "Show the transitive dependency closure of a package",
		Long: `Show the transitive dependency closure of a package, or the full
dependency graph when no package is given.

By default the forward closure is shown: everything the package transitively
depends on. With --reverse the dependents closure is shown instead:
everything that transitively depends on the package.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed string
			if len(args) == 1 {
				seed = args[0]
			}
			return c.runShowDeps(cmd.Context(), seed, reverse)
		},
	}

	cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "show dependents instead of dependencies")

	return cmd
}

func (c *CLI) runShowDeps(ctx context.Context, seed string, reverse bool) error {
	doc, err := c.buildDepsDocument(ctx, seed, reverse)
	if err != nil {
		return err
	}

	for _, n := range doc.Nodes {
		if n.Highlighted {
			fmt.Println(StyleHighlight.Render(n.ID) + " " + StyleDim.Render("(selected)"))
		} else {
			fmt.Println(n.ID)
		}
	}
	if len(doc.Edges) > 0 {
		fmt.Println()
		for _, e := range doc.Edges {
			printDetail("%s %s %s", e.From, iconArrow, e.To)
		}
	}
	return nil
}

// buildDepsDocument loads the index, selects the working set, and renders
// the requested sub-graph. Shared by show-deps and write-deps.
func (c *CLI) buildDepsDocument(ctx context.Context, seed string, reverse bool) (*graph.Document, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	idx, err := loadIndex(ctx, store)
	if err != nil {
		return nil, err
	}

	// Lenient selection: the graph is informational and every indexed name
	// must appear, even names with no currently compatible version.
	names := idx.Names()
	latest := make([]*pkgspec.Record, 0, len(names))
	for _, name := range names {
		latest = append(latest, idx.Latest(name))
	}

	g := depgraph.Build(latest)

	var seeds []string
	if seed != "" {
		if !g.Contains(seed) {
			return nil, errors.New(errors.ErrCodePackageNotFound, "unknown package %q", seed)
		}
		seeds = []string{seed}
	}

	dir := depgraph.Forward
	if reverse {
		dir = depgraph.Reverse
	}
	return g.Render(seeds, dir), nil
}
