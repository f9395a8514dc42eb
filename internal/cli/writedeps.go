package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/repoforge/repoforge/pkg/cache"
	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/graph"
)

// Output formats for write-deps.
const (
	formatSVG  = "svg"
	formatDOT  = "dot"
	formatJSON = "json"
)

// artifactTTL is how long rendered artifacts stay cached.
const artifactTTL = 24 * time.Hour

// writeDepsCommand creates the write-deps command: rendered dependency graphs.
func (c *CLI) writeDepsCommand() *cobra.Command {
	var (
		reverse bool
		format  string
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "write-deps [package]",
		Short: "Render the dependency graph to a file",
		Long: `Render the dependency graph to a file.

With a package argument, only the package's transitive closure is rendered,
with the package itself highlighted. Without one, the full graph is
rendered. Layout is delegated to Graphviz.

Formats: svg (default), dot (Graphviz source), json (the raw node/edge
document).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed string
			if len(args) == 1 {
				seed = args[0]
			}
			return c.runWriteDeps(cmd.Context(), seed, reverse, format, output, noCache)
		},
	}

	cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "render dependents instead of dependencies")
	cmd.Flags().StringVarP(&format, "format", "f", formatSVG, "output format: svg, dot, json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default deps.<format>)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable artifact caching")

	return cmd
}

func (c *CLI) runWriteDeps(ctx context.Context, seed string, reverse bool, format, output string, noCache bool) error {
	switch format {
	case formatSVG, formatDOT, formatJSON:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (svg, dot, json)", format)
	}
	if output == "" {
		output = "deps." + format
	}

	doc, err := c.buildDepsDocument(ctx, seed, reverse)
	if err != nil {
		return err
	}

	if format == formatJSON {
		if err := graph.WriteFile(output, doc); err != nil {
			return err
		}
		printSuccess("wrote dependency graph")
		printFile(output)
		return nil
	}

	dot := graph.ToDOT(doc)
	if format == formatDOT {
		if err := os.WriteFile(output, []byte(dot), 0o644); err != nil {
			return err
		}
		printSuccess("wrote dependency graph")
		printFile(output)
		return nil
	}

	svg, err := c.renderSVG(ctx, dot, noCache)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, svg, 0o644); err != nil {
		return err
	}
	printSuccess("rendered dependency graph")
	printFile(output)
	return nil
}

// renderSVG renders DOT to SVG through the artifact cache.
func (c *CLI) renderSVG(ctx context.Context, dot string, noCache bool) ([]byte, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}

	artifacts, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	defer artifacts.Close()

	keyer := cache.NewDefaultKeyer()
	key := keyer.ArtifactKey(cache.Hash([]byte(dot)), formatSVG)

	if data, hit, err := artifacts.Get(ctx, key); err == nil && hit {
		c.Logger.Debug("artifact cache hit")
		return data, nil
	}

	spinner := newSpinnerWithContext(ctx, "Rendering graph...")
	spinner.Start()
	svg, err := graph.RenderSVG(dot)
	spinner.Stop()
	if err != nil {
		return nil, fmt.Errorf("render graph: %w", err)
	}

	if err := artifacts.Set(ctx, key, svg, artifactTTL); err != nil {
		c.Logger.Warn("caching artifact", "err", err)
	}
	return svg, nil
}
