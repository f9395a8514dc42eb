package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/repoforge/repoforge/internal/server"
	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/repo"
)

// serveCommand creates the serve command: the read-only index API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the published index snapshot over HTTP",
		Long: `Serve the published index snapshot as a read-only JSON API.

The snapshot is the file a successful republish writes; if it does not exist
yet it is generated from the persisted index first. Admissions and rollbacks
change what is served only through a republish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable snapshot caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if cfg.SnapshotPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no snapshot_path configured")
	}

	if _, err := os.Stat(cfg.SnapshotPath); os.IsNotExist(err) {
		store, err := newStore(ctx, cfg)
		if err != nil {
			return err
		}
		if err := repo.NewSnapshotPublisher(store, cfg.SnapshotPath, c.Logger).Republish(ctx); err != nil {
			return err
		}
	}

	snapshots, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	return server.New(cfg.SnapshotPath, snapshots, c.Logger).ListenAndServe(addr)
}
