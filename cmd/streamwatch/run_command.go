package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"streamwatch/internal/covercache"
	"streamwatch/internal/daemon"
	"streamwatch/internal/identity"
	"streamwatch/internal/logging"
	"streamwatch/internal/pipeline"
	"streamwatch/internal/services/kworb"
	"streamwatch/internal/services/spotify"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the refresh loop (or a single cycle with --once)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			covers, err := covercache.Open(cfg.Paths.DataDir)
			if err != nil {
				return fmt.Errorf("open cover cache: %w", err)
			}
			defer func() { _ = covers.Close() }()

			overrides := identity.NewOverrides(cfg.Identity.OverridesPath, logger)

			var resolver pipeline.CoverResolver
			if cfg.SpotifyEnabled() {
				client := spotify.NewClient(cfg, logger)
				resolver = spotify.NewResolver(client, overrides, cfg.Source.ArtistName, logger)
			} else {
				logger.Info("spotify credentials absent, cover enrichment disabled")
			}

			runner := pipeline.NewRunner(cfg, logger, pipeline.Deps{
				Fetcher:   kworb.NewClient(cfg, logger),
				Covers:    covers,
				Resolver:  resolver,
				Overrides: overrides,
			})

			d, err := daemon.New(cfg, runner, logger)
			if err != nil {
				return err
			}

			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if once {
				return d.RunOnce(signalCtx)
			}

			if err := d.Start(signalCtx); err != nil {
				return err
			}
			<-signalCtx.Done()
			d.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single refresh cycle and exit")
	return cmd
}
