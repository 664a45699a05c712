package main

import (
	"context"
	"errors"

	"github.com/mcdev12/leaguesync/go/internal/gateway"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewServeCommand runs the sync engine behind the HTTP and WebSocket gateway
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and live snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.config)
		},
	}
}

func runServe(ctx context.Context, config *Config) error {
	store, err := setupStore(ctx, config)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Msg("failed to close document store")
		}
	}()

	services, err := setupServices(store, config)
	if err != nil {
		return err
	}

	srv := gateway.NewServer(config.Server.Addr, services.Gateway.Handler())

	g, ctx := errgroup.WithContext(ctx)
	for _, run := range store.runners {
		run := run
		g.Go(func() error {
			return run(ctx)
		})
	}
	g.Go(func() error {
		return ignoreCanceled(services.Engine.Run(ctx))
	})
	g.Go(func() error {
		return services.Gateway.Start(ctx)
	})
	g.Go(func() error {
		return gateway.ListenAndServe(ctx, srv)
	})

	log.Info().
		Str("addr", config.Server.Addr).
		Str("backend", config.Store.Backend).
		Msg("leaguesync serving")

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
