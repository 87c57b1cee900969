package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"reservite/internal/adapters/mailer"
	"reservite/internal/adapters/observability"
	"reservite/internal/app"
	"reservite/internal/bootstrap"
	"reservite/internal/shared"
)

// The sweeper never charges, so it runs without a payment gateway. A
// SWEEP_INTERVAL_SECONDS of 0 or less sweeps once and exits.
func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.Store == shared.StoreMemory {
		log.Fatal().Msg("the memory store is swept inside the api process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open store failed")
	}
	defer stores.Close()
	cache, closeCache := bootstrap.OpenCache(ctx, cfg)
	defer closeCache()

	q := app.NewQueryService(stores.Rooms, stores.Reservations, cache, cfg.CacheTTL)
	b := app.NewBookingService(q, stores.Reservations, nil, mailer.Noop{})
	sw := app.NewSweeper(b, stores.Reservations, cfg.PendingTTL, cfg.Workers)

	if cfg.SweepInterval <= 0 {
		res, err := sw.Sweep(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("sweep failed")
		}
		log.Info().Interface("result", res).Msg("sweep completed")
		return
	}
	log.Info().Dur("interval", cfg.SweepInterval).Msg("sweeper starting")
	if err := sw.Run(ctx, cfg.SweepInterval); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("sweeper stopped")
	}
	log.Info().Msg("sweeper stopped")
}
