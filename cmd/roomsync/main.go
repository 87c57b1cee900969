package main

import (
	"context"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"reservite/internal/adapters/hotelsvc"
	"reservite/internal/adapters/observability"
	"reservite/internal/app"
	"reservite/internal/bootstrap"
	"reservite/internal/shared"
)

func main() {
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if len(cfg.HotelIDs) == 0 {
		log.Fatal().Msg("HOTEL_IDS is empty, nothing to sync")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("base", cfg.HotelServiceURL).
		Int("workers", cfg.Workers).
		Int("hotels", len(cfg.HotelIDs)).
		Msg("room sync starting")

	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open store failed")
	}
	defer stores.Close()
	cache, closeCache := bootstrap.OpenCache(ctx, cfg)
	defer closeCache()

	client, err := hotelsvc.New(cfg.HotelServiceURL, cfg.HotelServiceKey, cfg.UpstreamRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize hotel service client")
	}
	syncer := app.NewRoomSyncService(client, stores.Rooms, cache)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var (
		wg     sync.WaitGroup
		synced atomic.Int64
		failed atomic.Int64
	)
	for _, id := range cfg.HotelIDs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("sync interrupted")
			break
		}

		wg.Add(1)
		go func(hotelID int64) {
			defer wg.Done()
			defer sem.Release(1)

			n, err := syncer.SyncHotel(ctx, hotelID)
			if err != nil {
				failed.Add(1)
				log.Warn().Int64("hotel_id", hotelID).Err(err).Msg("sync failed")
				return
			}
			synced.Add(1)
			log.Info().Int64("hotel_id", hotelID).Int("rooms", n).Msg("sync ok")
		}(id)
	}

	wg.Wait()
	log.Info().Int64("synced", synced.Load()).Int64("failed", failed.Load()).Msg("room sync completed")
}
