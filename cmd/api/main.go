package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "reservite/internal/adapters/http_server"
	"reservite/internal/adapters/mailer"
	"reservite/internal/adapters/observability"
	"reservite/internal/adapters/payments"
	"reservite/internal/app"
	"reservite/internal/bootstrap"
	"reservite/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("open store failed")
	}
	defer stores.Close()
	cache, closeCache := bootstrap.OpenCache(ctx, cfg)
	defer closeCache()

	pay, err := payments.New(cfg.PaymentServiceURL, cfg.PaymentServiceKey, cfg.UpstreamRPS, cfg.PaymentTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize payment client")
	}
	notifier := mailer.New(mailer.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		User:      cfg.SMTPUser,
		Password:  cfg.SMTPPassword,
		FromName:  cfg.SMTPFromName,
		FromEmail: cfg.SMTPFromEmail,
	})

	q := app.NewQueryService(stores.Rooms, stores.Reservations, cache, cfg.CacheTTL)
	b := app.NewBookingService(q, stores.Reservations, pay, notifier)

	// the memory store lives in this process, so nobody else can sweep it
	if cfg.Store == shared.StoreMemory && cfg.SweepInterval > 0 {
		sw := app.NewSweeper(b, stores.Reservations, cfg.PendingTTL, cfg.Workers)
		go func() {
			if err := sw.Run(ctx, cfg.SweepInterval); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("sweeper stopped")
			}
		}()
	}

	// http
	srv := server.New(server.Options{
		CORSOrigins:    cfg.CORSOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RequestTimeout: cfg.PaymentTimeout + 10*time.Second,
	})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(server.NewHandlers(q, b))

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.Store).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
