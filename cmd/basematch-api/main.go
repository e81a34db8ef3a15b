// Command basematch-api serves the swipe session over HTTP
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"basematch/internal/modkit/repokit"
	"basematch/internal/platform/config"
	"basematch/internal/platform/logger"
	"basematch/internal/platform/metrics"
	phttp "basematch/internal/platform/net/http"
	"basematch/internal/platform/store"

	"basematch/internal/services/api"
	decmod "basematch/internal/services/decisions/module"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := config.New()
	apiCfg := root.Prefix("BASEMATCH_")

	// bring up logging early
	l := logger.Get()

	// open only the backends the configured store driver needs
	driver := decmod.FromConfig(root).Driver
	st, err := store.Open(ctx, decmod.StoreConfig(root, driver), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Str("driver", driver).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	if err := repokit.WaitReady(ctx, st, apiCfg.MayInt("STORE_READY_TRIES", 10), time.Second); err != nil {
		l.Panic().Err(err).Msg("store not ready")
	}

	// http server (reads BASEMATCH_API_PORT / BASEMATCH_SHUTDOWN_TIMEOUT)
	srv := phttp.NewServer(apiCfg)

	app, err := api.Mount(ctx, srv.Router(), api.Options{
		Config:  root,
		Store:   st,
		Metrics: metrics.New(),
		Logger:  l,
	})
	if err != nil {
		l.Panic().Err(err).Msg("api.Mount failed")
	}
	defer app.Close()

	go func() {
		if err := app.Run(ctx); err != nil {
			l.Error().Err(err).Msg("session loops stopped")
		}
	}()

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
