// Command basematch inspects and edits the local decision store
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"basematch/internal/platform/config"
	"basematch/internal/platform/logger"
	"basematch/internal/platform/store"
	decmod "basematch/internal/services/decisions/module"
	decsvc "basematch/internal/services/decisions/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRoot(openStore).ExecuteContext(ctx); err != nil {
		logger.Get().Error().Err(err).Msg("basematch failed")
		stop()
		os.Exit(1)
	}
}

// openStore opens the backend selected by BASEMATCH_STORE_DRIVER, or driver when set
func openStore(ctx context.Context, driver string) (*decsvc.Service, func(), error) {
	root := config.New()
	o := decmod.FromConfig(root)
	if driver != "" {
		o.Driver = driver
	}
	st, err := store.Open(ctx, decmod.StoreConfig(root, o.Driver), store.WithLogger(*logger.Get()))
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = st.Close(context.Background()) }
	s, err := decmod.Open(ctx, st, o)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return s, closeFn, nil
}
