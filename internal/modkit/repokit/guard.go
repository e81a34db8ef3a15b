// Package repokit holds startup helpers for storage dependencies
package repokit

import (
	"context"
	"fmt"
	"time"

	"basematch/internal/platform/logger"
)

type guarder interface {
	Guard(context.Context) error
}

// sleep is a seam for tests
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WaitReady polls st.Guard until it passes, tries run out, or ctx ends
func WaitReady(ctx context.Context, st guarder, tries int, every time.Duration) error {
	if tries <= 0 {
		tries = 1
	}
	log := logger.Named("repokit")
	var err error
	for i := 1; i <= tries; i++ {
		if err = st.Guard(ctx); err == nil {
			return nil
		}
		log.Warn().Err(err).Int("try", i).Int("of", tries).Msg("storage not ready")
		if i == tries {
			break
		}
		if serr := sleep(ctx, every); serr != nil {
			return fmt.Errorf("dependency guard: %w", serr)
		}
	}
	return fmt.Errorf("dependency guard failed: %w", err)
}

// MustGuard runs WaitReady once and panics on error (service startup)
func MustGuard(ctx context.Context, st guarder) {
	if err := WaitReady(ctx, st, 1, 0); err != nil {
		panic(err)
	}
}
