// Package api provides the HTTP API for the application
package api

import (
	"context"
	"time"

	"basematch/internal/modkit"
	"basematch/internal/modkit/httpkit"
	"basematch/internal/modkit/module"
	"basematch/internal/platform/config"
	"basematch/internal/platform/logger"
	"basematch/internal/platform/metrics"
	phttp "basematch/internal/platform/net/http"
	"basematch/internal/platform/net/middleware"
	"basematch/internal/platform/store"

	metamod "basematch/internal/services/api/meta/module"
	sessionhttp "basematch/internal/services/session/http"
	sessionmod "basematch/internal/services/session/module"
)

// ServiceName is reported by /health and /version
const ServiceName = "basematch-api"

// Options are the API options
type Options struct {
	Config  config.Conf
	Store   *store.Store
	Metrics *metrics.Registry
	Logger  *logger.Logger
	Session sessionmod.Options
}

// API is the mounted application; Run drives its background loops
type API struct {
	session *sessionmod.Module
}

// Mount builds the modules and mounts them onto the given router
func Mount(ctx context.Context, r phttp.Router, opt Options) (*API, error) {
	if opt.Metrics == nil {
		opt.Metrics = metrics.New()
	}
	deps := modkit.Deps{
		Cfg:     opt.Config,
		Store:   opt.Store,
		Metrics: opt.Metrics,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	session, err := sessionmod.New(ctx, deps, opt.Session)
	if err != nil {
		return nil, err
	}
	meta := metamod.New(deps, ServiceName)

	apiCfg := opt.Config.Prefix("BASEMATCH_")
	stack := httpkit.CommonStack(httpkit.StackOptions{
		AllowedOrigins: apiCfg.MayCSV("CORS_ORIGINS", nil),
		SlowRequest:    apiCfg.MayDuration("SLOW_REQUEST", 500*time.Millisecond),
		Timeout:        apiCfg.MayDuration("REQUEST_TIMEOUT", 60*time.Second),
		// a commit waits on the wallet's signature
		Untimed: []string{"/v1/commit"},
	})

	// operational endpoints at the root, without CORS or timeouts
	r.Group(func(ops phttp.Router) {
		ops.Use(middleware.RequestID(), middleware.RecoverJSON)
		meta.MountRoutes(ops)
		ops.Handle("/metrics", opt.Metrics.Handler())
	})

	// the event feed is long lived so it stays out of the timeout stack
	r.Group(func(ws phttp.Router) {
		ws.Use(middleware.RequestID(), middleware.RealIP(), middleware.AccessLog(middleware.AccessLogOptions{}))
		ws.Get("/v1/events", sessionhttp.Events(session.Hub()))
	})

	// register each module's ports under its own name (for cross-module lookups)
	for _, m := range []module.Module{meta, session} {
		module.Register(m.Name(), m.Ports())
	}
	httpkit.MountAPIV1(r, stack, session.MountRoutes)

	return &API{session: session}, nil
}

// Run drives the session loops until ctx ends
func (a *API) Run(ctx context.Context) error { return a.session.Run(ctx) }

// Close releases the session's RPC clients
func (a *API) Close() { a.session.Close() }
