// Package modkit provides module wiring and core deps
package modkit

import (
	"basematch/internal/platform/config"
	"basematch/internal/platform/logger"
	"basematch/internal/platform/metrics"
	"basematch/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	Store   *store.Store
	Metrics *metrics.Registry
}

// Backends returns the store facade or an empty one so modules can nil check fields directly
func (d Deps) Backends() *store.Store {
	if d.Store == nil {
		return &store.Store{}
	}
	return d.Store
}
