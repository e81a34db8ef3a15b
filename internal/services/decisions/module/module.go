// Package module opens the decision store on the configured backend
package module

import (
	"context"

	perr "basematch/internal/platform/errors"
	"basematch/internal/platform/logger"
	"basematch/internal/platform/store"
	dom "basematch/internal/services/decisions/domain"
	"basematch/internal/services/decisions/repo"
	svc "basematch/internal/services/decisions/service"
)

// KV picks the backend for driver from st and migrates it when needed
func KV(ctx context.Context, st *store.Store, o Options) (dom.KV, error) {
	if st == nil {
		st = &store.Store{}
	}
	var kv dom.KV
	switch o.Driver {
	case DriverMemory:
		kv = repo.NewMemory()
	case DriverRedis:
		if st.RDS == nil {
			return nil, perr.Unavailablef("store driver redis needs SERVICE_REDIS_ADDR")
		}
		kv = repo.NewRedis(st.RDS)
	case DriverPostgres:
		if st.PG == nil {
			return nil, perr.Unavailablef("store driver postgres needs SERVICE_PGSQL_DBURL")
		}
		kv = repo.NewSQL(st.PG, repo.Postgres, o.Table)
	case DriverSQLite, "":
		if st.Lite == nil {
			return nil, perr.Unavailablef("store driver sqlite is not open")
		}
		kv = repo.NewSQL(st.Lite, repo.SQLite, o.Table)
	default:
		return nil, perr.InvalidArgf("unknown store driver %q", o.Driver)
	}
	if m, ok := kv.(dom.Migrator); ok {
		if err := m.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	return kv, nil
}

// Open builds the decision store service over the driver's KV
func Open(ctx context.Context, st *store.Store, o Options) (*svc.Service, error) {
	kv, err := KV(ctx, st, o)
	if err != nil {
		return nil, err
	}
	logger.Named("decisions").Info().Str("driver", o.Driver).Str("namespace", o.Namespace).Msg("decision store ready")
	return svc.New(kv, svc.Config{Namespace: o.Namespace, Capacity: o.Capacity}), nil
}
