// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"context"
	"time"

	"basematch/internal/modkit"
	"basematch/internal/modkit/httpkit"
	metahttp "basematch/internal/services/api/meta/http"
)

// Module serves health, readiness and version
type Module struct {
	built     modkit.Built
	startedAt time.Time
}

// New constructs a meta module; checks come from the configured store backends
func New(deps modkit.Deps, service string, opts ...modkit.Option) *Module {
	m := &Module{startedAt: time.Now()}
	st := deps.Backends()

	checks := map[string]metahttp.Check{"pg": nil, "sqlite": nil, "clickhouse": nil, "redis": nil}
	if st.PG != nil {
		checks["pg"] = pingOf(st.PG)
	}
	if st.Lite != nil {
		checks["sqlite"] = pingOf(st.Lite)
	}
	if st.CH != nil {
		checks["clickhouse"] = pingOf(st.CH)
	}
	if st.RDS != nil {
		checks["redis"] = func(ctx context.Context) error { return st.RDS.Ping(ctx).Err() }
	}

	register := func(r httpkit.Router) {
		metahttp.Register(r, metahttp.Deps{ServiceName: service, StartedAt: m.startedAt, Checks: checks})
	}
	m.built = modkit.Build(append([]modkit.Option{modkit.WithName("meta"), modkit.WithRegister(register)}, opts...)...)
	return m
}

// pingOf adapts a seam that may expose Ping; seams without it always pass
func pingOf(seam any) metahttp.Check {
	p, ok := seam.(interface{ Ping(context.Context) error })
	if !ok {
		return func(context.Context) error { return nil }
	}
	return p.Ping
}

// MountRoutes mounts the meta routes
func (m *Module) MountRoutes(r httpkit.Router) { m.built.Mount(r) }

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Ports returns nothing; meta exposes no ports
func (m *Module) Ports() any { return nil }
