// Package http provides meta endpoints
package http

import (
	stdctx "context"
	"maps"
	"net/http"
	"slices"
	"time"

	"basematch/internal/core/version"
	"basematch/internal/modkit/httpkit"
	perr "basematch/internal/platform/errors"
)

// Check pings one dependency; nil checks are reported as skipped
type Check func(stdctx.Context) error

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	// Checks are run in name order by the readiness probe
	Checks map[string]Check
	order  []string
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	d.order = slices.Sorted(maps.Keys(d.Checks))
	h := &handlers{deps: d, now: time.Now}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
}

// HealthResponse is the health payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok fail skipped
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status"` // ok fail
	Checks []ReadyCheck `json:"checks"`
}

func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(h.now().Sub(h.deps.StartedAt) / time.Second),
	}, nil
}

func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	out := ReadyResponse{Status: "ok", Checks: make([]ReadyCheck, 0, len(h.deps.order))}
	for _, name := range h.deps.order {
		c := ReadyCheck{Name: name, Status: "ok"}
		switch fn := h.deps.Checks[name]; {
		case fn == nil:
			c.Status = "skipped"
		default:
			if err := fn(ctx); err != nil {
				c.Status, c.Error = "fail", err.Error()
				out.Status = "fail"
			}
		}
		out.Checks = append(out.Checks, c)
	}
	if out.Status == "fail" {
		return httpkit.Response{Status: http.StatusServiceUnavailable, Body: out}, nil
	}
	return out, nil
}

func (h *handlers) version(_ *http.Request) (any, error) {
	if h.deps.ServiceName == "" {
		return nil, perr.Internalf("service name not configured")
	}
	return version.Info(h.deps.ServiceName), nil
}
