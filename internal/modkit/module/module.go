// Package module defines the minimal contract for a modkit module and a bootstrap registry of port sets
package module

import (
	phttp "basematch/internal/platform/net/http"
)

// Module is what services/api composes: routes, a port set and a name
// kept sibling to modkit so a module can export its own ports type without import knots
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
