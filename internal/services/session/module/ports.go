package module

import (
	commitdom "basematch/internal/services/commit/domain"
	dom "basematch/internal/services/session/domain"
	svc "basematch/internal/services/session/service"
)

// Ports holds the ports exposed by the session module
type Ports struct {
	Store    dom.Store
	Commit   commitdom.CommitPort
	Notifier svc.Notifier
}
