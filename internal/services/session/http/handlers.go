// Package http provides http transport for the swipe session
package http

import (
	stdhttp "net/http"

	"basematch/internal/core/swipe"
	"basematch/internal/modkit/httpkit"
	perr "basematch/internal/platform/errors"
	svc "basematch/internal/services/session/service"
)

// PreferenceInput sets the discovery preference
type PreferenceInput struct {
	Gender string `json:"gender" validate:"required,gender"`
}

// SwipeInput records one decision. The subject is checked by the session so a
// malformed address is an invalid argument rather than a body validation error
type SwipeInput struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Liked     *bool  `json:"liked" validate:"required"`
}

// QueueOutput is the pending queue snapshot
type QueueOutput struct {
	Size      int              `json:"size"`
	Capacity  int              `json:"capacity"`
	Decisions []swipe.Decision `json:"decisions"`
}

// Register mounts session endpoints on the given router
func Register(r httpkit.Router, s *svc.Session) {
	h := &handlers{s: s}

	httpkit.Get(r, "/session", h.view)
	httpkit.PutJSON(r, "/session/preference", h.setPreference)

	httpkit.Get(r, "/candidates", h.candidates)
	httpkit.Post(r, "/candidates/refresh", h.refresh)

	httpkit.PostJSON(r, "/swipes", h.swipe)
	httpkit.Get(r, "/queue", h.queue)

	httpkit.Post(r, "/commit", h.commit)
	httpkit.Get(r, "/commit/last", h.lastCommit)

	httpkit.Post(r, "/wallet/connect", h.connect)
	httpkit.Post(r, "/wallet/switch", h.switchNetwork)

	httpkit.Get(r, "/matches/current", h.currentMatch)
	httpkit.Post(r, "/matches/dismiss", h.dismissMatch)
}

type handlers struct{ s *svc.Session }

func (h *handlers) view(*stdhttp.Request) (any, error) { return h.s.View(), nil }

func (h *handlers) setPreference(r *stdhttp.Request, in PreferenceInput) (any, error) {
	g, _ := swipe.ParseGender(in.Gender)
	return h.s.SetPreference(r.Context(), g)
}

func (h *handlers) candidates(*stdhttp.Request) (any, error) { return h.s.Candidates(), nil }

func (h *handlers) refresh(r *stdhttp.Request) (any, error) { return h.s.Refresh(r.Context()) }

func (h *handlers) swipe(r *stdhttp.Request, in SwipeInput) (any, error) {
	return h.s.Swipe(r.Context(), in.SubjectID, *in.Liked)
}

func (h *handlers) queue(*stdhttp.Request) (any, error) {
	st := h.s.State()
	return QueueOutput{Size: st.Queue.Len(), Capacity: st.Queue.Cap(), Decisions: st.Queue.Snapshot()}, nil
}

func (h *handlers) commit(r *stdhttp.Request) (any, error) { return h.s.Commit(r.Context()) }

func (h *handlers) lastCommit(*stdhttp.Request) (any, error) {
	a, ok := h.s.LastCommit()
	if !ok {
		return nil, perr.NotFoundf("no commit attempted yet")
	}
	return a, nil
}

func (h *handlers) connect(r *stdhttp.Request) (any, error) { return h.s.Connect(r.Context()) }

func (h *handlers) switchNetwork(r *stdhttp.Request) (any, error) {
	return h.s.SwitchNetwork(r.Context())
}

func (h *handlers) currentMatch(*stdhttp.Request) (any, error) {
	m, ok := h.s.CurrentMatch()
	if !ok {
		return httpkit.NoContent(), nil
	}
	return m, nil
}

func (h *handlers) dismissMatch(*stdhttp.Request) (any, error) {
	m, ok := h.s.DismissMatch()
	if !ok {
		return httpkit.NoContent(), nil
	}
	return m, nil
}
