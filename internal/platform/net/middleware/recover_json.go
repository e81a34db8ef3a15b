package middleware

import (
	"net/http"
	"runtime/debug"

	perr "basematch/internal/platform/errors"
	"basematch/internal/platform/logger"
	pnet "basematch/internal/platform/net"
	phttp "basematch/internal/platform/net/http"
)

// RecoverJSON converts panics into a JSON 500 envelope and logs the stack with the request id
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			status, env := phttp.ErrorEnvelope(perr.PanicErrf("panic recovered"), pnet.RequestID(r.Context()))
			phttp.JSON(w, status, env)
		}()
		next.ServeHTTP(w, r)
	})
}
