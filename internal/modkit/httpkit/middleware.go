package httpkit

import (
	"net/http"
	"time"

	"basematch/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack
type StackOptions struct {
	AllowedOrigins []string
	SlowRequest    time.Duration
	Timeout        time.Duration
	// Untimed paths skip the request timeout; they wait on an external party
	Untimed []string
}

// CommonStack returns the baseline middleware for the API
// the request timeout does not apply to websocket routes mounted outside the stack
// or to the Untimed paths
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.SlowRequest <= 0 {
		o.SlowRequest = 500 * time.Millisecond
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(middleware.AccessLogOptions{Slow: o.SlowRequest}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.AllowedOrigins}),
		middleware.StripSlashes(),
		middleware.TimeoutExcept(o.Timeout, o.Untimed...),
	}
}
