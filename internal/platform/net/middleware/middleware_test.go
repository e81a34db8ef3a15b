package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"basematch/internal/platform/logger"
	pnet "basematch/internal/platform/net"
	kit "basematch/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	kit.Serial(t)
	var buf bytes.Buffer
	t.Cleanup(logger.Set(zerolog.New(&buf)))
	return &buf
}

func TestRequestID_PropagatesToContextAndHeader(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = pnet.RequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/queue", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	h.ServeHTTP(rr, req)

	if seen != "abc-123" {
		t.Fatalf("ctx request id = %q", seen)
	}
	if got := rr.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("header = %q", got)
	}
}

func TestAccessLog_LevelsAndFields(t *testing.T) {
	buf := captureLogs(t)

	h := RequestID()(AccessLog(AccessLogOptions{Slow: time.Nanosecond})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Millisecond)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/commit", nil))

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("log line: %v (%s)", err, buf.String())
	}
	if line["level"] != "warn" || line["status"] != float64(202) || line["bytes"] != float64(2) || line["path"] != "/v1/commit" {
		t.Fatalf("log line = %v", line)
	}
	if id, _ := line["request_id"].(string); id == "" {
		t.Fatalf("request_id missing from access log: %v", line)
	}
}

func TestAccessLog_ServerErrorsLogAtError(t *testing.T) {
	buf := captureLogs(t)
	h := AccessLog(AccessLogOptions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/commit", nil))
	kit.MustContain(t, buf.String(), `"level":"error"`)
}

func TestRecoverJSON_WritesEnvelope(t *testing.T) {
	_ = captureLogs(t)
	h := RequestID()(RecoverJSON(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/session", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var env struct {
		Error     string `json:"error"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error != "panic recovered" || env.RequestID == "" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS(CORSOptions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodOptions, "/v1/swipes", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestOrDefault(t *testing.T) {
	if got := orDefault(nil, []string{"a"}); len(got) != 1 || got[0] != "a" {
		t.Fatalf("nil -> %v", got)
	}
	if got := orDefault([]string{"b"}, []string{"a"}); got[0] != "b" {
		t.Fatalf("set -> %v", got)
	}
}

func TestTimeoutExcept_ExemptPathKeepsContext(t *testing.T) {
	var deadlines = map[string]bool{}
	h := TimeoutExcept(time.Minute, "/v1/commit/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Context().Deadline()
		deadlines[r.URL.Path] = ok
	}))
	for _, p := range []string{"/v1/commit", "/v1/commit/", "/v1/queue"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, p, nil))
	}
	if deadlines["/v1/commit"] || deadlines["/v1/commit/"] {
		t.Fatalf("exempt path got a deadline: %v", deadlines)
	}
	if !deadlines["/v1/queue"] {
		t.Fatalf("timed path has no deadline")
	}
}
