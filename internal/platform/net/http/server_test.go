package http

import (
	"context"
	"fmt"
	"net"
	stdhttp "net/http"
	"testing"
	"time"

	"basematch/internal/platform/config"

	"github.com/go-chi/chi/v5"
)

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return fmt.Sprintf("127.0.0.1:%d", l.Addr().(*net.TCPAddr).Port)
}

func TestNewServer_ConfigAndOptions(t *testing.T) {
	t.Setenv("SRVT_API_PORT", ":4555")
	called := false
	s := NewServer(config.New().Prefix("SRVT_"), func(*chi.Mux) { called = true })
	if s.Addr() != ":4555" || !called || s.Router() == nil {
		t.Fatalf("addr=%q called=%v", s.Addr(), called)
	}
	if d := NewServer(config.New().Prefix("NOPE_")); d.Addr() != ":4000" || d.drainTimeout != 10*time.Second {
		t.Fatalf("defaults = %q %v", d.Addr(), d.drainTimeout)
	}
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	addr := freePort(t)
	t.Setenv("RUNT_API_PORT", addr)
	s := NewServer(config.New().Prefix("RUNT_"))
	s.Router().Get("/health", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { w.WriteHeader(204) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err := stdhttp.Get("http://" + addr + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != 204 {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestServer_RunReportsListenError(t *testing.T) {
	t.Setenv("BADT_API_PORT", "not-an-addr")
	if err := NewServer(config.New().Prefix("BADT_")).Run(context.Background()); err == nil {
		t.Fatalf("expected listen error")
	}
}
