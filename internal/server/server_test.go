package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nbodysim/server/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		ListenAddr:          "127.0.0.1:0",
		SimDt:               0.01,
		SimTheta:            1.0,
		SimGravityConstant:  1.0,
		SimQuadtreeCapacity: 32,
		SimTickRate:         200,
		LogLevel:            "error",
	}
}

func TestServer_HealthzBecomesHealthyAfterTick(t *testing.T) {
	srv, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.Start(ctx)
	defer srv.Stop()

	handler := srv.Handler()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		handler.ServeHTTP(w, r)
		if w.Code == http.StatusOK {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("healthz never reported healthy after scheduler ticks")
}
