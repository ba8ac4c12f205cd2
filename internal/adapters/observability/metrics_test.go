package observability_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recotrip/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the vectors are exported
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveStore("favorites", "add", nil)
	observability.ObserveStore("reviews", "add", errors.New("disk full"))
	observability.ObserveStoreReadFailure("favorites", "decode")

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"recotrip_http_requests_total",
		`recotrip_store_operations_total{op="add",result="error",store="reviews"}`,
		`recotrip_store_read_failures_total{reason="decode",store="favorites"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output", want)
		}
	}
}

func TestNewLogger_Level(t *testing.T) {
	if l := observability.NewLogger("prod", "warn"); l.GetLevel().String() != "warn" {
		t.Fatalf("level = %s", l.GetLevel())
	}
	if l := observability.NewLogger("dev", "nonsense"); l.GetLevel().String() != "info" {
		t.Fatalf("fallback level = %s", l.GetLevel())
	}
}
