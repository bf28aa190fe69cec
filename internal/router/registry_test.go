package router

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mrenfro/conduit/internal/logger"
)

func newTestRegistry() *RouteRegistry {
	return NewRouteRegistry(*logger.NewPlain(slog.New(slog.DiscardHandler)))
}

func TestRouteRegistry_WireUpServesRegisteredHandlers(t *testing.T) {
	r := newTestRegistry()
	r.Register("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, "Liveness check")
	r.RegisterWithMethod("/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, "Pool statistics", "GET")

	mux := http.NewServeMux()
	r.WireUp(mux)

	for _, path := range []string{"/health", "/stats"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}
}

func TestRouteRegistry_GetRoutesReflectsRegistrationOrder(t *testing.T) {
	r := newTestRegistry()
	r.Register("/a", func(http.ResponseWriter, *http.Request) {}, "first")
	r.Register("/b", func(http.ResponseWriter, *http.Request) {}, "second")

	routes := r.GetRoutes()
	if len(routes) != 2 {
		t.Fatalf("GetRoutes() returned %d entries, want 2", len(routes))
	}
	if routes["/a"].Order >= routes["/b"].Order {
		t.Errorf("expected /a to be registered before /b: %+v", routes)
	}
	if routes["/a"].Method != "GET" {
		t.Errorf("Register should default to method GET, got %q", routes["/a"].Method)
	}
}
