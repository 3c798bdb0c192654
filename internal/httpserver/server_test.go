package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"intelligent-scheduler/internal/dispatch"
	"intelligent-scheduler/internal/middleware"
	"intelligent-scheduler/internal/model"
	"intelligent-scheduler/pkg/log"
)

type stubDispatch struct{}

func (stubDispatch) Submit(ctx context.Context, ev model.TriggerEvent) (string, error) {
	return "run_stub", nil
}

func (stubDispatch) GetStatus(ctx context.Context, runID string) (model.DispatchRun, error) {
	return model.DispatchRun{}, dispatch.ErrRunNotFound
}

func (stubDispatch) Start(ctx context.Context) error { return nil }
func (stubDispatch) Close(ctx context.Context) error { return nil }

func newTestServer(t *testing.T, ready func(context.Context) error) *HTTPServer {
	t.Helper()
	srv, err := New(log.NewNop(), Config{
		Logger:         log.NewNop(),
		Port:           8080,
		Mode:           gin.TestMode,
		Environment:    string(model.EnvironmentDevelopment),
		ReadinessCheck: ready,
		Middleware:     middleware.Config{RateLimitPerMin: 100},
		DispatchUC:     stubDispatch{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := srv.mapHandlers(); err != nil {
		t.Fatalf("mapHandlers: %v", err)
	}
	return srv
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing mode", cfg: Config{Port: 1, DispatchUC: stubDispatch{}}},
		{name: "missing port", cfg: Config{Mode: gin.TestMode, DispatchUC: stubDispatch{}}},
		{name: "missing dispatch", cfg: Config{Mode: gin.TestMode, Port: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(log.NewNop(), tt.cfg); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{method: http.MethodGet, path: "/health", want: http.StatusOK},
		{method: http.MethodGet, path: "/ready", want: http.StatusOK},
		{method: http.MethodGet, path: "/live", want: http.StatusOK},
		{method: http.MethodPost, path: "/api/v1/dispatch/voice", body: `{"user_id":"u1","transcript":"call mom"}`, want: http.StatusAccepted},
		{method: http.MethodGet, path: "/api/v1/dispatch/runs/run_missing", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			srv.gin.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("code = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
			if w.Header().Get(middleware.RequestIDHeader) == "" {
				t.Errorf("missing request id header")
			}
		})
	}
}

func TestReadyCheck_StorageDown(t *testing.T) {
	srv := newTestServer(t, func(context.Context) error { return errors.New("database is locked") })

	w := httptest.NewRecorder()
	srv.gin.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d, want 503", w.Code)
	}

	w = httptest.NewRecorder()
	srv.gin.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("liveness must not depend on storage: %d", w.Code)
	}
}
