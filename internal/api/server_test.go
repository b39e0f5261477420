package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kdgyun/lare-hpa-go/internal/domain"
	"github.com/kdgyun/lare-hpa-go/internal/infra/controller"
)

// stubMetrics/stubScaler are inert domain.MetricsGateway/ScalerGateway
// implementations, enough to construct a Controller for routing tests that
// never tick it.
type stubMetrics struct{}

func (stubMetrics) PointQuery(ctx context.Context, query string, period time.Duration) (float64, error) {
	return 0, nil
}
func (stubMetrics) RangeQuery(ctx context.Context, query string, start time.Time, period time.Duration) ([]domain.Sample, error) {
	return nil, nil
}
func (stubMetrics) WindowQuery(ctx context.Context, query string, period time.Duration, n int) ([]domain.Sample, error) {
	return nil, nil
}

type stubScaler struct{}

func (stubScaler) GetReplicas(ctx context.Context, namespace, deployment string, period time.Duration) (int, error) {
	return 1, nil
}
func (stubScaler) SetReplicas(ctx context.Context, namespace, deployment string, replicas int) error {
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := domain.AutoscalerConfig{
		Namespace: "prod", Deployment: "checkout", AppName: "checkout-svc",
		Container: "app", MinReplicas: 1, MaxReplicas: 10, Period: 30, InitialTargetCPU: 75,
	}
	ctrl := controller.New(cfg, stubMetrics{}, stubScaler{}, nil, nil, nil)
	return NewServer(ctrl)
}

func TestHandleHealthz_ReturnsOK(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status=ok", body)
	}
}

func TestHandleStatus_ReportsSharedState(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["target_cpu"]; !ok {
		t.Errorf("body missing target_cpu: %v", body)
	}
}

func TestMetricsEndpoint_Serves(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
