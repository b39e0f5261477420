package metricsgw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func fakePrometheus(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

const matrixBody = `{
  "status": "success",
  "data": {
    "resultType": "matrix",
    "result": [
      {
        "metric": {},
        "values": [
          [1700000000, "10"],
          [1700000030, "20"],
          [1700000060, "30"]
        ]
      }
    ]
  }
}`

const emptyMatrixBody = `{
  "status": "success",
  "data": {
    "resultType": "matrix",
    "result": []
  }
}`

func TestPointQuery_ReturnsLastSample(t *testing.T) {
	srv := fakePrometheus(t, matrixBody)
	defer srv.Close()

	gw, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := gw.PointQuery(context.Background(), "cpu_usage", 30*time.Second)
	if err != nil {
		t.Fatalf("PointQuery: %v", err)
	}
	if got != 30 {
		t.Errorf("PointQuery = %v, want 30", got)
	}
}

func TestPointQuery_NoSamplesReturnsZero(t *testing.T) {
	srv := fakePrometheus(t, emptyMatrixBody)
	defer srv.Close()

	gw, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := gw.PointQuery(context.Background(), "cpu_usage", 30*time.Second)
	if err != nil {
		t.Fatalf("PointQuery: %v", err)
	}
	if got != 0 {
		t.Errorf("PointQuery = %v, want 0", got)
	}
}

func TestRangeQuery_ReturnsAllSamples(t *testing.T) {
	srv := fakePrometheus(t, matrixBody)
	defer srv.Close()

	gw, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	samples, err := gw.RangeQuery(context.Background(), "cpu_usage", time.Now().Add(-time.Hour), 30*time.Second)
	if err != nil {
		t.Fatalf("RangeQuery: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("RangeQuery: got %d samples, want 3", len(samples))
	}
	if samples[0].Value != 10 || samples[2].Value != 30 {
		t.Errorf("RangeQuery samples = %+v", samples)
	}
}

func TestWindowQuery_ReturnsSamples(t *testing.T) {
	srv := fakePrometheus(t, matrixBody)
	defer srv.Close()

	gw, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	samples, err := gw.WindowQuery(context.Background(), "cpu_usage", 30*time.Second, 3)
	if err != nil {
		t.Fatalf("WindowQuery: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("WindowQuery: got %d samples, want 3", len(samples))
	}
}

func TestPointQuery_ServerErrorWraps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gw, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = gw.PointQuery(context.Background(), "cpu_usage", 30*time.Second)
	if err == nil {
		t.Fatal("PointQuery: want error from 500 response, got nil")
	}
}
