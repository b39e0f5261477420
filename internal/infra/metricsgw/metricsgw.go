// Package metricsgw implements domain.MetricsGateway against a real
// Prometheus HTTP API, using the client_golang v1 query API (the same
// module the teacher already depends on for promauto/promhttp, here given
// a second role as an HTTP client instead of just an exposition library).
// It reproduces the three query shapes of original_source/api/metrics.py
// (get_prometheus_data, get_prometheus_data_all_list,
// get_prometheus_data_n_times_list) as PointQuery/RangeQuery/WindowQuery.
package metricsgw

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	apiv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/kdgyun/lare-hpa-go/internal/domain"
)

// Gateway queries a Prometheus server's HTTP API.
type Gateway struct {
	api apiv1.API
}

// New dials the Prometheus server at url (e.g. http://prometheus:9090).
func New(url string) (*Gateway, error) {
	client, err := api.NewClient(api.Config{Address: url})
	if err != nil {
		return nil, fmt.Errorf("metricsgw: new client: %w", err)
	}
	return &Gateway{api: apiv1.NewAPI(client)}, nil
}

// PointQuery returns the most recent sample for query evaluated over the
// last period seconds at step period. Returns 0.0 if no samples
// (spec.md §4.1).
func (g *Gateway) PointQuery(ctx context.Context, query string, period time.Duration) (float64, error) {
	end := time.Now()
	start := end.Add(-period)

	samples, err := g.queryRange(ctx, query, start, end, period)
	if err != nil {
		return 0, &domain.MetricFetchError{Op: "PointQuery", Query: query, Err: err}
	}
	if len(samples) == 0 {
		return 0, nil
	}
	return samples[len(samples)-1].Value, nil
}

// RangeQuery returns samples for query from start to now at step period.
// Callers are responsible for dropping the boundary sample per spec.md
// §4.1 ("callers always drop the first sample").
func (g *Gateway) RangeQuery(ctx context.Context, query string, start time.Time, period time.Duration) ([]domain.Sample, error) {
	end := time.Now()
	samples, err := g.queryRange(ctx, query, start, end, period)
	if err != nil {
		return nil, &domain.MetricFetchError{Op: "RangeQuery", Query: query, Err: err}
	}
	return samples, nil
}

// WindowQuery returns the last n steps of query, each step spanning period
// seconds.
func (g *Gateway) WindowQuery(ctx context.Context, query string, period time.Duration, n int) ([]domain.Sample, error) {
	end := time.Now()
	start := end.Add(-period * time.Duration(n))

	samples, err := g.queryRange(ctx, query, start, end, period)
	if err != nil {
		return nil, &domain.MetricFetchError{Op: "WindowQuery", Query: query, Err: err}
	}
	return samples, nil
}

func (g *Gateway) queryRange(ctx context.Context, query string, start, end time.Time, step time.Duration) ([]domain.Sample, error) {
	r := apiv1.Range{Start: start, End: end, Step: step}
	value, warnings, err := g.api.QueryRange(ctx, query, r)
	if err != nil {
		return nil, err
	}
	_ = warnings // surfaced to logs by callers that care; not fatal here

	matrix, ok := value.(model.Matrix)
	if !ok || len(matrix) == 0 {
		return nil, nil
	}

	series := matrix[0]
	out := make([]domain.Sample, 0, len(series.Values))
	for _, v := range series.Values {
		out = append(out, domain.Sample{
			Timestamp: v.Timestamp.Time(),
			Value:     float64(v.Value),
		})
	}
	return out, nil
}
