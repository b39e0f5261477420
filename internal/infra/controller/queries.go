package controller

import "fmt"

// These PromQL forms are reproduced verbatim from spec.md §6 /
// original_source/api/metrics.py; "Ps" is the period in seconds
// substituted into the range-vector selector. The current-replicas query
// lives in internal/infra/scalergw instead, next to the gateway that reads it.

func cpuUtilizationQuery(deployment, container string, periodSeconds int) string {
	return fmt.Sprintf(
		`(sum(rate(container_cpu_usage_seconds_total{cpu="total", pod=~"%s-.*", container="%s"}[%ds])) * 1000) / (sum(container_spec_cpu_quota{container="%s"} / 100)) * 100`,
		deployment, container, periodSeconds, container,
	)
}

func requestCountQuery(appName string, periodSeconds int) string {
	return fmt.Sprintf(`sum(increase(istio_requests_total{app="%s"}[%ds])) by (app)`, appName, periodSeconds)
}
