// Package scalergw implements domain.ScalerGateway against a Kubernetes
// cluster via k8s.io/client-go. Reads of the current replica count go
// through the same kube-state-metrics Prometheus series the original
// controller used (original_source/api/metrics.py get_current_replicas
// queries "kube_deployment_status_replicas", it never calls the
// Kubernetes API for this), while writes patch the Deployment's scale
// subresource directly, the way a real HPA controller would.
package scalergw

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	autoscalingv1 "k8s.io/api/autoscaling/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"

	"github.com/kdgyun/lare-hpa-go/internal/domain"
)

// replicasQueryFmt mirrors original_source/api/metrics.py's
// get_current_replicas: one kube_deployment_status_replicas series
// filtered by namespace and deployment.
const replicasQueryFmt = `kube_deployment_status_replicas{namespace="%s", deployment="%s"}`

// Gateway patches a Deployment's scale subresource and reads its observed
// replica count from Prometheus.
type Gateway struct {
	clientset kubernetes.Interface
	metrics   domain.MetricsGateway
}

// New wires a Kubernetes clientset (for writes) to a MetricsGateway (for
// reads, per the original controller's behavior).
func New(clientset kubernetes.Interface, metrics domain.MetricsGateway) *Gateway {
	return &Gateway{clientset: clientset, metrics: metrics}
}

// GetReplicas returns the current observed replica count, clamped to at
// least 1 (spec.md §4.2).
func (g *Gateway) GetReplicas(ctx context.Context, namespace, deployment string, period time.Duration) (int, error) {
	query := fmt.Sprintf(replicasQueryFmt, namespace, deployment)
	v, err := g.metrics.PointQuery(ctx, query, period)
	if err != nil {
		return 0, &domain.MetricFetchError{Op: "GetReplicas", Query: query, Err: err}
	}
	replicas := int(v)
	if replicas < 1 {
		replicas = 1
	}
	return replicas, nil
}

// scalePatch is the JSON merge patch body for the scale subresource.
type scalePatch struct {
	Spec struct {
		Replicas int32 `json:"replicas"`
	} `json:"spec"`
}

// SetReplicas applies max(1, replicas) to the Deployment's scale
// subresource (spec.md §4.2).
func (g *Gateway) SetReplicas(ctx context.Context, namespace, deployment string, replicas int) error {
	if replicas < 1 {
		replicas = 1
	}

	var patch scalePatch
	patch.Spec.Replicas = int32(replicas)
	body, err := json.Marshal(patch)
	if err != nil {
		return &domain.ScaleWriteError{Namespace: namespace, Deployment: deployment, Replicas: replicas, Err: err}
	}

	_, err = g.clientset.AppsV1().Deployments(namespace).Patch(
		ctx, deployment, types.MergePatchType, body, metav1.PatchOptions{}, "scale",
	)
	if err != nil {
		return &domain.ScaleWriteError{Namespace: namespace, Deployment: deployment, Replicas: replicas, Err: err}
	}
	return nil
}

// GetScale reads the orchestrator's own view of the scale subresource,
// bypassing Prometheus. Unused by the controller's steady-state loop
// (which follows the original's Prometheus-only reads); called by the
// CLI's validate-config --probe to confirm the deployment's scale
// subresource is reachable before serve starts driving it.
func (g *Gateway) GetScale(ctx context.Context, namespace, deployment string) (*autoscalingv1.Scale, error) {
	scale, err := g.clientset.AppsV1().Deployments(namespace).GetScale(ctx, deployment, metav1.GetOptions{})
	if err != nil {
		return nil, &domain.ScaleWriteError{Namespace: namespace, Deployment: deployment, Err: err}
	}
	return scale, nil
}
