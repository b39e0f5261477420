package scalergw

import (
	"fmt"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ResolveConfig builds a *rest.Config for the target cluster: in-cluster
// config when running inside a pod, falling back to the kubeconfig at
// kubeconfigPath (empty string uses clientcmd's default loading rules,
// i.e. $KUBECONFIG or ~/.kube/config). Cluster authentication plumbing is
// out of scope beyond this — callers own whichever config they get.
func ResolveConfig(kubeconfigPath string) (*rest.Config, error) {
	if cfg, err := rest.InClusterConfig(); err == nil {
		return cfg, nil
	}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		loadingRules.ExplicitPath = kubeconfigPath
	}
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules, &clientcmd.ConfigOverrides{},
	).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("scalergw: resolve kubeconfig: %w", err)
	}
	return cfg, nil
}
