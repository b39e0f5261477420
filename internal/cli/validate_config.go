package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/client-go/kubernetes"

	"github.com/kdgyun/lare-hpa-go/internal/daemon"
	"github.com/kdgyun/lare-hpa-go/internal/infra/metricsgw"
	"github.com/kdgyun/lare-hpa-go/internal/infra/scalergw"
)

func init() {
	rootCmd.AddCommand(validateConfigCmd)
	validateConfigCmd.Flags().String("config", "", "path to an optional TOML config file")
	validateConfigCmd.Flags().String("kubeconfig", "", "path to a kubeconfig file")
	validateConfigCmd.Flags().Bool("probe", false, "also probe Prometheus and Kubernetes connectivity")
}

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Validate configuration and (optionally) backend connectivity",
	RunE:  runValidateConfig,
}

func runValidateConfig(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	kubeconfigPath, _ := cmd.Flags().GetString("kubeconfig")
	probe, _ := cmd.Flags().GetBool("probe")

	cfg, err := daemon.Load(configPath)
	if err != nil {
		return fmt.Errorf("validate-config: %w", err)
	}
	acfg := cfg.ToAutoscalerConfig()
	if err := acfg.Validate(); err != nil {
		return fmt.Errorf("validate-config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "config OK: namespace=%s deployment=%s target_cpu=%.1f min=%d max=%d period=%ds\n",
		acfg.Namespace, acfg.Deployment, acfg.InitialTargetCPU, acfg.MinReplicas, acfg.MaxReplicas, acfg.Period)

	if !probe {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	metricsGW, err := metricsgw.New(cfg.Prometheus.URL)
	if err != nil {
		return fmt.Errorf("validate-config: prometheus: %w", err)
	}
	if _, err := metricsGW.PointQuery(ctx, "up", cfg.Period()); err != nil {
		return fmt.Errorf("validate-config: prometheus unreachable: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "prometheus OK")

	restCfg, err := scalergw.ResolveConfig(kubeconfigPath)
	if err != nil {
		return fmt.Errorf("validate-config: kubernetes config: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return fmt.Errorf("validate-config: kubernetes client: %w", err)
	}
	scalerGW := scalergw.New(clientset, metricsGW)
	if _, err := scalerGW.GetScale(ctx, acfg.Namespace, acfg.Deployment); err != nil {
		return fmt.Errorf("validate-config: deployment unreachable: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "kubernetes OK")

	return nil
}
