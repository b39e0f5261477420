package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/client-go/kubernetes"

	"github.com/kdgyun/lare-hpa-go/internal/api"
	"github.com/kdgyun/lare-hpa-go/internal/daemon"
	"github.com/kdgyun/lare-hpa-go/internal/infra/controller"
	"github.com/kdgyun/lare-hpa-go/internal/infra/decisionlog"
	"github.com/kdgyun/lare-hpa-go/internal/infra/metricsgw"
	"github.com/kdgyun/lare-hpa-go/internal/infra/obslog"
	"github.com/kdgyun/lare-hpa-go/internal/infra/observability"
	"github.com/kdgyun/lare-hpa-go/internal/infra/scalergw"
)

const shutdownTimeout = 5 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", "", "path to an optional TOML config file")
	serveCmd.Flags().String("kubeconfig", "", "path to a kubeconfig file (defaults to in-cluster, then $KUBECONFIG)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the autoscaler controller until interrupted",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	kubeconfigPath, _ := cmd.Flags().GetString("kubeconfig")

	cfg, err := daemon.Load(configPath)
	if err != nil {
		return fmt.Errorf("serve: load config: %w", err)
	}
	acfg := cfg.ToAutoscalerConfig()
	if err := acfg.Validate(); err != nil {
		return fmt.Errorf("serve: invalid config: %w", err)
	}

	logs, err := obslog.Open(cfg.Logging.Dir)
	if err != nil {
		return fmt.Errorf("serve: open logs: %w", err)
	}
	defer logs.Close()

	metricsGW, err := metricsgw.New(cfg.Prometheus.URL)
	if err != nil {
		return fmt.Errorf("serve: connect prometheus: %w", err)
	}

	restCfg, err := scalergw.ResolveConfig(kubeconfigPath)
	if err != nil {
		return fmt.Errorf("serve: resolve kubernetes config: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return fmt.Errorf("serve: build kubernetes client: %w", err)
	}
	scalerGW := scalergw.New(clientset, metricsGW)

	decisions, err := decisionlog.Open(cfg.Store.SQLitePath)
	if err != nil {
		return fmt.Errorf("serve: open decision log: %w", err)
	}
	defer decisions.Close()

	tracer := observability.NewTracer(observability.DefaultTracerConfig())

	ctrl := controller.New(acfg, metricsGW, scalerGW, logs, tracer, decisions)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl.Start(ctx)
	logs.General().Printf("controller started: namespace=%s deployment=%s period=%ds", acfg.Namespace, acfg.Deployment, acfg.Period)

	opsServer := &http.Server{Addr: cfg.OpsServer.Addr, Handler: api.NewServer(ctrl).Handler()}
	go func() {
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Err().Printf("ops server: %v", err)
		}
	}()

	<-ctx.Done()
	logs.General().Printf("controller shutting down")
	ctrl.Stop()
	ctrl.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	opsServer.Shutdown(shutdownCtx)

	return nil
}
