package daemon

import (
	"os"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scaling.TargetCPUUtilization != 75 {
		t.Errorf("Scaling.TargetCPUUtilization = %d, want 75", cfg.Scaling.TargetCPUUtilization)
	}
	if cfg.Scaling.MinReplicas != 1 {
		t.Errorf("Scaling.MinReplicas = %d, want 1", cfg.Scaling.MinReplicas)
	}
	if cfg.Scaling.MaxReplicas != 15 {
		t.Errorf("Scaling.MaxReplicas = %d, want 15", cfg.Scaling.MaxReplicas)
	}
	if cfg.Scaling.MetricPeriodSeconds != 30 {
		t.Errorf("Scaling.MetricPeriodSeconds = %d, want 30", cfg.Scaling.MetricPeriodSeconds)
	}
	if cfg.Logging.Dir != "log" {
		t.Errorf("Logging.Dir = %q, want %q", cfg.Logging.Dir, "log")
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"NAMESPACE":     "prod",
		"DEPLOYMENT":    "checkout",
		"CONTAINER":     "app",
		"APP_NAME":      "checkout-svc",
		"PROMETHEUS_IP": "http://prometheus.monitoring:9090",
	} {
		t.Setenv(k, v)
	}
}

func TestLoad_RequiredEnvVars(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workload.Namespace != "prod" {
		t.Errorf("Namespace = %q, want %q", cfg.Workload.Namespace, "prod")
	}
	if cfg.Prometheus.URL != "http://prometheus.monitoring:9090" {
		t.Errorf("Prometheus.URL = %q", cfg.Prometheus.URL)
	}
}

func TestLoad_MissingRequiredEnvFails(t *testing.T) {
	os.Unsetenv("NAMESPACE")
	os.Unsetenv("DEPLOYMENT")
	os.Unsetenv("CONTAINER")
	os.Unsetenv("APP_NAME")
	os.Unsetenv("PROMETHEUS_IP")

	if _, err := Load(""); err == nil {
		t.Fatal("Load() with no env vars set: want error, got nil")
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TARGET_CPU_UTILIZATION", "60")
	t.Setenv("MAX_REPLICAS", "30")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scaling.TargetCPUUtilization != 60 {
		t.Errorf("TargetCPUUtilization = %d, want 60", cfg.Scaling.TargetCPUUtilization)
	}
	if cfg.Scaling.MaxReplicas != 30 {
		t.Errorf("MaxReplicas = %d, want 30", cfg.Scaling.MaxReplicas)
	}
}

func TestLoad_InvalidIntEnvFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MIN_REPLICAS", "not-a-number")

	if _, err := Load(""); err == nil {
		t.Fatal("Load() with non-numeric MIN_REPLICAS: want error, got nil")
	}
}

func TestToAutoscalerConfig(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ac := cfg.ToAutoscalerConfig()
	if err := ac.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
