// Package daemon assembles the controller's process configuration from
// defaults, an optional TOML override file, and environment variables
// (spec.md §6), in that precedence order — environment always wins. The
// shape (nested sub-structs, a DefaultConfig constructor, a small integer
// env parser) follows the teacher's own daemon config
// (internal/daemon/config_test.go), repurposed from Ollama-compatible
// server settings to this controller's workload identity and scaling
// bounds.
package daemon

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/kdgyun/lare-hpa-go/internal/domain"
)

// Workload identifies the target deployment (spec.md §3 AutoscalerConfig
// workload-identity fields).
type Workload struct {
	Namespace  string `toml:"namespace"`
	Deployment string `toml:"deployment"`
	AppName    string `toml:"app_name"`
	Container  string `toml:"container"`
}

// Scaling holds the replica bounds, tick cadence, and initial target CPU
// (spec.md §3 AutoscalerConfig policy fields).
type Scaling struct {
	TargetCPUUtilization int `toml:"target_cpu_utilization"`
	MinReplicas          int `toml:"min_replicas"`
	MaxReplicas          int `toml:"max_replicas"`
	MetricPeriodSeconds  int `toml:"metric_period_seconds"`
}

// Prometheus holds the metric backend location.
type Prometheus struct {
	URL string `toml:"url"`
}

// Logging holds the log-sink directory (spec.md §6: "file names and
// directory are implementation details").
type Logging struct {
	Dir string `toml:"dir"`
}

// Store holds the decision-log database path.
type Store struct {
	SQLitePath string `toml:"sqlite_path"`
}

// OpsServer holds the ops HTTP surface bind address (/healthz, /metrics).
type OpsServer struct {
	Addr string `toml:"addr"`
}

// Config is the full process configuration.
type Config struct {
	Workload   Workload   `toml:"workload"`
	Scaling    Scaling    `toml:"scaling"`
	Prometheus Prometheus `toml:"prometheus"`
	Logging    Logging    `toml:"logging"`
	Store      Store      `toml:"store"`
	OpsServer  OpsServer  `toml:"ops_server"`
}

// DefaultConfig returns the spec.md §6 defaults: target 75, min 1, max 15,
// period 30s.
func DefaultConfig() Config {
	return Config{
		Scaling: Scaling{
			TargetCPUUtilization: 75,
			MinReplicas:          1,
			MaxReplicas:          15,
			MetricPeriodSeconds:  30,
		},
		Logging: Logging{
			Dir: "log",
		},
		Store: Store{
			SQLitePath: "lare-hpa-decisions.db",
		},
		OpsServer: OpsServer{
			Addr: "127.0.0.1:9090",
		},
	}
}

// Load builds a Config from defaults, an optional TOML file (tomlPath, if
// non-empty and present), then environment variables, in that order of
// increasing precedence.
func Load(tomlPath string) (Config, error) {
	cfg := DefaultConfig()

	if tomlPath != "" {
		if _, err := os.Stat(tomlPath); err == nil {
			if _, err := toml.DecodeFile(tomlPath, &cfg); err != nil {
				return Config{}, &domain.ConfigError{Field: "toml:" + tomlPath, Err: err}
			}
		}
	}

	if err := overlayEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// overlayEnv applies spec.md §6's environment variables over cfg. The four
// workload-identity vars and PROMETHEUS_IP are required (each must end up
// non-empty, from the environment or the TOML file); the rest are optional
// and keep their current (default or TOML-provided) value when unset.
func overlayEnv(cfg *Config) error {
	required := map[string]*string{
		"NAMESPACE":  &cfg.Workload.Namespace,
		"DEPLOYMENT": &cfg.Workload.Deployment,
		"CONTAINER":  &cfg.Workload.Container,
		"APP_NAME":   &cfg.Workload.AppName,
	}
	for name, dst := range required {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
		if *dst == "" {
			return &domain.ConfigError{Field: name, Err: domain.ErrConfigMissing}
		}
	}

	prometheusIP, ok := os.LookupEnv("PROMETHEUS_IP")
	if ok && prometheusIP != "" {
		cfg.Prometheus.URL = prometheusIP
	}
	if cfg.Prometheus.URL == "" {
		return &domain.ConfigError{Field: "PROMETHEUS_IP", Err: domain.ErrConfigMissing}
	}

	if v, err := envInt("TARGET_CPU_UTILIZATION"); err != nil {
		return err
	} else if v != nil {
		cfg.Scaling.TargetCPUUtilization = *v
	}
	if v, err := envInt("MIN_REPLICAS"); err != nil {
		return err
	} else if v != nil {
		cfg.Scaling.MinReplicas = *v
	}
	if v, err := envInt("MAX_REPLICAS"); err != nil {
		return err
	} else if v != nil {
		cfg.Scaling.MaxReplicas = *v
	}
	if v, err := envInt("METRIC_PERIOD"); err != nil {
		return err
	} else if v != nil {
		cfg.Scaling.MetricPeriodSeconds = *v
	}

	return nil
}

// envInt reads an optional integer env var, returning nil if unset.
func envInt(name string) (*int, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &domain.ConfigError{Field: name, Err: fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)}
	}
	return &v, nil
}

// ToAutoscalerConfig builds the domain-level immutable autoscaler config.
func (c Config) ToAutoscalerConfig() domain.AutoscalerConfig {
	return domain.AutoscalerConfig{
		Namespace:        c.Workload.Namespace,
		Deployment:       c.Workload.Deployment,
		AppName:          c.Workload.AppName,
		Container:        c.Workload.Container,
		MinReplicas:      c.Scaling.MinReplicas,
		MaxReplicas:      c.Scaling.MaxReplicas,
		Period:           c.Scaling.MetricPeriodSeconds,
		InitialTargetCPU: float64(c.Scaling.TargetCPUUtilization),
	}
}

// Period returns the scaling cadence as a time.Duration.
func (c Config) Period() time.Duration {
	return time.Duration(c.Scaling.MetricPeriodSeconds) * time.Second
}
