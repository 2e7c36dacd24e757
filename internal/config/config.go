package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultScrapeInterval = 30 * time.Second
	DefaultSourceTimeout  = 30 * time.Second
	DefaultNodeCacheTTL   = 10 * time.Second
	DefaultNodeCapacity   = 75
	DefaultHTTPPort       = 8080
	DefaultLogLevel       = "info"
	DefaultOCPath         = "oc"
	DefaultNodeSelector   = "k8s.ovn.org/egress-assignable=true"
)

// Config is the top-level configuration for eip-monitor.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Monitor MonitorConfig `yaml:"monitor"`
	Alerts  AlertsConfig  `yaml:"alerts"`
}

// MonitorConfig holds the collection and serving settings.
type MonitorConfig struct {
	// ScrapeInterval controls how often the collect/aggregate/publish
	// cycle runs.
	ScrapeInterval time.Duration `yaml:"scrape_interval"`

	// SourceTimeout bounds each individual cluster query. A query that
	// exceeds it is treated as a failed input, not an indefinite stall.
	SourceTimeout time.Duration `yaml:"source_timeout"`

	// NodeCacheTTL is how long a fetched node list is reused before the
	// collector queries the cluster again.
	NodeCacheTTL time.Duration `yaml:"node_cache_ttl"`

	// NodeCapacity is the estimated maximum egress IPs a single node can
	// host. ARO clusters have an undocumented per-node limit tied to the
	// load-balancer backend pool; 75 is the working estimate.
	NodeCapacity int `yaml:"node_capacity"`

	// NodeSelector is the label selector identifying egress-assignable nodes.
	NodeSelector string `yaml:"node_selector"`

	// OCPath is the cluster CLI binary used for snapshot queries.
	OCPath string `yaml:"oc_path"`

	// HTTPPort is the port the metrics and API server listens on.
	HTTPPort int `yaml:"http_port"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`
}

// AlertsConfig holds all alerting rules and webhook targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines a threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier.
	Name string `yaml:"name"`

	// Condition is an expression like "health_score < 50" or
	// "mismatch_total > 0".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the YAML config file at path, then applies
// environment-variable overrides. Missing optional fields are filled with
// defaults. An empty path skips the file and returns defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Monitor: MonitorConfig{
			ScrapeInterval: DefaultScrapeInterval,
			SourceTimeout:  DefaultSourceTimeout,
			NodeCacheTTL:   DefaultNodeCacheTTL,
			NodeCapacity:   DefaultNodeCapacity,
			NodeSelector:   DefaultNodeSelector,
			OCPath:         DefaultOCPath,
			HTTPPort:       DefaultHTTPPort,
			LogLevel:       DefaultLogLevel,
		},
	}
}

// applyEnv layers the recognized environment variables over cfg. Invalid
// values are logged and ignored, keeping the prior (file or default) value.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SCRAPE_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Monitor.ScrapeInterval = time.Duration(secs) * time.Second
		} else {
			slog.Warn("config: invalid SCRAPE_INTERVAL, keeping previous value", "value", v)
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 && port < 65536 {
			cfg.Monitor.HTTPPort = port
		} else {
			slog.Warn("config: invalid PORT, keeping previous value", "value", v)
		}
	}
	if v := os.Getenv("NODE_CAPACITY"); v != "" {
		if capacity, err := strconv.Atoi(v); err == nil && capacity > 0 {
			cfg.Monitor.NodeCapacity = capacity
		} else {
			slog.Warn("config: invalid NODE_CAPACITY, keeping previous value", "value", v)
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Monitor.LogLevel = v
	}
}

// validate checks structural constraints. Node capacity is repaired to the
// default rather than failing, so a bad estimate never stops the monitor.
func validate(cfg *Config) error {
	if cfg.Monitor.ScrapeInterval <= 0 {
		return fmt.Errorf("monitor.scrape_interval must be positive")
	}
	if cfg.Monitor.SourceTimeout <= 0 {
		return fmt.Errorf("monitor.source_timeout must be positive")
	}
	if cfg.Monitor.NodeCacheTTL <= 0 {
		return fmt.Errorf("monitor.node_cache_ttl must be positive")
	}
	if cfg.Monitor.HTTPPort <= 0 || cfg.Monitor.HTTPPort > 65535 {
		return fmt.Errorf("monitor.http_port must be in 1..65535")
	}
	if cfg.Monitor.NodeCapacity <= 0 {
		slog.Warn("config: invalid node_capacity, falling back to default",
			"value", cfg.Monitor.NodeCapacity, "default", DefaultNodeCapacity)
		cfg.Monitor.NodeCapacity = DefaultNodeCapacity
	}
	switch cfg.Monitor.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("monitor.log_level %q is not one of debug|info|warn|error", cfg.Monitor.LogLevel)
	}
	for i, rule := range cfg.Alerts.Rules {
		if rule.Name == "" {
			return fmt.Errorf("alerts.rules[%d]: name is required", i)
		}
		if rule.Condition == "" {
			return fmt.Errorf("alerts.rules[%d] %q: condition is required", i, rule.Name)
		}
	}
	for i, wh := range cfg.Alerts.Webhooks {
		switch wh.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d]: unknown type %q", i, wh.Type)
		}
	}
	return nil
}

// Level converts the configured log level name to a slog.Level.
func (m MonitorConfig) Level() slog.Level {
	switch m.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
