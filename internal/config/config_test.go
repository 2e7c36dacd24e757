package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Monitor.ScrapeInterval != DefaultScrapeInterval {
		t.Errorf("ScrapeInterval: got %v, want %v", cfg.Monitor.ScrapeInterval, DefaultScrapeInterval)
	}
	if cfg.Monitor.NodeCacheTTL != DefaultNodeCacheTTL {
		t.Errorf("NodeCacheTTL: got %v, want %v", cfg.Monitor.NodeCacheTTL, DefaultNodeCacheTTL)
	}
	if cfg.Monitor.NodeCapacity != DefaultNodeCapacity {
		t.Errorf("NodeCapacity: got %d, want %d", cfg.Monitor.NodeCapacity, DefaultNodeCapacity)
	}
	if cfg.Monitor.NodeSelector != DefaultNodeSelector {
		t.Errorf("NodeSelector: got %q, want %q", cfg.Monitor.NodeSelector, DefaultNodeSelector)
	}
	if cfg.Monitor.HTTPPort != DefaultHTTPPort {
		t.Errorf("HTTPPort: got %d, want %d", cfg.Monitor.HTTPPort, DefaultHTTPPort)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
monitor:
  scrape_interval: 15s
  node_capacity: 40
  log_level: debug
alerts:
  rules:
    - name: health-degraded
      condition: "health_score < 50"
      severity: warning
      cooldown: 5m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Monitor.ScrapeInterval != 15*time.Second {
		t.Errorf("ScrapeInterval: got %v, want 15s", cfg.Monitor.ScrapeInterval)
	}
	if cfg.Monitor.NodeCapacity != 40 {
		t.Errorf("NodeCapacity: got %d, want 40", cfg.Monitor.NodeCapacity)
	}
	// Omitted fields keep their defaults.
	if cfg.Monitor.SourceTimeout != DefaultSourceTimeout {
		t.Errorf("SourceTimeout: got %v, want default %v", cfg.Monitor.SourceTimeout, DefaultSourceTimeout)
	}
	if len(cfg.Alerts.Rules) != 1 || cfg.Alerts.Rules[0].Name != "health-degraded" {
		t.Errorf("Rules: got %+v", cfg.Alerts.Rules)
	}
	if cfg.Alerts.Rules[0].Cooldown != 5*time.Minute {
		t.Errorf("Cooldown: got %v, want 5m", cfg.Alerts.Rules[0].Cooldown)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "monitor: [this is not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SCRAPE_INTERVAL", "60")
	t.Setenv("PORT", "9090")
	t.Setenv("NODE_CAPACITY", "100")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Monitor.ScrapeInterval != 60*time.Second {
		t.Errorf("ScrapeInterval: got %v, want 60s", cfg.Monitor.ScrapeInterval)
	}
	if cfg.Monitor.HTTPPort != 9090 {
		t.Errorf("HTTPPort: got %d, want 9090", cfg.Monitor.HTTPPort)
	}
	if cfg.Monitor.NodeCapacity != 100 {
		t.Errorf("NodeCapacity: got %d, want 100", cfg.Monitor.NodeCapacity)
	}
	if cfg.Monitor.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want debug", cfg.Monitor.LogLevel)
	}
}

func TestLoad_InvalidEnvIgnored(t *testing.T) {
	t.Setenv("SCRAPE_INTERVAL", "not-a-number")
	t.Setenv("PORT", "-1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Monitor.ScrapeInterval != DefaultScrapeInterval {
		t.Errorf("ScrapeInterval: got %v, want default kept", cfg.Monitor.ScrapeInterval)
	}
	if cfg.Monitor.HTTPPort != DefaultHTTPPort {
		t.Errorf("HTTPPort: got %d, want default kept", cfg.Monitor.HTTPPort)
	}
}

func TestValidate_RepairsNodeCapacity(t *testing.T) {
	path := writeConfig(t, `
monitor:
  node_capacity: -5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Monitor.NodeCapacity != DefaultNodeCapacity {
		t.Errorf("NodeCapacity: got %d, want repaired to %d", cfg.Monitor.NodeCapacity, DefaultNodeCapacity)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"zero interval", "monitor:\n  scrape_interval: 0s\n"},
		{"bad port", "monitor:\n  http_port: 70000\n"},
		{"bad log level", "monitor:\n  log_level: loud\n"},
		{"rule without name", "alerts:\n  rules:\n    - condition: \"health_score < 50\"\n"},
		{"rule without condition", "alerts:\n  rules:\n    - name: x\n"},
		{"unknown webhook type", "alerts:\n  webhooks:\n    - type: carrier-pigeon\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.yaml)
			if _, err := Load(path); err == nil {
				t.Errorf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, want := range cases {
		m := MonitorConfig{LogLevel: name}
		if got := m.Level(); got != want {
			t.Errorf("Level(%q): got %v, want %v", name, got, want)
		}
	}
}

func TestWebhookURL(t *testing.T) {
	t.Setenv("TEST_HOOK_URL", "https://example.com/hook")

	w := WebhookConfig{Type: "slack", URLEnv: "TEST_HOOK_URL"}
	if got := w.URL(); got != "https://example.com/hook" {
		t.Errorf("URL: got %q", got)
	}
	if got := (WebhookConfig{}).URL(); got != "" {
		t.Errorf("URL without env: got %q, want empty", got)
	}
}
