package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.Simulation.Strategy != "sequential" {
		t.Errorf("expected Strategy 'sequential', got '%s'", config.Simulation.Strategy)
	}
	if config.Simulation.Mode != "direct" {
		t.Errorf("expected Mode 'direct', got '%s'", config.Simulation.Mode)
	}
	if config.Simulation.Ticks != 100 {
		t.Errorf("expected Ticks 100, got %d", config.Simulation.Ticks)
	}
	if config.Simulation.Workers != 0 {
		t.Errorf("expected Workers 0, got %d", config.Simulation.Workers)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
	if config.Trace.Enabled {
		t.Error("expected Trace.Enabled to be false by default")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default() does not validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
simulation:
  strategy: vector
  workers: 6
  mode: resolve
  ticks: 250

logging:
  level: debug

trace:
  enabled: true
  dir: /tmp/llpp-traces
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Simulation.Strategy != "vector" {
		t.Errorf("expected Strategy 'vector', got '%s'", config.Simulation.Strategy)
	}
	if config.Simulation.Workers != 6 {
		t.Errorf("expected Workers 6, got %d", config.Simulation.Workers)
	}
	if config.Simulation.Mode != "resolve" {
		t.Errorf("expected Mode 'resolve', got '%s'", config.Simulation.Mode)
	}
	if config.Simulation.Ticks != 250 {
		t.Errorf("expected Ticks 250, got %d", config.Simulation.Ticks)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected Level 'debug', got '%s'", config.Logging.Level)
	}
	if !config.Trace.Enabled || config.Trace.Dir != "/tmp/llpp-traces" {
		t.Errorf("unexpected trace config %+v", config.Trace)
	}
}

func TestLoadFromFile_PartialKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("simulation:\n  strategy: threads\n"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if config.Simulation.Strategy != "threads" {
		t.Errorf("expected Strategy 'threads', got '%s'", config.Simulation.Strategy)
	}
	if config.Simulation.Ticks != 100 || config.Simulation.Mode != "direct" {
		t.Errorf("defaults lost: %+v", config.Simulation)
	}
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
trace:
  dir: ${TEST_TRACE_HOME}/traces
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("TEST_TRACE_HOME", "/data")

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Trace.Dir != "/data/traces" {
		t.Errorf("expected Trace.Dir '/data/traces', got '%s'", config.Trace.Dir)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("simulation: [unterminated"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	_, err := LoadFromFile(bad)
	if err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LLPP_STRATEGY", "parallel")
	t.Setenv("LLPP_WORKERS", "12")
	t.Setenv("LLPP_MODE", "resolve")
	t.Setenv("LLPP_TICKS", "7")
	t.Setenv("LLPP_LOG_LEVEL", "trace")
	t.Setenv("LLPP_TRACE", "1")
	t.Setenv("LLPP_TRACE_DIR", "/var/llpp")

	config := Default()
	applyEnvOverrides(config)

	if config.Simulation.Strategy != "parallel" {
		t.Errorf("expected Strategy 'parallel', got '%s'", config.Simulation.Strategy)
	}
	if config.Simulation.Workers != 12 {
		t.Errorf("expected Workers 12, got %d", config.Simulation.Workers)
	}
	if config.Simulation.Mode != "resolve" {
		t.Errorf("expected Mode 'resolve', got '%s'", config.Simulation.Mode)
	}
	if config.Simulation.Ticks != 7 {
		t.Errorf("expected Ticks 7, got %d", config.Simulation.Ticks)
	}
	if config.Logging.Level != "trace" {
		t.Errorf("expected Level 'trace', got '%s'", config.Logging.Level)
	}
	if !config.Trace.Enabled {
		t.Error("expected Trace.Enabled from LLPP_TRACE=1")
	}
	if config.Trace.Dir != "/var/llpp" {
		t.Errorf("expected Trace.Dir '/var/llpp', got '%s'", config.Trace.Dir)
	}
}

func TestEnvOverrides_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("LLPP_WORKERS", "many")
	t.Setenv("LLPP_TICKS", "forever")

	config := Default()
	applyEnvOverrides(config)

	if config.Simulation.Workers != 0 || config.Simulation.Ticks != 100 {
		t.Errorf("malformed numbers should be ignored: %+v", config.Simulation)
	}
}

func TestLoad_ExplicitPathThenEnv(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	configPath := filepath.Join(tmpDir, "custom.yaml")
	if err := os.WriteFile(configPath, []byte("simulation:\n  ticks: 9\n"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("LLPP_STRATEGY", "vector")

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Simulation.Ticks != 9 {
		t.Errorf("expected Ticks 9, got %d", config.Simulation.Ticks)
	}
	if config.Simulation.Strategy != "vector" {
		t.Errorf("expected env Strategy 'vector', got '%s'", config.Simulation.Strategy)
	}
}

func TestLoad_DefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load without file failed: %v", err)
	}
	if config.Simulation.Strategy != "sequential" {
		t.Errorf("expected default Strategy, got '%s'", config.Simulation.Strategy)
	}

	path := filepath.Join(home, ".llpp", "config.yaml")
	saved := Default()
	saved.Simulation.Mode = "resolve"
	if err := saved.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	config, err = Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Simulation.Mode != "resolve" {
		t.Errorf("expected Mode from ~/.llpp/config.yaml, got '%s'", config.Simulation.Mode)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*LlppConfig)
		wantErr string
	}{
		{"default", func(c *LlppConfig) {}, ""},
		{"alias strategy", func(c *LlppConfig) { c.Simulation.Strategy = "omp" }, ""},
		{"unknown strategy", func(c *LlppConfig) { c.Simulation.Strategy = "cuda" }, "unknown strategy"},
		{"negative workers", func(c *LlppConfig) { c.Simulation.Workers = -1 }, "workers"},
		{"negative ticks", func(c *LlppConfig) { c.Simulation.Ticks = -5 }, "ticks"},
		{"bad mode", func(c *LlppConfig) { c.Simulation.Mode = "teleport" }, "invalid mode"},
		{"bad level", func(c *LlppConfig) { c.Logging.Level = "loud" }, "invalid log level"},
		{"empty level", func(c *LlppConfig) { c.Logging.Level = "" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestTraceDir(t *testing.T) {
	c := Default()
	if got := c.TraceDir("/proj"); got != filepath.Join("/proj", ".llpp") {
		t.Errorf("TraceDir() = %q, want /proj/.llpp", got)
	}
	c.Trace.Dir = "/elsewhere"
	if got := c.TraceDir("/proj"); got != "/elsewhere" {
		t.Errorf("TraceDir() = %q, want /elsewhere", got)
	}
}
