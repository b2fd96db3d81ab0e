package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// newTestRootCmd creates a root command with persistent flags for testing subcommands
func newTestRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "llpp",
		SilenceUsage: true,
	}
	addPersistentFlags(rootCmd)
	return rootCmd
}

// isolateHome sets HOME to a temp directory to avoid reading the real ~/.llpp/config.yaml.
// MUST be called by any test that loads configuration.
func isolateHome(t *testing.T, tmpDir string) {
	t.Helper()
	tmpHome := filepath.Join(tmpDir, "home")
	if err := os.MkdirAll(tmpHome, 0700); err != nil {
		t.Fatalf("Failed to create temp home: %v", err)
	}
	t.Setenv("HOME", tmpHome)
	for _, key := range []string{"LLPP_STRATEGY", "LLPP_WORKERS", "LLPP_MODE", "LLPP_TICKS", "LLPP_LOG_LEVEL", "LLPP_TRACE", "LLPP_TRACE_DIR"} {
		t.Setenv(key, "")
	}
}

// executeCmd runs args against a fresh command tree and returns stdout.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newCompareCmd(),
		newViewCmd(),
		newTraceCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	stdout := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	if cmd.Use != "llpp" {
		t.Errorf("Use = %q, want %q", cmd.Use, "llpp")
	}

	want := []string{"version", "run", "compare", "view", "trace", "config", "mcp-server"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}

	for _, flag := range []string{"json", "root", "config", "log-level"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := executeCmd(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "llpp version "+version) {
		t.Errorf("output = %q", out)
	}

	out, err = executeCmd(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json error = %v", err)
	}
	if !strings.Contains(out, `"version":"`+version+`"`) {
		t.Errorf("json output = %q", out)
	}
}

func TestLoadEnv_InvalidLogLevel(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	_, err := executeCmd(t, "run", "--root", tmpDir, "--log-level", "loud", "--ticks", "1")
	if err == nil || !strings.Contains(err.Error(), "invalid log level") {
		t.Errorf("expected invalid log level error, got %v", err)
	}
}

func TestLoadEnv_DebugWritesDecisions(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	_, err := executeCmd(t, "run", "--root", tmpDir, "--log-level", "debug",
		"--agents", "4", "--ticks", "3", "--mode", "resolve")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, ".llpp", "decisions.jsonl"))
	if err != nil {
		t.Fatalf("decision log not written: %v", err)
	}
	if !strings.Contains(string(data), `"event":"run"`) {
		t.Errorf("decision log missing run summary: %s", data)
	}
}
