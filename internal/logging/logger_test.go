package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/robertpaananen/llpp/internal/constants"
)

// readDecisions parses every line of the decision log in dir.
func readDecisions(t *testing.T, dir string) []map[string]any {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, constants.DecisionLogName))
	if err != nil {
		t.Fatalf("open decision log: %v", err)
	}
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("line %d is not JSON: %v (%q)", len(out)+1, err, sc.Text())
		}
		out = append(out, entry)
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"warn", slog.LevelWarn},
		{"info", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"Debug", slog.LevelDebug},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
	if LevelTrace >= slog.LevelDebug {
		t.Errorf("LevelTrace (%d) must be below LevelDebug", LevelTrace)
	}
}

func TestNewLogger_TickLevels(t *testing.T) {
	tests := []struct {
		level        string
		wantSetup    bool
		wantTick     bool
		wantPosition bool
	}{
		{"warn", false, false, false},
		{"info", true, false, false},
		{"debug", true, true, false},
		{"trace", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)
			ctx := context.Background()

			logger.Info("model setup", "agents", 4)
			logger.Debug("tick", "tick", 1)
			logger.Log(ctx, LevelTrace, "position", "tick", 1, "agent", 0, "x", 3, "y", -2)

			out := buf.String()
			if got := strings.Contains(out, "model setup"); got != tt.wantSetup {
				t.Errorf("setup logged = %v, want %v", got, tt.wantSetup)
			}
			if got := strings.Contains(out, "msg=tick"); got != tt.wantTick {
				t.Errorf("tick logged = %v, want %v", got, tt.wantTick)
			}
			if got := strings.Contains(out, "msg=position"); got != tt.wantPosition {
				t.Errorf("position logged = %v, want %v", got, tt.wantPosition)
			}
		})
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("trace", &buf).Log(context.Background(), LevelTrace, "position", "agent", 2)

	out := buf.String()
	if !strings.Contains(out, "level=TRACE") {
		t.Errorf("expected level=TRACE, got %q", out)
	}
	if strings.Contains(out, "DEBUG-4") {
		t.Errorf("raw slog level leaked into output: %q", out)
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("Discard() should not be enabled at error level")
	}
}

func TestNewDecisionLogger_QuietLevels(t *testing.T) {
	for _, level := range []string{"warn", "info", ""} {
		t.Run(level, func(t *testing.T) {
			dir := t.TempDir()
			dl := NewDecisionLogger(dir, level)
			if dl != nil {
				t.Fatalf("NewDecisionLogger(%q) = %v, want nil", level, dl)
			}
			dl.Log(map[string]any{"event": "resolve"})
			dl.Close()
			if dl.Entries() != 0 || dl.Path() != "" {
				t.Error("nil logger should report no entries and no path")
			}
			if _, err := os.Stat(filepath.Join(dir, constants.DecisionLogName)); !os.IsNotExist(err) {
				t.Errorf("decision log created at %s level", level)
			}
		})
	}
}

func TestDecisionLogger_ResolveAndRunEvents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".llpp")
	dl := NewDecisionLogger(dir, "debug")
	if dl == nil {
		t.Fatal("NewDecisionLogger returned nil at debug level")
	}
	defer dl.Close()

	if want := filepath.Join(dir, constants.DecisionLogName); dl.Path() != want {
		t.Errorf("Path() = %q, want %q", dl.Path(), want)
	}

	dl.Log(map[string]any{
		"event":      "resolve",
		"from":       "(5,5)",
		"desired":    "(6,6)",
		"candidate":  1,
		"neighbors":  3,
		"stationary": false,
	})
	dl.Log(map[string]any{
		"event":      "resolve",
		"from":       "(0,0)",
		"desired":    "(1,0)",
		"candidate":  -1,
		"neighbors":  4,
		"stationary": true,
	})
	dl.Log(map[string]any{"event": "run", "scenario": "corridor", "strategy": "threads", "ticks": 20})

	if got := dl.Entries(); got != 3 {
		t.Errorf("Entries() = %d, want 3", got)
	}

	entries := readDecisions(t, dir)
	if len(entries) != 3 {
		t.Fatalf("got %d lines, want 3", len(entries))
	}
	if entries[0]["desired"] != "(6,6)" || entries[0]["candidate"] != float64(1) {
		t.Errorf("first decision = %v", entries[0])
	}
	if entries[1]["stationary"] != true || entries[1]["candidate"] != float64(-1) {
		t.Errorf("stationary decision = %v", entries[1])
	}
	if entries[2]["event"] != "run" || entries[2]["scenario"] != "corridor" {
		t.Errorf("run summary = %v", entries[2])
	}
	for i, e := range entries {
		if _, ok := e["time"].(string); !ok {
			t.Errorf("line %d has no time field", i+1)
		}
	}
}

func TestDecisionLogger_AppendsAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	first := NewDecisionLogger(dir, "trace")
	first.Log(map[string]any{"event": "run", "strategy": "sequential"})
	first.Close()

	second := NewDecisionLogger(dir, "debug")
	second.Log(map[string]any{"event": "run", "strategy": "vector"})
	second.Close()

	if second.Entries() != 1 {
		t.Errorf("Entries() counts only this logger's lines, got %d", second.Entries())
	}
	entries := readDecisions(t, dir)
	if len(entries) != 2 || entries[0]["strategy"] != "sequential" || entries[1]["strategy"] != "vector" {
		t.Errorf("decision log = %v", entries)
	}
}

func TestDecisionLogger_ConcurrentResolvers(t *testing.T) {
	dir := t.TempDir()
	dl := NewDecisionLogger(dir, "debug")
	defer dl.Close()

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				dl.Log(map[string]any{"event": "resolve", "agent": w*perWorker + i})
			}
		}()
	}
	wg.Wait()

	if got := dl.Entries(); got != workers*perWorker {
		t.Errorf("Entries() = %d, want %d", got, workers*perWorker)
	}
	if got := len(readDecisions(t, dir)); got != workers*perWorker {
		t.Errorf("decision log has %d lines, want %d", got, workers*perWorker)
	}
}

func TestDecisionLogger_AfterClose(t *testing.T) {
	dir := t.TempDir()
	dl := NewDecisionLogger(dir, "debug")
	dl.Log(map[string]any{"event": "run"})
	dl.Close()
	dl.Close()
	dl.Log(map[string]any{"event": "dropped"})

	if dl.Entries() != 1 {
		t.Errorf("Entries() = %d after close, want 1", dl.Entries())
	}
	if n := len(readDecisions(t, dir)); n != 1 {
		t.Errorf("decision log has %d lines, want 1", n)
	}
}

func TestDecisionLogger_KeepsCallerMap(t *testing.T) {
	dl := NewDecisionLogger(t.TempDir(), "debug")
	defer dl.Close()

	event := map[string]any{"event": "resolve"}
	dl.Log(event)
	dl.Log(nil)

	if _, ok := event["time"]; ok {
		t.Error("Log() added time to the caller's map")
	}
	if dl.Entries() != 2 {
		t.Errorf("Entries() = %d, want 2", dl.Entries())
	}
}
