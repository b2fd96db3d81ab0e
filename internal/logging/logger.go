// Package logging provides leveled logging and the collision decision trace.
//
// Operational output goes to a leveled slog.Logger on stderr. Collision
// decisions and run summaries go to a DecisionLogger, one JSON object per
// line in .llpp/decisions.jsonl, when the level is debug or trace.
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robertpaananen/llpp/internal/constants"
)

// LevelTrace sits below Debug. At this level the model logs every agent's
// position after every tick.
const LevelTrace = slog.LevelDebug - 4

var levels = map[string]slog.Level{
	"warn":  slog.LevelWarn,
	"info":  slog.LevelInfo,
	"debug": slog.LevelDebug,
	"trace": LevelTrace,
}

// ParseLevel maps warn, info, debug or trace (any case) to a slog.Level.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	if lvl, ok := levels[strings.ToLower(s)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// labelTrace prints LevelTrace as TRACE instead of slog's DEBUG-4.
func labelTrace(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

// NewLogger returns a text logger on w filtered at level.
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: labelTrace,
	}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// DecisionLogger appends collision decisions and run summaries to a JSONL
// file. It is safe for concurrent use, and every method is a no-op on a nil
// receiver so callers never need to check whether decision logging is on.
type DecisionLogger struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	entries int
}

// NewDecisionLogger opens dir/decisions.jsonl for append when level is debug
// or trace. It returns nil at quieter levels or when the file cannot be
// opened.
func NewDecisionLogger(dir string, level string) *DecisionLogger {
	if ParseLevel(level) > slog.LevelDebug {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, constants.DecisionLogName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &DecisionLogger{path: path, file: f}
}

// Path returns the file being written, or "" for a nil logger.
func (dl *DecisionLogger) Path() string {
	if dl == nil {
		return ""
	}
	return dl.path
}

// Log appends event with a "time" field. The caller's map is left untouched.
func (dl *DecisionLogger) Log(event map[string]any) {
	if dl == nil {
		return
	}

	entry := maps.Clone(event)
	if entry == nil {
		entry = make(map[string]any, 1)
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	line = append(line, '\n')

	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.file == nil {
		return
	}
	if _, err := dl.file.Write(line); err == nil {
		dl.entries++
	}
}

// Entries returns the number of lines written since the logger was opened.
func (dl *DecisionLogger) Entries() int {
	if dl == nil {
		return 0
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.entries
}

// Close closes the file. Later calls to Log are dropped.
func (dl *DecisionLogger) Close() {
	if dl == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.file != nil {
		dl.file.Close()
		dl.file = nil
	}
}
