// Package obslog provides the controller's five named log sinks —
// general, error, autoscaler, threshold, and CDT (spec.md §6) — each a
// plain "<timestamp> <level> <message>" line written to its own file.
// This mirrors the original controller's setup_logger/log_init: one
// logging.FileHandler per name (original_source/controllers/controller.py),
// rendered with the standard library's own log.Logger rather than a
// structured-logging package, matching the teacher's own choice of plain
// "log" (internal/app/executor/executor.go never reaches for slog/zap).
package obslog

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Sink names, matching spec.md §6 exactly.
const (
	General    = "general"
	Error      = "error"
	Autoscaler = "autoscaler"
	Threshold  = "threshold"
	CDT        = "CDT"
)

var sinkNames = []string{General, Error, Autoscaler, Threshold, CDT}

// Loggers bundles the five sinks the controller writes to.
type Loggers struct {
	dir   string
	files map[string]*os.File
	logs  map[string]*log.Logger
}

// Open creates (or appends to) one "<sink>.log" file per sink under dir,
// each with its own *log.Logger so callers can write to exactly the sink
// spec.md names.
func Open(dir string) (*Loggers, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("obslog: create log dir %q: %w", dir, err)
	}

	l := &Loggers{
		dir:   dir,
		files: make(map[string]*os.File, len(sinkNames)),
		logs:  make(map[string]*log.Logger, len(sinkNames)),
	}

	for _, name := range sinkNames {
		path := filepath.Join(dir, name+".log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("obslog: open %q: %w", path, err)
		}
		l.files[name] = f
		level := "INFO "
		if name == Error {
			level = "ERROR "
		}
		l.logs[name] = log.New(f, level, log.LstdFlags|log.Lmsgprefix)
	}

	return l, nil
}

// Sink returns the logger for the named sink, or nil if unknown.
func (l *Loggers) Sink(name string) *log.Logger {
	return l.logs[name]
}

// General, Err, Autoscaler, Thresh, and CDTLog are thin convenience
// accessors for the five fixed sinks.
func (l *Loggers) General() *log.Logger    { return l.logs[General] }
func (l *Loggers) Err() *log.Logger        { return l.logs[Error] }
func (l *Loggers) Autoscaler() *log.Logger { return l.logs[Autoscaler] }
func (l *Loggers) Thresh() *log.Logger     { return l.logs[Threshold] }
func (l *Loggers) CDTLog() *log.Logger     { return l.logs[CDT] }

// Close releases all open file handles.
func (l *Loggers) Close() error {
	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
