// Package logx provides leveled logging with environment-controlled debug
// domains for the view-state subsystem.
package logx

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level identifies the severity of a log line.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger writes component-tagged log lines to stderr. Hosts embedding the
// tracker typically route these into their own output channel; logging to
// stderr keeps the default CLI usable.
type Logger struct {
	component string
	logger    *log.Logger
}

// Debug configuration is initialized once from the environment and guarded
// for the SetDebug test hook.
var (
	debugMu      sync.RWMutex
	debugEnabled bool
	debugDomains map[string]bool // nil means all domains
)

//nolint:gochecknoinits // Required for env var initialization.
func init() {
	if v := os.Getenv("VIEWSTATE_DEBUG"); v == "1" || strings.EqualFold(v, "true") {
		debugEnabled = true
	}
	if domains := os.Getenv("VIEWSTATE_DEBUG_DOMAINS"); domains != "" {
		debugDomains = make(map[string]bool)
		for _, d := range strings.Split(domains, ",") {
			debugDomains[strings.TrimSpace(d)] = true
		}
	}
}

// SetDebug overrides the environment-derived debug settings. An empty
// domain list enables all domains.
func SetDebug(enabled bool, domains ...string) {
	debugMu.Lock()
	defer debugMu.Unlock()

	debugEnabled = enabled
	if len(domains) == 0 {
		debugDomains = nil
		return
	}
	debugDomains = make(map[string]bool)
	for _, d := range domains {
		debugDomains[strings.TrimSpace(d)] = true
	}
}

// debugEnabledFor reports whether debug logging is on for a component.
func debugEnabledFor(component string) bool {
	debugMu.RLock()
	defer debugMu.RUnlock()

	if !debugEnabled {
		return false
	}
	if debugDomains == nil {
		return true
	}
	return debugDomains[component]
}

// NewLogger creates a logger tagged with the given component name
// (for example "tracker", "store", "reconciler").
func NewLogger(component string) *Logger {
	return &Logger{
		component: component,
		logger:    log.New(os.Stderr, "", 0),
	}
}

func (l *Logger) log(level Level, format string, args ...any) {
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] [%s] %s: %s", timestamp, l.component, level, message)
}

// Debug logs a debug message. Output is suppressed unless debug logging is
// enabled for this logger's component.
func (l *Logger) Debug(format string, args ...any) {
	if !debugEnabledFor(l.component) {
		return
	}
	l.log(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// Errorf logs and returns the formatted error. Use when a failure must be
// both recorded and propagated:
//
//	return logx.Errorf("open store: %w", err)
func (l *Logger) Errorf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	l.Error("%s", err.Error())
	return err
}

// Wrap logs msg + ": " + err.Error() and returns the wrapped error.
// A nil err returns nil unchanged.
func (l *Logger) Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%s: %w", msg, err)
	l.Error("%s", wrapped.Error())
	return wrapped
}
