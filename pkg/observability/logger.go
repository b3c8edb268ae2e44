package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/platinummonkey/staffing/pkg/contextkeys"
)

// LogLevel is the minimum severity a Logger emits
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levels = []struct {
	name  string
	slog  slog.Level
	alias string
}{
	DebugLevel: {"DEBUG", slog.LevelDebug, "debug"},
	InfoLevel:  {"INFO", slog.LevelInfo, "info"},
	WarnLevel:  {"WARN", slog.LevelWarn, "warning"},
	ErrorLevel: {"ERROR", slog.LevelError, "error"},
}

func (l LogLevel) String() string {
	if l < DebugLevel || l > ErrorLevel {
		return levels[InfoLevel].name
	}
	return levels[l].name
}

// ParseLogLevel reads STAFFING_LOG_LEVEL values. Unknown names are info.
func ParseLogLevel(name string) LogLevel {
	name = strings.ToLower(strings.TrimSpace(name))
	for l, def := range levels {
		if name == strings.ToLower(def.name) || name == def.alias {
			return LogLevel(l)
		}
	}
	return InfoLevel
}

// Logger writes JSON lines through slog. Loggers are immutable; the With
// helpers return a child carrying extra attributes.
type Logger struct {
	logger *slog.Logger
}

// NewLogger writes entries at or above level to output, stdout when nil
func NewLogger(level LogLevel, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	if level < DebugLevel || level > ErrorLevel {
		level = InfoLevel
	}
	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{Level: levels[level].slog})
	return &Logger{logger: slog.New(handler)}
}

// NopLogger drops every entry
func NopLogger() *Logger {
	return NewLogger(ErrorLevel, io.Discard)
}

func (l *Logger) with(args ...interface{}) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}

// WithField adds one attribute
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.with(key, value)
}

// WithFields adds attributes in key order
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]interface{}, 0, len(fields)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return l.with(args...)
}

// WithError adds err under "error"; a nil error returns l unchanged
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.with("error", err.Error())
}

// WithCaller tags entries with the authenticated account and its role
func (l *Logger) WithCaller(accountID int64, role string) *Logger {
	if role == "" {
		return l.with("account_id", accountID)
	}
	return l.with("account_id", accountID, "role", role)
}

// WithAssignment tags entries with a (staff, event) pair
func (l *Logger) WithAssignment(staffID, eventID int64) *Logger {
	return l.with("staff_id", staffID, "evenement_id", eventID)
}

func (l *Logger) log(level slog.Level, message string) {
	l.logger.Log(context.Background(), level, message)
}

func (l *Logger) logf(level slog.Level, format string, args ...interface{}) {
	if !l.logger.Enabled(context.Background(), level) {
		return
	}
	l.logger.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(message string) { l.log(slog.LevelDebug, message) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.logf(slog.LevelDebug, format, args...) }
func (l *Logger) Info(message string) { l.log(slog.LevelInfo, message) }
func (l *Logger) Infof(format string, args ...interface{}) { l.logf(slog.LevelInfo, format, args...) }
func (l *Logger) Warn(message string) { l.log(slog.LevelWarn, message) }
func (l *Logger) Warnf(format string, args ...interface{}) { l.logf(slog.LevelWarn, format, args...) }
func (l *Logger) Error(message string) { l.log(slog.LevelError, message) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.logf(slog.LevelError, format, args...) }

// WithLogger stores logger in ctx
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return contextkeys.WithLogger(ctx, logger)
}

// GetLogger returns the logger stored in ctx, or an info logger on stdout
func GetLogger(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextkeys.LoggerKey).(*Logger); ok {
		return logger
	}
	return NewLogger(InfoLevel, os.Stdout)
}

// FromContext returns the context logger tagged with the request ID and,
// behind the access gate, the calling account and role
func FromContext(ctx context.Context) *Logger {
	logger := GetLogger(ctx)

	if requestID := contextkeys.GetRequestID(ctx); requestID != "" {
		logger = logger.WithField("request_id", requestID)
	}
	if accountID, role, ok := contextkeys.GetCaller(ctx); ok {
		logger = logger.WithCaller(accountID, role)
	}
	return logger
}
