package monitoring

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Logger provides structured logging with quiz-specific event helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger writing to stdout at level.
func NewLogger(level slog.Level) *Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo creates a JSON logger writing to w.
func NewLoggerTo(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// SubmissionLogger logs one scored submission.
func (l *Logger) SubmissionLogger(suiteID, resultID string, totalScore, dimensionCount int, duration time.Duration) {
	l.Info("Submission Scored",
		"suite_id", suiteID,
		"result_id", resultID,
		"total_score", totalScore,
		"dimension_count", dimensionCount,
		"duration_ms", duration.Milliseconds(),
	)
}

// RejectionLogger logs a submission that failed validation.
func (l *Logger) RejectionLogger(suiteID string, err error) {
	l.Warn("Submission Rejected",
		"suite_id", suiteID,
		"error", err.Error(),
	)
}

// CatalogLogger logs a catalog load or reload outcome.
func (l *Logger) CatalogLogger(trigger string, suites int, defaultSuite string, version uint64, err error) {
	if err != nil {
		l.Error("Catalog Reload Failed",
			"trigger", trigger,
			"error", err.Error(),
		)
		return
	}
	l.Info("Catalog Reloaded",
		"trigger", trigger,
		"suites", suites,
		"default_suite", defaultSuite,
		"version", version,
	)
}

// RateLimitLogger logs a blocked request.
func (l *Logger) RateLimitLogger(ip, path, backend string, retryAfter time.Duration) {
	l.Warn("Rate Limit Exceeded",
		"ip", ip,
		"path", path,
		"backend", backend,
		"retry_after_ms", retryAfter.Milliseconds(),
	)
}

// APIErrorLogger logs API errors with context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	_, file, line, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		caller = file + ":" + strconv.Itoa(line)
	}

	level := slog.LevelError
	if statusCode < 500 {
		level = slog.LevelWarn
	}
	l.Log(context.Background(), level, "API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"caller", caller,
	)
}

// CacheLogger logs cache operations
func (l *Logger) CacheLogger(operation, key string, hit bool, itemCount int) {
	l.Debug("Cache Operation",
		"operation", operation,
		"key", key,
		"hit", hit,
		"cache_size", itemCount,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

// SecurityLogger logs security-related events
func (l *Logger) SecurityLogger(event, ip, userAgent string, details map[string]interface{}) {
	attrs := []any{
		"event", event,
		"ip", ip,
		"user_agent", userAgent,
	}
	for key, value := range details {
		attrs = append(attrs, key, value)
	}

	l.Warn("Security Event", attrs...)
}

// PerformanceLogger logs performance metrics
func (l *Logger) PerformanceLogger(metric string, value float64, unit string) {
	l.Info("Performance Metric",
		"metric", metric,
		"value", value,
		"unit", unit,
	)
}

var startTime = time.Now()
