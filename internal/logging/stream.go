package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Format represents the log output format
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// StreamLoggerConfig holds configuration for a StreamLogger
type StreamLoggerConfig struct {
	// Writer receives one line per entry. Defaults to os.Stderr.
	Writer io.Writer
	// Format is the output format (json or text)
	Format Format
	// Level is the minimum log level
	Level Level
}

// StreamLogger implements Logger by writing lines to an io.Writer.
// Loggers derived with WithFields share the writer and its lock.
type StreamLogger struct {
	config StreamLoggerConfig
	mu     *sync.Mutex
	fields Fields
	now    func() time.Time
}

// NewStreamLogger creates a new stream logger
func NewStreamLogger(config StreamLoggerConfig) *StreamLogger {
	if config.Writer == nil {
		config.Writer = os.Stderr
	}
	if config.Format == "" {
		config.Format = FormatText
	}
	return &StreamLogger{
		config: config,
		mu:     &sync.Mutex{},
		now:    time.Now,
	}
}

// Debug logs a debug message
func (l *StreamLogger) Debug(ctx context.Context, msg string, fields Fields) {
	if l.config.Level <= DebugLevel {
		l.log(DebugLevel, msg, nil, fields)
	}
}

// Info logs an info message
func (l *StreamLogger) Info(ctx context.Context, msg string, fields Fields) {
	if l.config.Level <= InfoLevel {
		l.log(InfoLevel, msg, nil, fields)
	}
}

// Warn logs a warning message
func (l *StreamLogger) Warn(ctx context.Context, msg string, fields Fields) {
	if l.config.Level <= WarnLevel {
		l.log(WarnLevel, msg, nil, fields)
	}
}

// Error logs an error message
func (l *StreamLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	if l.config.Level <= ErrorLevel {
		l.log(ErrorLevel, msg, err, fields)
	}
}

// WithFields returns a logger with additional fields
func (l *StreamLogger) WithFields(fields Fields) Logger {
	return &StreamLogger{
		config: l.config,
		mu:     l.mu,
		fields: merge(l.fields, fields),
		now:    l.now,
	}
}

// Close does not close the underlying writer; the caller owns it.
func (l *StreamLogger) Close() error {
	return nil
}

func (l *StreamLogger) log(level Level, msg string, err error, fields Fields) {
	all := merge(l.fields, fields)

	var line []byte
	if l.config.Format == FormatJSON {
		var jsonErr error
		line, jsonErr = l.formatJSON(level, msg, err, all)
		if jsonErr != nil {
			return
		}
	} else {
		line = l.formatText(level, msg, err, all)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.config.Writer.Write(line)
}

func (l *StreamLogger) formatJSON(level Level, msg string, err error, fields Fields) ([]byte, error) {
	entry := map[string]interface{}{
		"timestamp": l.now().UTC().Format(time.RFC3339),
		"level":     level.String(),
		"message":   msg,
	}

	if err != nil {
		entry["error"] = err.Error()
	}

	for k, v := range fields {
		entry[k] = v
	}

	data, jsonErr := json.Marshal(entry)
	if jsonErr != nil {
		return nil, jsonErr
	}

	return append(data, '\n'), nil
}

func (l *StreamLogger) formatText(level Level, msg string, err error, fields Fields) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", l.now().UTC().Format("2006-01-02T15:04:05.000Z"), level, msg)

	if err != nil {
		fmt.Fprintf(&b, " error=%q", err.Error())
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}

	b.WriteByte('\n')
	return []byte(b.String())
}

func merge(base, extra Fields) Fields {
	out := make(Fields, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
