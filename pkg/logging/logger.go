package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger writes levelled diagnostics to stderr (or a log file).
// Stdout belongs to keymap output and is never used here.
type Logger struct {
	level      Level
	jsonFormat bool
	execname   string
	fields     map[string]interface{}
	sink       *sink
	now        func() time.Time
}

// sink is shared between a logger and the loggers derived from it.
type sink struct {
	mu      sync.Mutex
	output  io.Writer
	logFile *os.File
}

// NewLogger creates a logger prefixed with execname that writes to stderr
func NewLogger(execname string, level Level, jsonFormat bool) *Logger {
	return &Logger{
		level:      level,
		jsonFormat: jsonFormat,
		execname:   execname,
		fields:     make(map[string]interface{}),
		sink:       &sink{output: os.Stderr},
		now:        time.Now,
	}
}

// NewFileLogger creates a logger that writes to <dir>/<component>.log as well as stderr
func NewFileLogger(execname, dir, component string, level Level, jsonFormat bool) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	logPath := filepath.Join(dir, component+".log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	logger := NewLogger(execname, level, jsonFormat)
	logger.sink.output = io.MultiWriter(logFile, os.Stderr)
	logger.sink.logFile = logFile
	logger = logger.WithField("component", component)

	logger.Debug("logger initialized", map[string]interface{}{"path": logPath})
	return logger, nil
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
}

// Level returns the minimum level this logger emits
func (l *Logger) Level() Level {
	return l.level
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Program   string                 `json:"program"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func (l *Logger) log(level Level, message string, fields map[string]interface{}) {
	if level < l.level {
		return
	}

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	var line string
	if l.jsonFormat {
		entry := LogEntry{
			Timestamp: l.now().Format(time.RFC3339),
			Level:     level.String(),
			Program:   l.execname,
			Message:   message,
			Fields:    merged,
		}
		data, err := json.Marshal(entry)
		if err != nil {
			line = fmt.Sprintf("%s: failed to marshal log entry: %v", l.execname, err)
		} else {
			line = string(data)
		}
	} else {
		line = fmt.Sprintf("%s: [%s] %s: %s%s",
			l.execname, l.now().Format("2006-01-02 15:04:05"), level, message, formatFields(merged))
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	fmt.Fprintln(l.sink.output, line)
}

// formatFields renders fields as sorted key=value pairs so text output is stable
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...map[string]interface{}) {
	l.log(DEBUG, message, first(fields))
}

// Info logs an info message
func (l *Logger) Info(message string, fields ...map[string]interface{}) {
	l.log(INFO, message, first(fields))
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...map[string]interface{}) {
	l.log(WARN, message, first(fields))
}

// Error logs an error message
func (l *Logger) Error(message string, fields ...map[string]interface{}) {
	l.log(ERROR, message, first(fields))
}

func first(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	// Copy fields to avoid mutation
	newFields := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		newFields[k] = v
	}
	newFields[key] = value
	return &Logger{
		level:      l.level,
		jsonFormat: l.jsonFormat,
		execname:   l.execname,
		fields:     newFields,
		sink:       l.sink,
		now:        l.now,
	}
}

// ParseLevel parses a log level string
func ParseLevel(level string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown log level %q", level)
	}
}

// Close closes the log file if opened
func (l *Logger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.logFile == nil {
		return nil
	}
	err := l.sink.logFile.Close()
	l.sink.logFile = nil
	l.sink.output = os.Stderr
	return err
}
