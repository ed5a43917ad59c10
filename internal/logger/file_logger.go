package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogLevel represents different types of log entries
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
)

// String returns the tag written in front of each entry
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarning:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// LevelFromVerbosity maps a 0..3 verbosity flag to a level
func LevelFromVerbosity(verbosity int) LogLevel {
	switch {
	case verbosity <= 0:
		return LogLevelError
	case verbosity == 1:
		return LogLevelWarning
	case verbosity == 2:
		return LogLevelInfo
	default:
		return LogLevelDebug
	}
}

type sink struct {
	logger *log.Logger
	level  LogLevel
}

// Logger writes leveled entries to the console and optionally to a run log file
type Logger struct {
	name    string
	sinks   []sink
	logFile *os.File
	logPath string
	mu      sync.Mutex
}

// NewLogger creates a logger that writes to stdout and to <dir>/log.txt, each with its own level
func NewLogger(dir, name string, consoleLevel, fileLevel LogLevel) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(dir, "log.txt")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		name: name,
		sinks: []sink{
			{logger: log.New(os.Stdout, "", 0), level: consoleLevel},
			{logger: log.New(file, "", 0), level: fileLevel},
		},
		logFile: file,
		logPath: logPath,
	}

	l.writeSessionHeader()
	return l, nil
}

// NewWriterLogger creates a logger writing to a single writer
func NewWriterLogger(w io.Writer, level LogLevel) *Logger {
	return &Logger{
		sinks: []sink{{logger: log.New(w, "", 0), level: level}},
	}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{}
}

func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
TRANSIT NETWORK OPTIMIZATION STARTED
================================================================================
Run: %s
Started: %s
================================================================================
`, l.name, time.Now().Format("2006-01-02 15:04:05"))

	if l.logFile != nil {
		l.sinks[len(l.sinks)-1].logger.Print(header)
	}
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	if l == nil || len(l.sinks) == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	message := fmt.Sprintf(format, args...)
	entry := fmt.Sprintf("[%s] [%s] %s", timestamp, level, message)

	for _, s := range l.sinks {
		if level <= s.level {
			s.logger.Println(entry)
		}
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.Log(LogLevelDebug, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// LogError logs error with context
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// Close closes the log file
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		footer := fmt.Sprintf(`
================================================================================
TRANSIT NETWORK OPTIMIZATION ENDED
================================================================================
Ended: %s
================================================================================

`, time.Now().Format("2006-01-02 15:04:05"))
		l.sinks[len(l.sinks)-1].logger.Print(footer)

		err := l.logFile.Close()
		l.logFile = nil
		return err
	}
	return nil
}

// GetLogPath returns the current log file path, empty when not logging to a file
func (l *Logger) GetLogPath() string {
	return l.logPath
}
