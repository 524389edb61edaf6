package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// sink is the output shared by a logger and all of its children
type sink struct {
	mu      sync.Mutex
	writer  io.Writer
	errOut  io.Writer
	fileLog *os.File
	hasBar  bool
}

// Logger handles leveled logging with optional file output.
// Child loggers created with With share the parent's outputs.
type Logger struct {
	Verbose bool
	prefix  string
	out     *sink
}

// New creates a new Logger instance
func New(verbose bool) *Logger {
	return &Logger{
		Verbose: verbose,
		out:     &sink{writer: os.Stdout, errOut: os.Stderr},
	}
}

// NewWithWriter creates a Logger that writes everything, errors included,
// to w. Used by tests and by the web daemon.
func NewWithWriter(w io.Writer, verbose bool) *Logger {
	return &Logger{
		Verbose: verbose,
		out:     &sink{writer: w, errOut: w},
	}
}

// With returns a child logger whose messages are prefixed with component.
func (l *Logger) With(component string) *Logger {
	prefix := component
	if l.prefix != "" {
		prefix = l.prefix + "/" + component
	}
	return &Logger{Verbose: l.Verbose, prefix: prefix, out: l.out}
}

// SetFileLog enables logging to a file
func (l *Logger) SetFileLog(path string) error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.out.fileLog = f
	return nil
}

// SetProgressBar indicates that a progress bar is active
func (l *Logger) SetProgressBar(active bool) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.hasBar = active
}

// Close closes the log file if open
func (l *Logger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.fileLog != nil {
		err := l.out.fileLog.Close()
		l.out.fileLog = nil
		return err
	}
	return nil
}

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.log("INFO", format, args...)
}

// Debug logs detailed messages only in verbose mode
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.Verbose {
		l.log("DEBUG", format, args...)
	} else {
		// Always log debug to file even in non-verbose mode
		l.logToFile("DEBUG", format, args...)
	}
}

// Error logs error messages to stderr
func (l *Logger) Error(format string, args ...interface{}) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	msg := l.format("ERROR", format, args...)
	fmt.Fprint(l.out.errOut, msg)

	if l.out.fileLog != nil {
		l.out.fileLog.WriteString(msg)
	}
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log("WARN", format, args...)
}

func (l *Logger) format(level, format string, args ...interface{}) string {
	if l.prefix != "" {
		format = "(" + l.prefix + ") " + format
	}
	if level == "INFO" {
		return fmt.Sprintf(format+"\n", args...)
	}
	return fmt.Sprintf("["+level+"] "+format+"\n", args...)
}

// log handles the actual logging
func (l *Logger) log(level, format string, args ...interface{}) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	msg := l.format(level, format, args...)

	// Write to stdout (unless we have a progress bar and not verbose)
	if l.Verbose || !l.out.hasBar {
		fmt.Fprint(l.out.writer, msg)
	}

	// Always write to file if available
	if l.out.fileLog != nil {
		l.out.fileLog.WriteString(msg)
	}
}

// logToFile writes only to file
func (l *Logger) logToFile(level, format string, args ...interface{}) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.fileLog != nil {
		l.out.fileLog.WriteString(l.format(level, format, args...))
	}
}
