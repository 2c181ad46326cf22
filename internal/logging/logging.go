// Package logging builds the process logger: a console or JSON stream on
// stderr plus a rotating file under the workspace, with credentials
// redacted before anything reaches disk.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LogsDir     = "logs"
	LogFileName = "lune.log"

	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

// RedactedValue replaces credentials in the log file.
const RedactedValue = "[REDACTED]"

var sensitivePatterns = []*regexp.Regexp{
	// JWTs such as Supabase anon keys
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]{8,}\.[a-zA-Z0-9_-]{8,}\.[a-zA-Z0-9_-]+`),
	// RevenueCat secret and public keys
	regexp.MustCompile(`\b(sk|appl|goog)_[a-zA-Z0-9]{16,}`),
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{16,}`),
	regexp.MustCompile(`(?i)(api[_-]?key|anon[_-]?key)"?\s*[:=]\s*"?[a-zA-Z0-9._-]{10,}"?`),
}

// FilterSensitiveValue replaces every credential-looking substring of s.
func FilterSensitiveValue(s string) string {
	for _, p := range sensitivePatterns {
		s = p.ReplaceAllString(s, RedactedValue)
	}
	return s
}

// FilteringWriter redacts credentials before passing bytes on.
type FilteringWriter struct {
	w io.Writer
}

func NewFilteringWriter(w io.Writer) *FilteringWriter {
	return &FilteringWriter{w: w}
}

func (fw *FilteringWriter) Write(p []byte) (int, error) {
	if _, err := fw.w.Write([]byte(FilterSensitiveValue(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}

type Options struct {
	Level string
	// Dir holds the rotating log file; empty disables file logging.
	Dir string
	// Console overrides stderr, mostly for tests.
	Console io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns the logger and a closer for its file sink. A log file that
// cannot be created degrades to console-only logging.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("log level: %w", err)
		}
		level = l
	}
	console := opts.Console
	if console == nil {
		console = selectOutput()
	}
	writer := console
	var closer io.Closer = nopCloser{}
	var fileErr error
	if opts.Dir != "" {
		lj, err := fileWriter(opts.Dir)
		if err != nil {
			fileErr = err
		} else {
			closer = lj
			writer = zerolog.MultiLevelWriter(console, NewFilteringWriter(lj))
		}
	}
	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	if fileErr != nil {
		logger.Warn().Err(fileErr).Msg("file logging disabled")
	}
	return logger, closer, nil
}

func fileWriter(dir string) (*lumberjack.Logger, error) {
	logDir := filepath.Join(dir, LogsDir)
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(logDir, LogFileName),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}, nil
}

// FilePath is where New writes the log file for dir.
func FilePath(dir string) string {
	return filepath.Join(dir, LogsDir, LogFileName)
}

func selectOutput() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return os.Stderr
}
