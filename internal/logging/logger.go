package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// Logger is a slog.Logger whose records pass through a shared Sanitizer.
type Logger struct {
	*slog.Logger
	sanitizer *Sanitizer
}

// Config configures the logger.
type Config struct {
	Level     string
	Format    string // auto, text, json
	Output    io.Writer
	AddSource bool
	NoColor   bool
}

// DefaultConfig logs at info to stderr, pretty on a terminal.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "auto", Output: os.Stderr}
}

// New builds a logger from cfg. Unknown levels fall back to info and
// unknown formats to auto.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	s := NewSanitizer()
	return &Logger{
		Logger:    slog.New(NewSanitizingHandler(baseHandler(cfg), s)),
		sanitizer: s,
	}
}

func baseHandler(cfg Config) slog.Handler {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	format := strings.ToLower(cfg.Format)
	if format != "json" && format != "text" {
		if !isTerminal(cfg.Output) {
			return slog.NewJSONHandler(cfg.Output, opts)
		}
		return NewPrettyHandler(cfg.Output, level).WithColor(!cfg.NoColor)
	}
	if format == "text" {
		return slog.NewTextHandler(cfg.Output, opts)
	}
	return slog.NewJSONHandler(cfg.Output, opts)
}

// OpenFile opens (appending) the log file at path, creating parent
// directories. The caller closes the returned file.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// NewNop discards everything.
func NewNop() *Logger {
	return &Logger{
		Logger:    slog.New(slog.DiscardHandler),
		sanitizer: NewSanitizer(),
	}
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

func parseLevel(s string) slog.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l
	}
	return slog.LevelInfo
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// WithSession tags records with the chat session ID.
func (l *Logger) WithSession(sessionID string) *Logger {
	return l.With("session_id", sessionID)
}

// WithTurn tags records with the turn sequence number.
func (l *Logger) WithTurn(seq int) *Logger {
	return l.With("turn", seq)
}

// WithTool tags records with a tool name.
func (l *Logger) WithTool(tool string) *Logger {
	return l.With("tool", tool)
}

// With returns a child logger sharing the parent's sanitizer.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), sanitizer: l.sanitizer}
}

// Sanitize redacts secrets from input.
func (l *Logger) Sanitize(input string) string {
	return l.sanitizer.Sanitize(input)
}

// RedactSecrets registers configured credentials so they never reach the
// log output verbatim.
func (l *Logger) RedactSecrets(secrets ...string) {
	for _, s := range secrets {
		l.sanitizer.AddSecret(s)
	}
}
