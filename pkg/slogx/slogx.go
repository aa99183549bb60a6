package slogx

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Service string
	Version string
	Env     string // e.g. "dev", "prod"
	Level   string // any name accepted by ParseLevel
	Format  string // "json" (default) or "text"

	// LevelVar, when set, receives the parsed level and is used as the
	// handler's level so logging/setLevel can change it at runtime.
	LevelVar *slog.LevelVar

	// Output defaults to stdout.
	Output io.Writer
}

// New builds the service logger and installs it as the slog default.
func New(cfg Config) *slog.Logger {
	level := ParseLevel(cfg.Level)
	var leveler slog.Leveler = level
	if cfg.LevelVar != nil {
		cfg.LevelVar.Set(level)
		leveler = cfg.LevelVar
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	logger := slog.New(newHandler(out, cfg.Format, &slog.HandlerOptions{
		AddSource: cfg.Env == "dev",
		Level:     leveler,
	})).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", cfg.Env,
	)

	slog.SetDefault(logger)
	return logger
}

func newHandler(out io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// severities covers the slog names plus the syslog severities MCP clients
// send in logging/setLevel. slog has no levels above error.
var severities = map[string]slog.Level{
	"debug":     slog.LevelDebug,
	"info":      slog.LevelInfo,
	"notice":    slog.LevelInfo,
	"warn":      slog.LevelWarn,
	"warning":   slog.LevelWarn,
	"error":     slog.LevelError,
	"critical":  slog.LevelError,
	"alert":     slog.LevelError,
	"emergency": slog.LevelError,
}

// LookupLevel resolves a level name case-insensitively.
func LookupLevel(name string) (slog.Level, bool) {
	level, ok := severities[strings.ToLower(strings.TrimSpace(name))]
	return level, ok
}

// ParseLevel is LookupLevel defaulting to info.
func ParseLevel(name string) slog.Level {
	if level, ok := LookupLevel(name); ok {
		return level
	}
	return slog.LevelInfo
}
