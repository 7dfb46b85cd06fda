package mypet

import (
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/nasermirzaei89/env"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

type LogConfig struct {
	Level  slog.Level
	Format string
	// File enables a size-rotated log file next to stdout when set.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func LogConfigFromEnv() LogConfig {
	return LogConfig{
		Level:      GetLogLevelFromEnv(),
		Format:     env.GetString("LOG_FORMAT", LogFormatText),
		File:       env.GetString("LOG_FILE", ""),
		MaxSizeMB:  getIntFromEnv("LOG_FILE_MAX_SIZE_MB", 100),
		MaxBackups: getIntFromEnv("LOG_FILE_MAX_BACKUPS", 3),
		MaxAgeDays: getIntFromEnv("LOG_FILE_MAX_AGE_DAYS", 7),
		Compress:   env.GetBool("LOG_FILE_COMPRESS", false),
	}
}

func GetLogLevelFromEnv() slog.Level {
	return ParseLogLevel(env.GetString("LOG_LEVEL", "info"))
}

func ParseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("unknown log level, defaulting to info", "level", levelStr)

		return slog.LevelInfo
	}
}

func getIntFromEnv(key string, def int) int {
	raw := env.GetString(key, "")
	if raw == "" {
		return def
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", raw, "default", def)

		return def
	}

	return v
}

// NewLogger builds the process logger. The returned closer flushes the log file, if any.
func NewLogger(cfg LogConfig, stdout io.Writer) (*slog.Logger, io.Closer) {
	if stdout == nil {
		stdout = os.Stdout
	}

	var (
		w      = stdout
		closer io.Closer = nopCloser{}
	)

	if cfg.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}

		w = io.MultiWriter(stdout, fileWriter)
		closer = fileWriter
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler

	switch cfg.Format {
	case LogFormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
