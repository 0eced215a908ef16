package utils

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// InitLogger configures the process-wide logger. When file is non-empty, log
// output is duplicated to a size-rotated file via lumberjack.
func InitLogger(file string, maxSizeMB, maxBackups, maxAgeDays int, compress bool, level string) {
	var w io.Writer = os.Stdout
	if file != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   compress,
		})
	}
	logger = zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(level))
}

// SetLogLevel changes the minimum level at runtime.
func SetLogLevel(level string) {
	logger = logger.Level(parseLevel(level))
}

// SetLoggerForTest swaps the package logger so tests can capture output.
func SetLoggerForTest(l zerolog.Logger) {
	logger = l
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Info logs at info level with alternating key/value pairs.
func Info(msg string, kv ...any) { emit(logger.Info(), msg, kv) }

// Warn logs at warn level with alternating key/value pairs.
func Warn(msg string, kv ...any) { emit(logger.Warn(), msg, kv) }

// Error logs at error level with alternating key/value pairs.
func Error(msg string, kv ...any) { emit(logger.Error(), msg, kv) }

func emit(e *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}
