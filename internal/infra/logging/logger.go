package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// InitLogger configures the global logger with a size-rotated file writer.
// When file is empty, logs go to stderr only.
func InitLogger(file string, maxSizeMB, maxBackups, maxAgeDays int, compress bool, level string) {
	writers := []io.Writer{os.Stderr}
	if file != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   compress,
		})
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	mu.Lock()
	logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger().Level(lvl)
	mu.Unlock()
}

// SetLogLevel changes the global log level. Unknown levels fall back to info.
func SetLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	mu.Lock()
	logger = logger.Level(lvl)
	mu.Unlock()
}

// SetLoggerForTest replaces the global logger so tests can capture output.
func SetLoggerForTest(l zerolog.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

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

// Debug logs at debug level with alternating key/value pairs.
func Debug(msg string, kv ...any) { l := current(); emit(l.Debug(), msg, kv) }

// Info logs at info level with alternating key/value pairs.
func Info(msg string, kv ...any) { l := current(); emit(l.Info(), msg, kv) }

// Warn logs at warn level with alternating key/value pairs.
func Warn(msg string, kv ...any) { l := current(); emit(l.Warn(), msg, kv) }

// Error logs at error level with alternating key/value pairs.
func Error(msg string, kv ...any) { l := current(); emit(l.Error(), msg, kv) }

// Fatal logs at fatal level and exits the process. Startup failures only.
func Fatal(msg string, kv ...any) { l := current(); emit(l.Fatal(), msg, kv) }
