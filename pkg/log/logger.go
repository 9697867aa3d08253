// Package log configures structured logging for oxypred runs.
//
// Logging goes through the standard log/slog package with a JSON
// handler. A wrapping handler extracts stack traces from
// cockroachdb/errors values passed via ErrAttr, so every failed run
// carries its origin in the log record.
package log

import (
	"fmt"
	"log/slog"
	"os"
)

// SetupLogger installs the default slog logger at the given level.
// Output is JSON on stderr; console text stays on stdout for the
// report tables and metric summaries.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stderr, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))
}

// ToLogLevel maps a level name to a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr wraps err so the handler can attach its stack trace.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
