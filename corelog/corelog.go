// Package corelog adapts corerun.LogSink onto github.com/joeycumines/logiface,
// backed by the standard library's log/slog through
// github.com/joeycumines/logiface-slog (imported here as islog).
//
// corerun's hot path never formats or allocates for a log line it
// discards; the level check happens before any *corerun.KV is touched,
// mirroring the way logiface itself defers event construction until a
// level passes.
package corelog

import (
	"log/slog"

	"github.com/joeycumines/go-corerun/corerun"
	"github.com/joeycumines/logiface"
	islog "github.com/joeycumines/logiface-slog"
)

// Sink adapts a logiface.Logger[*islog.Event] (itself backed by a
// slog.Handler) into a corerun.LogSink.
type Sink struct {
	logger *logiface.Logger[*islog.Event]
}

// New constructs a Sink writing through handler, filtered at minLevel.
func New(handler slog.Handler, minLevel corerun.LogLevel) *Sink {
	logger := logiface.New[*islog.Event](
		islog.WithSlogHandler(handler),
		logiface.WithLevel[*islog.Event](toLogifaceLevel(minLevel)),
	)
	return &Sink{logger: logger}
}

// Write implements corerun.LogSink.
func (s *Sink) Write(level corerun.LogLevel, msg string, fields ...corerun.KV) {
	b := s.logger.Build(toLogifaceLevel(level))
	if !b.Enabled() {
		b.Release()
		return
	}
	for _, f := range fields {
		b = b.Any(f.Key, f.Value)
	}
	b.Log(msg)
}

func toLogifaceLevel(level corerun.LogLevel) logiface.Level {
	switch level {
	case corerun.LogTrace:
		return logiface.LevelTrace
	case corerun.LogDebug:
		return logiface.LevelDebug
	case corerun.LogInfo:
		return logiface.LevelInformational
	case corerun.LogWarn:
		return logiface.LevelWarning
	case corerun.LogError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}
