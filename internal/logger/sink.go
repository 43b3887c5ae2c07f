// internal/logger/sink.go
//
// Sink construction: rotating files, encoders, and the throttled fallback.
package logger

import (
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/yanizio/automcp/internal/metrics"
)

// newFileSink builds one rotating file sink.  Lumberjack opens its file
// lazily, so the path is probed up front: a sink that cannot be opened must
// fail router construction, not the first log call minutes later.
func newFileSink(path string, maxSizeMB, maxBackups int) (*lumberjack.Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &InitError{Op: "open", Path: path, Err: err}
	}
	_ = f.Close()

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB, // MB
		MaxBackups: maxBackups,
	}, nil
}

// encoderConfig is shared by the console and JSON encoders.
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}
}

// throttledSyncer carries zap's internal-error notices (failed sink writes,
// mostly) to the console while shedding anything beyond a small budget, so
// a wedged file sink cannot flood the terminal.  Drops are counted, never
// silently lost.
type throttledSyncer struct {
	ws  zapcore.WriteSyncer
	lim *rate.Limiter
}

func newThrottledSyncer(ws zapcore.WriteSyncer) *throttledSyncer {
	return &throttledSyncer{ws: ws, lim: rate.NewLimiter(rate.Every(time.Second), 5)}
}

func (t *throttledSyncer) Write(p []byte) (int, error) {
	if !t.lim.Allow() {
		metrics.LogFallbackDropsTotal.Inc()
		return len(p), nil
	}
	return t.ws.Write(p)
}

func (t *throttledSyncer) Sync() error { return t.ws.Sync() }
