// internal/logger/router.go
//
// Channelled structured logging (Zap + Lumberjack).
//
// Context
// -------
// AutoMCP separates day-to-day service logs from machine-readable task
// trails.  The *system* channel tees every record to the console and to
// `<dir>/automcp.log`; the *execution* channel writes to
// `<dir>/execution.log` only, so automated runs never clutter an
// operator's terminal and the trail file stays free of chatter.  Rotation
// and retention are handled by Lumberjack per sink; no external log-rotate
// job is required.
//
// Usage
// -----
//
//	rt, err := logger.Init(logger.Options{Debug: debugFromEnv()})
//	if err != nil { … }
//	rt.Named("planner").Infow("plan accepted", "steps", 4)
//	rt.Execution().Infow("subtask done", "task_id", id)
//
// Notes
// -----
// • Init is idempotent: the first call builds the router, installs its
//   system channel via zap.ReplaceGlobals, and caches it; later calls
//   return the same router, so sinks are never duplicated.
// • New builds a fresh, uninstalled router for callers that need their
//   own (tests, embedded tools).
// • Console verbosity is an AtomicLevel; SetDebug flips it at runtime
//   once the settings snapshot is known.
// • Oxford commas, two spaces after periods.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yanizio/automcp/internal/metrics"
)

// ExecutionChannel is the reserved name whose records go to the execution
// trail file only, never to the console or the system file.
const ExecutionChannel = "execution"

const (
	systemLog    = "automcp.log"
	executionLog = "execution.log"

	defaultDir        = "logs"
	defaultMaxSizeMB  = 10 // rotation threshold per sink
	defaultMaxBackups = 5  // rotated files kept per sink
)

// Options configure one Router.  The zero value is production-ready:
// ./logs, 10 MiB per file, five backups, console at INFO.
type Options struct {
	Dir        string    // log directory, created if missing
	MaxSizeMB  int       // rotation threshold per file, in MiB
	MaxBackups int       // rotated files kept per sink
	Debug      bool      // start the console at DEBUG instead of INFO
	Console    io.Writer // console sink, defaults to os.Stdout
	Quiet      []string  // named loggers pinned to console WARN+, no files
}

// Router owns the process's log channels.  All methods are safe for
// concurrent use; the returned loggers are zap's and carry zap's own
// concurrency guarantees.
type Router struct {
	consoleLevel zap.AtomicLevel

	system    *zap.Logger
	execution *zap.Logger
	quietBase *zap.Logger

	quiet map[string]bool

	mu    sync.Mutex
	named map[string]*zap.SugaredLogger

	sinks []io.Closer
}

/*──────────────────────────── construction ─────────────────────────────────*/

// New builds a Router from opts.  Both sink files are probed up front, so a
// directory or file that cannot be opened fails here with an *InitError
// rather than on the first log call.
func New(opts Options) (*Router, error) {
	if opts.Dir == "" {
		opts.Dir = defaultDir
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = defaultMaxSizeMB
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = defaultMaxBackups
	}
	if opts.Console == nil {
		opts.Console = os.Stdout
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, &InitError{Op: "mkdir", Path: opts.Dir, Err: err}
	}

	sysSink, err := newFileSink(filepath.Join(opts.Dir, systemLog), opts.MaxSizeMB, opts.MaxBackups)
	if err != nil {
		return nil, err
	}
	execSink, err := newFileSink(filepath.Join(opts.Dir, executionLog), opts.MaxSizeMB, opts.MaxBackups)
	if err != nil {
		_ = sysSink.Close()
		return nil, err
	}

	encCfg := encoderConfig()
	consoleLevel := zap.NewAtomicLevelAt(zap.InfoLevel)
	if opts.Debug {
		consoleLevel.SetLevel(zap.DebugLevel)
	}

	console := zapcore.Lock(zapcore.AddSync(opts.Console))
	fallback := newThrottledSyncer(console)

	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), console, consoleLevel)
	sysFileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(sysSink), zap.InfoLevel)
	execFileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(execSink), zap.InfoLevel)

	systemCore := zapcore.RegisterHooks(
		zapcore.NewTee(consoleCore, sysFileCore),
		func(zapcore.Entry) error { metrics.LogRecordsTotal.WithLabelValues("system").Inc(); return nil },
	)
	executionCore := zapcore.RegisterHooks(
		execFileCore,
		func(zapcore.Entry) error { metrics.LogRecordsTotal.WithLabelValues(ExecutionChannel).Inc(); return nil },
	)

	r := &Router{
		consoleLevel: consoleLevel,
		system: zap.New(systemCore,
			zap.AddCaller(),
			zap.AddStacktrace(zap.ErrorLevel),
			zap.ErrorOutput(fallback),
		),
		execution: zap.New(executionCore,
			zap.AddCaller(),
			zap.AddStacktrace(zap.ErrorLevel),
			zap.ErrorOutput(fallback),
		).Named(ExecutionChannel),
		quietBase: zap.New(consoleCore,
			zap.AddCaller(),
			zap.IncreaseLevel(zap.WarnLevel),
			zap.ErrorOutput(fallback),
		),
		quiet: make(map[string]bool, len(opts.Quiet)),
		named: make(map[string]*zap.SugaredLogger),
		sinks: []io.Closer{sysSink, execSink},
	}
	for _, n := range opts.Quiet {
		r.quiet[n] = true
	}

	r.System().Infow("logging online",
		"dir", opts.Dir,
		"debug", opts.Debug,
		"max_size_mb", opts.MaxSizeMB,
		"max_backups", opts.MaxBackups,
	)
	return r, nil
}

/*──────────────────────────── default router ───────────────────────────────*/

var (
	defaultMu     sync.Mutex
	defaultRouter *Router
)

// Init builds the process-wide Router on first call and installs its system
// channel as zap's global logger, so zap.L() and zap.S() work everywhere
// after startup.  Later calls return the existing Router unchanged.
func Init(opts Options) (*Router, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultRouter != nil {
		return defaultRouter, nil
	}
	r, err := New(opts)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(r.system)
	defaultRouter = r
	return r, nil
}

/*──────────────────────────── channel access ───────────────────────────────*/

// System returns the system channel: console plus automcp.log.
func (r *Router) System() *zap.SugaredLogger { return r.system.Sugar() }

// Execution returns the execution channel: execution.log only.
func (r *Router) Execution() *zap.SugaredLogger { return r.Named(ExecutionChannel) }

// Named returns the logger for name, creating it on first use.  The same
// name always yields the same logger.  "execution" routes to the trail
// file; names listed in Options.Quiet stay console-only at WARN and above;
// everything else joins the system channel.
func (r *Router) Named(name string) *zap.SugaredLogger {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.named[name]; ok {
		return l
	}

	var l *zap.SugaredLogger
	switch {
	case name == ExecutionChannel:
		l = r.execution.Sugar()
	case r.quiet[name]:
		l = r.quietBase.Named(name).Sugar()
	default:
		l = r.system.Named(name).Sugar()
	}
	r.named[name] = l
	return l
}

/*──────────────────────────── runtime controls ─────────────────────────────*/

// SetDebug flips console verbosity between DEBUG and INFO.  File sinks are
// unaffected; quiet loggers stay pinned at WARN.
func (r *Router) SetDebug(on bool) {
	lvl := zap.InfoLevel
	if on {
		lvl = zap.DebugLevel
	}
	r.consoleLevel.SetLevel(lvl)
}

// Close flushes both channels and closes the rotating sinks.  The console
// sync error is ignored; stdout cannot be synced on several platforms.
func (r *Router) Close() error {
	_ = r.system.Sync()
	_ = r.execution.Sync()

	var first error
	for _, c := range r.sinks {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
