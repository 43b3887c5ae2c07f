// cmd/automcp/main.go
//
// AutoMCP – bootstrap entry point.
//
// Boot sequence
// -------------
//
//  1. Parse CLI flags (root override, log directory, quiet loggers).
//
//  2. Start the log router: console plus rotating automcp.log, separate
//     execution.log trail.  Console verbosity is seeded from a lenient
//     DEBUG sniff so the very first records honour the operator's intent.
//
//  3. Load the settings snapshot (defaults → YAML → .env → environment),
//     then settle console verbosity from the validated Debug field.
//
//  4. With --print-config, dump the snapshot (secrets masked) and exit.
//
//  5. Serve the shell: /healthz liveness and /metrics counters, shutting
//     down cleanly on SIGINT or SIGTERM.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/automcp/internal/config"
	"github.com/yanizio/automcp/internal/logger"
	"github.com/yanizio/automcp/internal/server"
)

const shutdownGrace = 10 * time.Second

func main() {
	app := kingpin.New("automcp", "AutoMCP bootstrap: validated settings plus channelled logging.")
	rootFlag := app.Flag("root", "Project root; overrides AUTOMCP_ROOT discovery.").String()
	logDir := app.Flag("log-dir", "Directory for rotating log files.").Default("logs").String()
	quiet := app.Flag("quiet", "Logger name pinned to console WARN+; repeatable.").Strings()
	printConfig := app.Flag("print-config", "Print the loaded settings with secrets masked, then exit.").Bool()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	if *rootFlag != "" {
		os.Setenv("AUTOMCP_ROOT", *rootFlag)
	}

	//
	// ── 1.  Log router (before anything that may log) ───────────────────
	//
	rt, err := logger.Init(logger.Options{
		Dir:   *logDir,
		Debug: debugFromEnv(),
		Quiet: *quiet,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "automcp: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	log := rt.System()

	//
	// ── 2.  Settings snapshot ───────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("settings load failed", "err", err)
	}
	rt.SetDebug(cfg.Debug)

	//
	// ── 3.  --print-config: masked dump, then exit ──────────────────────
	//
	if *printConfig {
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			log.Fatalw("settings dump failed", "err", err)
		}
		fmt.Println(string(out))
		return
	}

	bootID := uuid.NewString()
	log.Infow("automcp online",
		"boot_id", bootID,
		"env", cfg.Env,
		"port", cfg.Port,
		"root", cfg.Paths.Root,
	)

	//
	// ── 4.  HTTP shell: /healthz and /metrics ───────────────────────────
	//
	srv := server.New(
		fmt.Sprintf(":%d", cfg.Port),
		server.Routes(server.Health{Env: cfg.Env, Debug: cfg.Debug, BootID: bootID}),
	)

	//
	// ── 5.  Serve until SIGINT or SIGTERM ───────────────────────────────
	//
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalw("shell stopped", "err", err)
	}
	log.Infow("automcp offline")
}

// debugFromEnv sniffs DEBUG before the snapshot exists.  Unknown tokens
// fall back to the compiled-in default (true); the loader re-validates the
// same variable strictly during Load.
func debugFromEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEBUG"))) {
	case "false", "0", "no", "off":
		return false
	}
	return true
}
