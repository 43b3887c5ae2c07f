// internal/logger/router_test.go
//
// Unit-tests for the log router.
//
// Context
// -------
// The router's contract has sharp edges that regress silently, so each one
// gets a focused test:
//
//   • execution records reach execution.log ONLY          → channel purity
//   • file lines stay one-JSON-object-per-line under load → concurrency
//   • sinks rotate at MaxSizeMB and honour MaxBackups     → rotation
//   • Init is idempotent; second call duplicates nothing  → idempotence
//   • quiet loggers are console-only at WARN and above    → noise control
//   • SetDebug flips the console, never the files         → verbosity
//   • unusable paths fail construction with *InitError    → fail fast
//
// Workflow / Structure
// --------------------
// Every test builds a fresh Router via New with a bytes.Buffer console and
// a temp dir, then closes it before reading files.  Rotation settling is
// polled: Lumberjack prunes old backups on a background goroutine.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
// • Lines ≤ 100 columns.

package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newTestRouter builds a Router writing to a temp dir and a buffer console.
func newTestRouter(t *testing.T, opts Options) (*Router, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	buf := &bytes.Buffer{}
	opts.Dir = dir
	opts.Console = buf

	r, err := New(opts)
	if err != nil {
		t.Fatalf("New() = %v, want nil", err)
	}
	return r, buf, dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestRouter_ChannelPurity(t *testing.T) {
	r, buf, dir := newTestRouter(t, Options{})

	r.System().Infow("system marker")
	r.Named("planner").Infow("named marker")
	r.Execution().Infow("execution marker", "task_id", "t-1")
	if err := r.Close(); err != nil {
		t.Fatalf("Close() = %v, want nil", err)
	}

	sys := readFile(t, filepath.Join(dir, "automcp.log"))
	exec := readFile(t, filepath.Join(dir, "execution.log"))

	if !strings.Contains(sys, "system marker") || !strings.Contains(sys, "named marker") {
		t.Fatalf("automcp.log missing system records:\n%s", sys)
	}
	if strings.Contains(sys, "execution marker") {
		t.Fatalf("execution record leaked into automcp.log:\n%s", sys)
	}
	if !strings.Contains(exec, "execution marker") {
		t.Fatalf("execution.log missing its record:\n%s", exec)
	}
	if strings.Contains(exec, "system marker") || strings.Contains(exec, "logging online") {
		t.Fatalf("system record leaked into execution.log:\n%s", exec)
	}
	if strings.Contains(buf.String(), "execution marker") {
		t.Fatalf("execution record leaked to the console:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "system marker") {
		t.Fatalf("console missing the system record:\n%s", buf.String())
	}
}

func TestRouter_JSONLinesUnderConcurrency(t *testing.T) {
	r, _, dir := newTestRouter(t, Options{})

	const (
		goroutines = 40
		perWorker  = 25
	)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := r.Named("worker")
			for i := 0; i < perWorker; i++ {
				l.Infow("burst", "i", i)
			}
		}()
	}
	wg.Wait()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() = %v, want nil", err)
	}

	var bursts int
	for _, line := range strings.Split(strings.TrimSpace(readFile(t, filepath.Join(dir, "automcp.log"))), "\n") {
		var rec map[string]interface{}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("interleaved or torn line %q: %v", line, err)
		}
		if rec["msg"] == "burst" {
			bursts++
		}
	}
	if want := goroutines * perWorker; bursts != want {
		t.Fatalf("burst records = %d, want %d", bursts, want)
	}
}

func TestRouter_NamedReturnsSameInstance(t *testing.T) {
	r, _, _ := newTestRouter(t, Options{})
	defer r.Close()

	if r.Named("planner") != r.Named("planner") {
		t.Fatalf("Named() returned different loggers for one name")
	}
	if r.Named("planner") == r.Named("executor") {
		t.Fatalf("Named() shared a logger across names")
	}
	if r.Named(ExecutionChannel) != r.Execution() {
		t.Fatalf("Named(%q) and Execution() disagree", ExecutionChannel)
	}
}

func TestRouter_RotationKeepsBackupBudget(t *testing.T) {
	r, _, dir := newTestRouter(t, Options{MaxSizeMB: 1, MaxBackups: 2})

	// ~3.7 MiB across 3200 records forces at least three rotations, so the
	// pruner must discard at least one backup to hold the budget of two.
	pad := strings.Repeat("x", 1024)
	sys := r.System()
	for i := 0; i < 3200; i++ {
		sys.Infow(pad)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() = %v, want nil", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		backups, _ := filepath.Glob(filepath.Join(dir, "automcp-*"))
		if len(backups) == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("backups = %d after settle, want 2 (%v)", len(backups), backups)
		}
		time.Sleep(50 * time.Millisecond)
	}

	fi, err := os.Stat(filepath.Join(dir, "automcp.log"))
	if err != nil {
		t.Fatalf("stat active file: %v", err)
	}
	if fi.Size() > 1<<20 {
		t.Fatalf("active file = %d bytes, want under the 1 MiB threshold", fi.Size())
	}
}

func TestInit_Idempotent(t *testing.T) {
	defaultMu.Lock()
	saved := defaultRouter
	defaultRouter = nil
	defaultMu.Unlock()
	prevGlobal := zap.L()
	t.Cleanup(func() {
		defaultMu.Lock()
		defaultRouter = saved
		defaultMu.Unlock()
		zap.ReplaceGlobals(prevGlobal)
	})

	dir1, dir2 := t.TempDir(), t.TempDir()
	buf := &bytes.Buffer{}

	r1, err := Init(Options{Dir: dir1, Console: buf})
	if err != nil {
		t.Fatalf("first Init() = %v, want nil", err)
	}
	r2, err := Init(Options{Dir: dir2, Console: buf})
	if err != nil {
		t.Fatalf("second Init() = %v, want nil", err)
	}
	if r1 != r2 {
		t.Fatalf("Init() built a second router")
	}
	if _, err := os.Stat(filepath.Join(dir2, "automcp.log")); !os.IsNotExist(err) {
		t.Fatalf("second Init() touched its directory; sinks were duplicated")
	}

	zap.S().Infow("global marker") // ReplaceGlobals must route zap.S() here
	r1.Named("once").Infow("single marker")
	if err := r1.Close(); err != nil {
		t.Fatalf("Close() = %v, want nil", err)
	}

	sys := readFile(t, filepath.Join(dir1, "automcp.log"))
	if got := strings.Count(sys, "single marker"); got != 1 {
		t.Fatalf("single marker appears %d times, want exactly 1", got)
	}
	if !strings.Contains(sys, "global marker") {
		t.Fatalf("zap.S() did not route to the system channel:\n%s", sys)
	}
}

func TestRouter_QuietLoggerConsoleOnlyWarn(t *testing.T) {
	r, buf, dir := newTestRouter(t, Options{Quiet: []string{"httpclient"}})

	q := r.Named("httpclient")
	q.Infow("quiet info")
	q.Warnw("quiet warn")
	if err := r.Close(); err != nil {
		t.Fatalf("Close() = %v, want nil", err)
	}

	if strings.Contains(buf.String(), "quiet info") {
		t.Fatalf("quiet logger emitted INFO to the console:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "quiet warn") {
		t.Fatalf("quiet logger dropped WARN:\n%s", buf.String())
	}
	sys := readFile(t, filepath.Join(dir, "automcp.log"))
	if strings.Contains(sys, "quiet warn") || strings.Contains(sys, "quiet info") {
		t.Fatalf("quiet logger reached the file sink:\n%s", sys)
	}
}

func TestRouter_SetDebugFlipsConsoleNotFiles(t *testing.T) {
	r, buf, dir := newTestRouter(t, Options{Debug: false})

	sys := r.System()
	sys.Debugw("hidden debug")
	r.SetDebug(true)
	sys.Debugw("visible debug")
	r.SetDebug(false)
	sys.Debugw("hidden again")
	if err := r.Close(); err != nil {
		t.Fatalf("Close() = %v, want nil", err)
	}

	out := buf.String()
	if strings.Contains(out, "hidden debug") || strings.Contains(out, "hidden again") {
		t.Fatalf("console showed DEBUG while disabled:\n%s", out)
	}
	if !strings.Contains(out, "visible debug") {
		t.Fatalf("console missed DEBUG while enabled:\n%s", out)
	}
	file := readFile(t, filepath.Join(dir, "automcp.log"))
	if strings.Contains(file, "visible debug") {
		t.Fatalf("DEBUG record reached the INFO-pinned file sink:\n%s", file)
	}
}

func TestNew_UnusablePathsFailFast(t *testing.T) {
	base := t.TempDir()

	// Dir collides with an existing file: MkdirAll must fail.
	blocked := filepath.Join(base, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatalf("stage file: %v", err)
	}
	_, err := New(Options{Dir: blocked})
	var ierr *InitError
	if !errors.As(err, &ierr) {
		t.Fatalf("New() = %v, want *InitError", err)
	}
	if ierr.Op != "mkdir" {
		t.Fatalf("Op = %q, want mkdir", ierr.Op)
	}

	// Sink path occupied by a directory: the eager probe must fail.
	dir := filepath.Join(base, "logs")
	if err := os.MkdirAll(filepath.Join(dir, "automcp.log"), 0o755); err != nil {
		t.Fatalf("stage dir: %v", err)
	}
	_, err = New(Options{Dir: dir})
	if !errors.As(err, &ierr) {
		t.Fatalf("New() = %v, want *InitError", err)
	}
	if ierr.Op != "open" || !strings.Contains(ierr.Path, "automcp.log") {
		t.Fatalf("InitError = %+v, want open failure on automcp.log", ierr)
	}
}

func TestThrottledSyncer_ShedsBeyondBurst(t *testing.T) {
	var buf bytes.Buffer
	ts := newThrottledSyncer(zapcore.AddSync(&buf))

	for i := 0; i < 10; i++ {
		n, err := ts.Write([]byte("x"))
		if err != nil || n != 1 {
			t.Fatalf("Write() = (%d, %v), want (1, nil)", n, err)
		}
	}
	if buf.Len() != 5 {
		t.Fatalf("console received %d notices, want the burst budget of 5", buf.Len())
	}
}
