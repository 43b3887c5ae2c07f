// internal/config/loader.go
//
// Settings loader and reloader.
//
/*
Context
--------
`Load()` builds one immutable `Settings` struct from four layers (highest
precedence last):

  1. Compiled-in defaults (`defaultSettings`).
  2. Optional `conf/automcp.yaml`.
  3. Optional `.env` at the project root — values fill only variables the
     real environment leaves unset.
  4. Environment variables named in the field registry (`fields.go`);
     unknown names are ignored, empty values count as unset.

After merging, string tokens are coerced into their declared types,
`vault:` references are swapped for fetched secrets, and the tree is
unmarshalled into strongly-typed fields, validated, enriched with the
runtime root path, and cached in an `atomic.Pointer` for lock-free reads.
`Reload()` simply calls `Load()` again and swaps the pointer; a failed
reload leaves the previous snapshot in place.

Instrumentation
---------------
  • DEBUG spans — root discovery, YAML read, env overlay.
  • ERROR spans — YAML parse, coercion, resolution, unmarshal, validation.
  • INFO  span  — final “settings loaded” with non-secret highlights.
  • Counters — config_loads_total, config_load_errors_total.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed (bootstrap console).

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/automcp.yaml` or
    `.env`; this lets `go run ./cmd/automcp` work from any sub-directory.
  • Secret fetching is strictly opt-in: only a literal `vault:` value ever
    touches the network.  Plain values never do.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/automcp/internal/metrics"
	"github.com/yanizio/automcp/internal/vault"
)

var current atomic.Pointer[Settings]

// SecretSource fetches the value behind a secret reference.  The default is
// a Vault client built from VAULT_ADDR / VAULT_TOKEN; tests inject fakes.
type SecretSource interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Option tweaks a single Load call.
type Option func(*loadOptions)

type loadOptions struct {
	source SecretSource
}

// WithSecretSource overrides the resolver used for `vault:` references.
func WithSecretSource(src SecretSource) Option {
	return func(lo *loadOptions) { lo.source = src }
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves AUTOMCP_ROOT or climbs directories until a project
// marker (conf/automcp.yaml or .env) is found.  Falls back to the
// executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv("AUTOMCP_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "automcp.yaml")); err == nil {
			return dir
		}
		if _, err := os.Stat(filepath.Join(dir, ".env")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads defaults, YAML, .env, and env overrides, then coerces,
// resolves, validates, and caches the Settings snapshot.  On any failure it
// returns without touching the cached snapshot.
func Load(opts ...Option) (*Settings, error) {
	var lo loadOptions
	for _, o := range opts {
		o(&lo)
	}

	root := rootDir()
	zap.S().Debugw("settings root resolved", "root", root)

	// .env (optional, no error if missing).  godotenv never overwrites
	// variables already present in the environment, which is exactly the
	// precedence we want.
	_ = godotenv.Load(filepath.Join(root, ".env"))

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultSettings(), "koanf"), nil); err != nil {
		metrics.ConfigLoadErrorsTotal.Inc()
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	yamlPath := filepath.Join(root, "conf", "automcp.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			zap.S().Errorw("settings yaml load failed", "file", yamlPath, "err", err)
			metrics.ConfigLoadErrorsTotal.Inc()
			return nil, fmt.Errorf("config: read %s: %w", yamlPath, err)
		}
		zap.S().Debugw("settings yaml loaded", "file", yamlPath)
	}

	// Env overlay: registry keys only, e.g. PORT → port.
	if err := k.Load(env.ProviderWithValue("", ".", envToPath), nil); err != nil {
		zap.S().Errorw("settings env overlay failed", "err", err)
		metrics.ConfigLoadErrorsTotal.Inc()
		return nil, fmt.Errorf("config: env overlay: %w", err)
	}

	if err := coerceFields(k); err != nil {
		zap.S().Errorw("settings coercion failed", "err", err)
		metrics.ConfigLoadErrorsTotal.Inc()
		return nil, err
	}

	if err := resolveSecretRefs(k, lo.source); err != nil {
		zap.S().Errorw("settings secret resolution failed", "err", err)
		metrics.ConfigLoadErrorsTotal.Inc()
		return nil, err
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		zap.S().Errorw("settings unmarshal failed", "err", err)
		metrics.ConfigLoadErrorsTotal.Inc()
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	s.Paths.Root = root
	if err := validateSettings(&s); err != nil {
		zap.S().Errorw("settings validation failed", "err", err)
		metrics.ConfigLoadErrorsTotal.Inc()
		return nil, err
	}

	current.Store(&s)
	metrics.ConfigLoadsTotal.Inc()
	zap.S().Infow("settings loaded",
		"env", s.Env,
		"debug", s.Debug,
		"port", s.Port,
		"root", s.Paths.Root,
	)
	return &s, nil
}

/*──────────────────────────── merge passes ─────────────────────────────────*/

// coerceFields normalizes every registry entry in the merged tree to its
// native type.  Values arriving from the environment are always strings;
// YAML may contribute raw ints or bools, which pass through untouched.
func coerceFields(k *koanf.Koanf) error {
	for _, f := range fields {
		if !k.Exists(f.path) {
			continue
		}
		raw := k.Get(f.path)
		switch f.kind {
		case kindBool:
			b, err := coerceBool(raw)
			if err != nil {
				return &ValidationError{Field: f.env, Reason: err.Error()}
			}
			if err := k.Set(f.path, b); err != nil {
				return fmt.Errorf("config: set %s: %w", f.path, err)
			}
		case kindInt:
			n, err := coerceInt(raw)
			if err != nil {
				return &ValidationError{Field: f.env, Reason: err.Error()}
			}
			if err := k.Set(f.path, n); err != nil {
				return fmt.Errorf("config: set %s: %w", f.path, err)
			}
		case kindString, kindSecret:
			switch raw.(type) {
			case string, Secret:
				// Already string-kind.  Secret must not pass through
				// fmt, whose %v renders the mask.
			default:
				if err := k.Set(f.path, fmt.Sprintf("%v", raw)); err != nil {
					return fmt.Errorf("config: set %s: %w", f.path, err)
				}
			}
		}
	}
	return nil
}

// resolveSecretRefs swaps `vault:` references for fetched values before
// unmarshal, so the model only ever stores plain strings.  The resolver is
// built lazily on the first reference encountered.
func resolveSecretRefs(k *koanf.Koanf, src SecretSource) error {
	ctx := context.Background()
	for _, f := range fields {
		if f.kind != kindString && f.kind != kindSecret {
			continue
		}
		var raw string
		switch v := k.Get(f.path).(type) {
		case string:
			raw = v
		case Secret:
			raw = v.Reveal()
		default:
			continue
		}
		if !vault.IsRef(raw) {
			continue
		}
		if src == nil {
			if os.Getenv("VAULT_ADDR") == "" {
				return &ValidationError{Field: f.env, Reason: "vault reference requires VAULT_ADDR"}
			}
			r, err := vault.New()
			if err != nil {
				return fmt.Errorf("config: vault client: %w", err)
			}
			src = r
		}
		val, err := src.Resolve(ctx, raw)
		if err != nil {
			return fmt.Errorf("config: resolve %s: %w", f.env, err)
		}
		if err := k.Set(f.path, val); err != nil {
			return fmt.Errorf("config: set %s: %w", f.path, err)
		}
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Get returns the cached snapshot, or nil before the first successful Load.
func Get() *Settings { return current.Load() }

// Reload re-runs Load and swaps the snapshot; on failure the old snapshot
// stays visible to readers.
func Reload() error { _, err := Load(); return err }
