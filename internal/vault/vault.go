// internal/vault/vault.go
//
// Vault-backed secret reference resolver for AutoMCP.
//
// Context
// -------
//   - Settings values may hold references of the form
//     `vault:<mount>/<path>#<key>` instead of literal secrets.  The loader
//     swaps each reference for the fetched value before unmarshal, so the
//     rest of the process only ever sees plain strings.
//   - Wraps the HashiCorp Vault Go SDK with KV-v2 reads and a per-path
//     fetch cache, so several references into one secret cost one request.
//   - Resolution is strictly opt-in: nothing here runs unless a value
//     carries the `vault:` prefix.
//
// Public workflow
// ---------------
//  1. r, err := vault.New()                  // when the first ref appears.
//  2. val, err := r.Resolve(ctx, ref)        // once per referencing field.
//
// Build tags: none.
package vault

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	vault "github.com/hashicorp/vault/api"
)

// refScheme prefixes every secret reference.
const refScheme = "vault:"

// IsRef reports whether a settings value is a secret reference.
func IsRef(s string) bool { return strings.HasPrefix(s, refScheme) }

//
// SECTION 1.  Public façade
//

// Resolver is safe for concurrent use.  Zero value is invalid.
type Resolver struct {
	api *vault.Client

	mu    sync.Mutex
	cache map[string]map[string]interface{} // secret path → fetched data
}

// New constructs a Resolver from the standard Vault environment.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – token (falls back to ~/.vault-token).
func New() (*Resolver, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}

	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	return &Resolver{
		api:   apiCli,
		cache: make(map[string]map[string]interface{}),
	}, nil
}

// Resolve parses ref and reads the named key from its KV-v2 secret.  Errors
// quote the reference and path, never fetched values.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	secretPath, key, err := parseRef(ref)
	if err != nil {
		return "", err
	}

	data, err := r.fetch(ctx, secretPath)
	if err != nil {
		return "", err
	}

	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}
	return sval, nil
}

//
// SECTION 2.  Fetch cache
//

// fetch returns the data map for one secret path, reading it at most once
// per Resolver lifetime.
func (r *Resolver) fetch(ctx context.Context, secretPath string) (map[string]interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.cache[secretPath]; ok {
		return d, nil
	}

	mount, rel := splitMount(secretPath)
	if mount == "" || rel == "" {
		return nil, fmt.Errorf("secret path %q must look like <mount>/<path>", secretPath)
	}

	sec, err := r.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return nil, fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	r.cache[secretPath] = sec.Data
	return sec.Data, nil
}

//
// SECTION 3.  Helpers
//

// parseRef splits `vault:<mount>/<path>#<key>` into its secret path and key.
func parseRef(ref string) (string, string, error) {
	if !IsRef(ref) {
		return "", "", fmt.Errorf("not a vault reference: %q", ref)
	}
	rest := strings.TrimPrefix(ref, refScheme)
	secretPath, key, found := strings.Cut(rest, "#")
	if !found || key == "" {
		return "", "", fmt.Errorf("vault reference %q needs a #key suffix", ref)
	}
	if secretPath == "" {
		return "", "", fmt.Errorf("vault reference %q needs a secret path", ref)
	}
	return secretPath, key, nil
}

func splitMount(p string) (mount, rel string) {
	if p == "" {
		return "", ""
	}
	parts := strings.SplitN(p, "/", 2)
	mount = parts[0]
	if len(parts) == 2 {
		rel = parts[1]
	}
	return
}
