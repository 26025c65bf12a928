// internal/vault/vault.go
//
// Secret lookup for configuration values.
//
// Context
// -------
// Any configuration string of the form `vault:<mount>/<path>#<key>` names a
// field of a KV v2 secret.  The config loader hands such strings to Resolve
// before it unmarshals the tree, which keeps the database password and the
// backend API key out of YAML and .env files.
//
// A Client holds one Vault token for the life of the process.  While the
// boot context is live a goroutine keeps that token renewed; a token that
// cannot be renewed is checked again hourly.
//
// Usage
// -----
//
//	cli, err := vault.New(ctx, zap.S().Infof)
//	dsnPass, err := cli.Resolve(ctx, "vault:kv/xplora/db#password")
//
// Notes
// -----
//   - VAULT_ADDR and the other VAULT_* variables are read by the SDK.
//     VAULT_TOKEN, when set, wins over ~/.vault-token.
//   - Looked-up values are memoised per path#key; Resolve keeps them for
//     ResolveTTL.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
)

// RefPrefix marks a configuration value as a Vault reference.
const RefPrefix = "vault:"

// ResolveTTL is how long Resolve reuses a looked-up value.
const ResolveTTL = 10 * time.Minute

const (
	retryAfterError   = 30 * time.Second
	retryAfterStop    = 15 * time.Second
	recheckNonRenewal = time.Hour
	renewGrace        = 15 * time.Second
)

// Client reads KV v2 secrets.  Build it with New.
type Client struct {
	api   *vault.Client
	logFn func(string, ...any)
	memo  memo
}

// New reads the VAULT_* environment, builds the SDK client, and starts token
// renewal tied to ctx.  logFn receives renewal events and may be nil.
func New(ctx context.Context, logFn func(string, ...any)) (*Client, error) {
	if logFn == nil {
		logFn = func(string, ...any) {}
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault environment: %w", err)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		api.SetToken(tok)
	}

	c := &Client{api: api, logFn: logFn}
	go c.keepTokenAlive(ctx)
	return c, nil
}

// ParseRef splits "vault:<path>#<key>".  ok is false for anything else.
func ParseRef(s string) (path, key string, ok bool) {
	rest, found := strings.CutPrefix(s, RefPrefix)
	if !found {
		return "", "", false
	}
	path, key, found = strings.Cut(rest, "#")
	if !found || path == "" || key == "" {
		return "", "", false
	}
	return path, key, true
}

// Resolve looks up the secret field named by ref.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	path, key, ok := ParseRef(ref)
	if !ok {
		return "", fmt.Errorf("malformed vault reference %q (want vault:<path>#<key>)", ref)
	}
	return c.GetKV(ctx, path, key, ResolveTTL)
}

// GetKV returns field key of the KV v2 secret at secretPath, where the first
// path segment is the mount.  With ttl > 0 the value is reused until it
// expires.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("vault: empty secret path or key")
	}
	id := secretPath + "#" + key
	if ttl > 0 {
		if v, ok := c.memo.get(id, time.Now()); ok {
			return v, nil
		}
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault read %s: %w", secretPath, err)
	}
	v, ok := sec.Data[key].(string)
	if !ok {
		return "", fmt.Errorf("vault %s: no string field %q", secretPath, key)
	}

	if ttl > 0 {
		c.memo.put(id, v, time.Now().Add(ttl))
	}
	return v, nil
}

/*──────────────────────────── memo ────────────────────────────────────────*/

type memoEntry struct {
	val     string
	expires time.Time
}

// memo is a small expiring map.  The zero value is ready.
type memo struct {
	mu sync.RWMutex
	m  map[string]memoEntry
}

func (m *memo) get(id string, now time.Time) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.m[id]
	if !ok || !now.Before(e.expires) {
		return "", false
	}
	return e.val, true
}

func (m *memo) put(id, val string, expires time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.m == nil {
		m.m = make(map[string]memoEntry)
	}
	m.m[id] = memoEntry{val: val, expires: expires}
}

/*──────────────────────────── token renewal ───────────────────────────────*/

// keepTokenAlive runs until ctx ends.  Each round looks the token up with a
// self-renew, then follows a lifetime watcher until it stops.
func (c *Client) keepTokenAlive(ctx context.Context) {
	for ctx.Err() == nil {
		wait := c.renewRound(ctx)
		sleep(ctx, wait)
	}
}

// renewRound returns how long to wait before the next round.
func (c *Client) renewRound(ctx context.Context) time.Duration {
	sec, err := c.api.Auth().Token().RenewSelf(0)
	if err != nil {
		c.logFn("vault: renew-self: %v", err)
		return retryAfterError
	}
	if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
		c.logFn("vault: token not renewable, checking again in %s", recheckNonRenewal)
		return recheckNonRenewal
	}

	w, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{Secret: sec, Grace: renewGrace})
	if err != nil {
		c.logFn("vault: lifetime watcher: %v", err)
		return retryAfterError
	}
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0
		case err := <-w.DoneCh():
			if err != nil {
				c.logFn("vault: token watcher stopped: %v", err)
			}
			return retryAfterStop
		case r := <-w.RenewCh():
			if r != nil && r.Secret != nil && r.Secret.Auth != nil {
				c.logFn("vault: token renewed for %ds", r.Secret.Auth.LeaseDuration)
			}
		}
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// splitMount cuts "kv/app/db" into "kv" and "app/db".
func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return mount, rel
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
