// internal/config/model.go
//
// Typed configuration model for Xplora.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                          – dotenv values,
//   • `conf/global.yaml`                       – primary static file,
//   • `XPLORA_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml`
//     tags unless configured otherwise.
//   • Durations accept Go syntax ("30s", "15m").
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"fmt"
	"strings"
	"time"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr      string        `koanf:"listen_addr"      validate:"required,hostname_port"`
	ForceHTTPS      bool          `koanf:"force_https"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"gte=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

//
// Log section
//

// Log selects the minimum level written to the daily file.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Database section
//

// Database holds the catalog DSN template and its secret.
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host, port,
// or flags without touching Vault.  The *secret* portion (`Password`) is
// normally a `vault:` reference and is spliced into the first `%s` verb.
type Database struct {
	DSN          string        `koanf:"dsn"            validate:"required"`
	Password     string        `koanf:"password"`
	MaxOpenConns int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int           `koanf:"max_idle_conns" validate:"gte=0"`
	CacheSize    int           `koanf:"cache_size"     validate:"gte=0"`
	CacheTTL     time.Duration `koanf:"cache_ttl"      validate:"gte=0"`
}

// ResolvedDSN returns DSN with Password substituted for its `%s` verb.  A
// template without a verb is returned unchanged.
func (d Database) ResolvedDSN() string {
	if strings.Contains(d.DSN, "%s") {
		return fmt.Sprintf(d.DSN, d.Password)
	}
	return d.DSN
}

//
// Backend section
//

// Backend points at the reservation API that creates bookings.
type Backend struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout"  validate:"gte=0"`
	APIKey  string        `koanf:"api_key"`
}

//
// Session section
//

// Session names the cookie carrying the login credential.
type Session struct {
	CookieName string        `koanf:"cookie_name"`
	CookieTTL  time.Duration `koanf:"cookie_ttl" validate:"gte=0"`
}

//
// Booking section
//

// Booking tunes the review workflow.
type Booking struct {
	ResumeAfterLogin bool   `koanf:"resume_after_login"`
	FallbackImage    string `koanf:"fallback_image" validate:"omitempty,url"`
}

//
// Drafts section
//

// Drafts bounds the in-memory review store.
type Drafts struct {
	IdleTTL    time.Duration `koanf:"idle_ttl"    validate:"gte=0"`
	MaxEntries int           `koanf:"max_entries" validate:"gte=0"`
}

//
// CSRF section
//

// CSRF configures draft-bound request tokens.  An empty key makes the
// process generate a random one at boot, which breaks tokens across
// restarts and replicas.
type CSRF struct {
	Key    string        `koanf:"key"`
	MaxAge time.Duration `koanf:"max_age" validate:"gte=0"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or XPLORA_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // XPLORA_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Log      Log      `koanf:"log"`
	Database Database `koanf:"database"`
	Backend  Backend  `koanf:"backend"`
	Session  Session  `koanf:"session"`
	Booking  Booking  `koanf:"booking"`
	Drafts   Drafts   `koanf:"drafts"`
	CSRF     CSRF     `koanf:"csrf"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
