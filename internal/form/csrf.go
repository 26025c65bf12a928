// internal/form/csrf.go
//
// Xplora – Forms subsystem: stateless CSRF token utilities.
//
// Context
//   Draft snapshots carry a `csrfToken` generated at read time.  Every
//   mutating request must echo it in the `X-CSRF-Token` header so the server
//   knows the call came from a client that fetched the draft.  The token is
//   stateless:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(key, draftID+nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  HMAC – keyed by the configured secret and bound to one draft ID.
//
// Workflow
//   •  NewSigner(key, maxAge) → one per process.
//   •  Generate(draftID)     → token string for snapshots.
//   •  Verify(draftID, tok)  → constant-time verify; false on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"time"

	"go.uber.org/zap"
)

const (
	tokenBytes    = 16 + 8 + sha256.Size // nonce + ts + sig
	defaultMaxAge = 2 * time.Hour
	minKeyBytes   = 32
)

// Signer issues and verifies CSRF tokens.  Safe for concurrent use.
type Signer struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewSigner builds a Signer from a base64url key of at least 32 bytes.  When
// the key is empty or malformed an ephemeral random key is generated and a
// warning is logged; tokens then reset on restart.
func NewSigner(encodedKey string, maxAge time.Duration) *Signer {
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	s := &Signer{maxAge: maxAge, now: time.Now}

	if encodedKey != "" {
		if b, err := base64.RawURLEncoding.DecodeString(encodedKey); err == nil && len(b) >= minKeyBytes {
			s.key = b
			return s
		}
	}

	s.key = make([]byte, minKeyBytes)
	_, _ = rand.Read(s.key)
	zap.S().Warnw("csrf key not configured – using random key")
	return s
}

// Generate creates a new token bound to draftID.
func (s *Signer) Generate(draftID string) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(s.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, s.sign(draftID, nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify returns true if tok was issued for draftID and is within MaxAge.
func (s *Signer) Verify(draftID, tok string) bool {
	if tok == "" {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	// Timestamp window check.
	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := s.now()
	if now.Sub(issued) > s.maxAge || issued.Sub(now) > time.Minute {
		// Future timestamp (clock skew) or older than maxAge.
		return false
	}

	return hmac.Equal(sig, s.sign(draftID, nonce, tsBytes))
}

func (s *Signer) sign(draftID string, nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(draftID))
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}
