// internal/session/session.go
//
// Session credential plumbing.
//
// Context
//   The login sub-flow owns the credential.  Once the user signs in, the
//   credential travels with every request, either in the session cookie or
//   as an `Authorization: Bearer` header.  Middleware lifts it into the
//   request context, and ContextProvider hands it to the booking gate, so
//   nothing below the HTTP layer reads cookies or headers directly.
//
//   The credential stays opaque.  When it happens to be a JWT, the `exp`
//   claim is honoured so an expired token counts as "no session".  The
//   signature is not verified here; the backend does that.
//
// Usage
//     r.Use(session.Middleware("xplora_session"))
//     gate := booking.NewGate(session.ContextProvider{})
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultCookieName is used when configuration leaves the name blank.
const DefaultCookieName = "xplora_session"

// credKey is unexported to avoid context-key collisions.
type credKey struct{}

// WithCredential returns a new context carrying tok.
func WithCredential(ctx context.Context, tok string) context.Context {
	return context.WithValue(ctx, credKey{}, tok)
}

// Credential extracts the raw credential from ctx.  ok == false when none is
// set or it is empty.
func Credential(ctx context.Context) (string, bool) {
	tok, _ := ctx.Value(credKey{}).(string)
	return tok, tok != ""
}

/*──────────────────────────── middleware ──────────────────────────────────*/

// Middleware copies the credential from the named cookie, or from a bearer
// header when the cookie is absent, into the request context.
func Middleware(cookieName string) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := FromRequest(r, cookieName); tok != "" {
				r = r.WithContext(WithCredential(r.Context(), tok))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// FromRequest returns the credential carried by r, or "".
func FromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

/*──────────────────────────── provider ────────────────────────────────────*/

// ContextProvider reads the request-scoped credential.  The zero value uses
// the wall clock.
type ContextProvider struct {
	Now func() time.Time
}

// Credential implements booking.SessionProvider.
func (p ContextProvider) Credential(ctx context.Context) (string, bool) {
	tok, ok := Credential(ctx)
	if !ok {
		return "", false
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	if Expired(tok, now()) {
		return "", false
	}
	return tok, true
}

// Expired reports whether tok is a JWT whose exp lies before now.  Tokens
// that are not JWTs, or carry no exp, never expire here.
func Expired(tok string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time)
}

/*──────────────────────────── cookie helpers ──────────────────────────────*/

// Store sets the session cookie after the login sub-flow succeeds.
func Store(w http.ResponseWriter, r *http.Request, cookieName, tok string, ttl time.Duration) {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil, // only send over HTTPS
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
	})
}

// Clear removes the session cookie.
func Clear(w http.ResponseWriter, cookieName string) {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
