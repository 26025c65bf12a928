// internal/booking/gate.go
//
// Authentication gate.
//
// The gate never reads ambient storage.  Its credential source is injected
// as a SessionProvider, so the HTTP layer supplies a request-context
// provider and tests supply a fake.

package booking

import "context"

// SessionProvider looks up the current session credential.
type SessionProvider interface {
	Credential(ctx context.Context) (string, bool)
}

// SessionFunc adapts a plain function to SessionProvider.
type SessionFunc func(ctx context.Context) (string, bool)

// Credential implements SessionProvider.
func (f SessionFunc) Credential(ctx context.Context) (string, bool) { return f(ctx) }

// Gate checks for a session before a booking may be submitted.
type Gate struct {
	sessions SessionProvider
}

// NewGate wraps sp.  A nil provider denies every request.
func NewGate(sp SessionProvider) *Gate { return &Gate{sessions: sp} }

// RequireSession returns the credential or ErrUnauthenticated.
func (g *Gate) RequireSession(ctx context.Context) (string, error) {
	if g == nil || g.sessions == nil {
		return "", ErrUnauthenticated
	}
	tok, ok := g.sessions.Credential(ctx)
	if !ok || tok == "" {
		return "", ErrUnauthenticated
	}
	return tok, nil
}
