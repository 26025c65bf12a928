// internal/session/session_test.go
//
// Run: go test ./internal/session -v

package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-17",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestMiddleware_Sources(t *testing.T) {
	cases := []struct {
		name  string
		setup func(r *http.Request)
		want  string
	}{
		{"none", func(*http.Request) {}, ""},
		{"cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "from-cookie"})
		}, "from-cookie"},
		{"bearer", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer from-header")
		}, "from-header"},
		{"cookie wins", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "from-cookie"})
			r.Header.Set("Authorization", "Bearer from-header")
		}, "from-cookie"},
		{"basic ignored", func(r *http.Request) {
			r.Header.Set("Authorization", "Basic dXNlcjpwdw==")
		}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			h := Middleware("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = Credential(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tc.want {
				t.Fatalf("credential = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestContextProvider_Expiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := ContextProvider{Now: func() time.Time { return now }}

	live := WithCredential(t.Context(), signed(t, now.Add(time.Hour)))
	if _, ok := p.Credential(live); !ok {
		t.Error("live JWT rejected")
	}

	stale := WithCredential(t.Context(), signed(t, now.Add(-time.Minute)))
	if _, ok := p.Credential(stale); ok {
		t.Error("expired JWT accepted")
	}

	opaque := WithCredential(t.Context(), "opaque-session-id")
	if tok, ok := p.Credential(opaque); !ok || tok != "opaque-session-id" {
		t.Errorf("opaque token = %q, %v", tok, ok)
	}

	if _, ok := p.Credential(t.Context()); ok {
		t.Error("missing credential accepted")
	}
}

func TestStoreAndClear(t *testing.T) {
	rec := httptest.NewRecorder()
	Store(rec, httptest.NewRequest(http.MethodPost, "/", nil), "", "tok", time.Hour)
	c := rec.Result().Cookies()
	if len(c) != 1 || c[0].Name != DefaultCookieName || c[0].Value != "tok" || !c[0].HttpOnly {
		t.Fatalf("cookies = %+v", c)
	}

	rec = httptest.NewRecorder()
	Clear(rec, "")
	c = rec.Result().Cookies()
	if len(c) != 1 || c[0].MaxAge >= 0 {
		t.Fatalf("clear cookies = %+v", c)
	}
}
