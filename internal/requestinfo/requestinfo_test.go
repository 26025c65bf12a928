// internal/requestinfo/requestinfo_test.go
//
// Run: go test ./internal/requestinfo -v

package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yanizio/xplora/internal/logger"
)

const chromeMac = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.6422.112 Safari/537.36"

func TestEnrich(t *testing.T) {
	var got *RequestInfo
	var logged bool
	h := Enrich(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		logged = logger.FromContext(r.Context()) != nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/review/abc?x=1", nil)
	req.Header.Set("User-Agent", chromeMac)
	req.Header.Set("Accept-Language", "es-MX;q=0.9, en;q=0.8")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got == nil {
		t.Fatal("RequestInfo missing from context")
	}
	if got.IP.String() != "203.0.113.9" {
		t.Errorf("ip = %v", got.IP)
	}
	if got.PrimaryLang != "es-mx" {
		t.Errorf("lang = %q", got.PrimaryLang)
	}
	if got.UA.Device != "Desktop" || got.UA.IsBot {
		t.Errorf("ua = %+v", got.UA)
	}
	if got.RequestID == "" || rec.Header().Get(HeaderRequestID) != got.RequestID {
		t.Errorf("request id %q not echoed (%q)", got.RequestID, rec.Header().Get(HeaderRequestID))
	}
	if !logged {
		t.Error("logger not attached")
	}
}

func TestEnrich_KeepsInboundRequestID(t *testing.T) {
	var id string
	h := Enrich(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = FromContext(r.Context()).RequestID
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if id != "abc-123" {
		t.Fatalf("request id = %q", id)
	}
}

func TestClientIP_RemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.4:5555"
	if ip := clientIP(req); ip.String() != "192.0.2.4" {
		t.Fatalf("ip = %v", ip)
	}
}

func TestFromContext_Missing(t *testing.T) {
	if FromContext(t.Context()) != nil {
		t.Fatal("expected nil without middleware")
	}
}
