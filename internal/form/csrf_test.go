package form

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func testSigner(now time.Time) *Signer {
	key := base64.RawURLEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	s := NewSigner(key, time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestSigner_RoundTrip(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	s := testSigner(now)

	tok, err := s.Generate("draft-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !s.Verify("draft-1", tok) {
		t.Fatal("fresh token rejected")
	}
	if s.Verify("draft-2", tok) {
		t.Fatal("token accepted for another draft")
	}
	raw, _ := base64.RawURLEncoding.DecodeString(tok)
	raw[len(raw)-1] ^= 0xFF
	if s.Verify("draft-1", base64.RawURLEncoding.EncodeToString(raw)) {
		t.Fatal("tampered token accepted")
	}
	if s.Verify("draft-1", "") {
		t.Fatal("empty token accepted")
	}
}

func TestSigner_Expiry(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	s := testSigner(now)
	tok, _ := s.Generate("d")

	s.now = func() time.Time { return now.Add(2 * time.Hour) }
	if s.Verify("d", tok) {
		t.Fatal("expired token accepted")
	}

	s.now = func() time.Time { return now.Add(-5 * time.Minute) }
	if s.Verify("d", tok) {
		t.Fatal("future-dated token accepted")
	}
}

func TestSigner_RandomKeyFallback(t *testing.T) {
	a := NewSigner("", 0)
	b := NewSigner("not base64!", 0)
	tok, _ := a.Generate("d")
	if !a.Verify("d", tok) {
		t.Fatal("signer rejects its own token")
	}
	if b.Verify("d", tok) {
		t.Fatal("independent random keys must not agree")
	}
}
