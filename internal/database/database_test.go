// internal/database/database_test.go
//
// Run: go test ./internal/database -v

package database

import (
	"context"
	"testing"
	"time"
)

func TestOpen_BadDSN(t *testing.T) {
	if _, err := Open(context.Background(), "no-slash-here"); err == nil {
		t.Fatal("expected DSN parse error")
	}
}

func TestOpen_UnreachableHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	opts := DefaultOptions()
	opts.Retries = 100
	opts.RetryBackoff = 50 * time.Millisecond

	start := time.Now()
	_, err := OpenWithOptions(ctx, "u:p@tcp(127.0.0.1:1)/x?timeout=50ms", opts)
	if err == nil {
		t.Fatal("expected connection error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("retry loop ignored context deadline (%v)", time.Since(start))
	}
}
