// internal/server/run.go
//
// Serve-until-cancelled loop with graceful shutdown.
//
// Run starts srv in a goroutine and blocks until either the listener fails
// or ctx is cancelled (SIGINT / SIGTERM in cmd/web).  On cancellation it
// gives in-flight requests, including booking submissions waiting on the
// backend, up to `grace` to finish before the listener is torn down.

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultGrace applies when Run receives a zero grace period.
const DefaultGrace = 20 * time.Second

// Run serves srv until ctx ends, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, grace time.Duration) error {
	if grace <= 0 {
		grace = DefaultGrace
	}

	errCh := make(chan error, 1)
	go func() {
		zap.S().Infow("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zap.S().Infow("http server shutting down", "grace", grace)
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	zap.S().Info("http server stopped")
	return nil
}
