// cmd/web/main.go
//
// Xplora booking review service – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load configuration (.env → conf/global.yaml → XPLORA_ env, with
//     `vault:` references resolved).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Open the catalog DB and build the product repository.
//
//  4. Build the draft store and the booking backend client.
//
//  5. Expose Prometheus /metrics endpoint.
//
//  6. Build the root router:
//
//     • panic recovery           – chi Recoverer
//     • request enrichment       – requestinfo.Enrich (UA, IP, request ID)
//     • security headers         – middleware.Security
//     • components               – component.Mount (booking at /booking)
//
//  7. Wrap with ForceHTTPS and serve until SIGINT / SIGTERM, then drain
//     in-flight requests.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap/zapcore"

	"github.com/yanizio/xplora/internal/backend"
	"github.com/yanizio/xplora/internal/catalog"
	"github.com/yanizio/xplora/internal/component"
	"github.com/yanizio/xplora/internal/config"
	"github.com/yanizio/xplora/internal/database"
	"github.com/yanizio/xplora/internal/draft"
	"github.com/yanizio/xplora/internal/logger"
	_ "github.com/yanizio/xplora/internal/metrics" // registers collectors
	"github.com/yanizio/xplora/internal/middleware"
	"github.com/yanizio/xplora/internal/requestinfo"
	"github.com/yanizio/xplora/internal/server"

	_ "github.com/yanizio/xplora/components/booking" // review workflow
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Configuration ────────────────────────────────────────────────
	//
	cfg, err := config.LoadContext(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	//
	// ── 2.  Logger ───────────────────────────────────────────────────────
	//
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatalf("log level: %v", err)
	}
	logOut, err := logger.New(cfg.Paths.Root, runningInTTY(), level)
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 3.  Catalog DB ───────────────────────────────────────────────────
	//
	dbOpts := database.DefaultOptions()
	if cfg.Database.MaxOpenConns > 0 {
		dbOpts.MaxOpenConns = cfg.Database.MaxOpenConns
	}
	if cfg.Database.MaxIdleConns > 0 {
		dbOpts.MaxIdleConns = cfg.Database.MaxIdleConns
	}
	logOut.Info("connecting to catalog DB …")
	db, err := database.OpenWithOptions(ctx, cfg.Database.ResolvedDSN(), dbOpts)
	if err != nil {
		logOut.Fatalw("connect catalog DB", "err", err)
	}
	defer db.Close()
	logOut.Info("catalog DB online")

	products := catalog.NewRepository(db, cfg.Database.CacheSize, cfg.Database.CacheTTL)

	//
	// ── 4.  Drafts and backend ───────────────────────────────────────────
	//
	drafts := draft.New(cfg.Drafts.IdleTTL, cfg.Drafts.MaxEntries)
	defer drafts.Close()

	api, err := backend.New(backend.Options{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
		APIKey:  cfg.Backend.APIKey,
	})
	if err != nil {
		logOut.Fatalw("backend client", "err", err)
	}

	//
	// ── 5.  Router, metrics, components ─────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestinfo.Enrich)
	r.Use(middleware.Security)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := db.PingContext(req.Context()); err != nil {
			http.Error(w, "catalog unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := component.Mount(r, component.Deps{
		Config:  cfg,
		Catalog: products,
		Drafts:  drafts,
		Backend: api,
		Logger:  logOut,
	}); err != nil {
		logOut.Fatalw("mount components", "err", err)
	}

	//
	// ── 6.  Serve (HTTPS redirect outermost) ─────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS, r), server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})
	if err := server.Run(ctx, srv, cfg.HTTP.ShutdownTimeout); err != nil {
		logOut.Errorw("http server", "err", err)
	}
}
