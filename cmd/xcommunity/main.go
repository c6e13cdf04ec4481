package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/xcommunity/api"
	"github.com/use-agent/xcommunity/config"
	"github.com/use-agent/xcommunity/extractor"
	"github.com/use-agent/xcommunity/imagestore"
	"github.com/use-agent/xcommunity/scraper"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	closeLog := initLogger(cfg.Log)
	defer closeLog()
	slog.Info("xcommunity starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxContexts", cfg.Browser.MaxContexts,
		"storageDir", cfg.Storage.Dir,
	)

	// ── 3. Launch browser and context pool ──────────────────────────
	launcher, err := scraper.NewRodLauncher(cfg.Browser, cfg.Scraper)
	if err != nil {
		slog.Error("failed to launch browser", "error", err)
		os.Exit(1)
	}
	defer scraper.Shutdown(launcher)

	pool := scraper.NewPool(launcher, cfg.Browser.MaxContexts, cfg.Browser.AcquireTimeout)
	sc := scraper.New(pool, extractor.Default(), cfg.Scraper)

	// ── 4. Image store ──────────────────────────────────────────────
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	backend, err := imagestore.NewLocalBackend(cfg.Storage.Dir)
	if err != nil {
		slog.Error("failed to initialise image storage", "error", err)
		os.Exit(1)
	}
	slog.Info("image storage ready", "dir", backend.Dir())
	fetcher := imagestore.NewHTTPFetcher(cfg.Download, cfg.Browser.Proxy)
	store := imagestore.NewStore(backend, fetcher, cfg.Storage.PublicPrefix)
	store.StartRetention(ctx, cfg.Storage.Retention, cfg.Storage.SweepInterval)

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(sc, store, cfg, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// In-flight scrapes may hold a page for up to the request timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Scraper.RequestTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// scraper.Shutdown runs via defer and kills Chrome.
	slog.Info("xcommunity stopping")
}

// initLogger configures slog based on the LogConfig. The returned func
// closes the rotating log file, if any.
func initLogger(cfg config.LogConfig) func() {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var out io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closeFn = func() { _ = rotator.Close() }
	}

	slog.SetDefault(slog.New(newHandler(out, cfg.Format, opts)))
	return closeFn
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
