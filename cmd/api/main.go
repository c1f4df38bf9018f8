package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/TiwariV18/FinTrack/internal/events"
	httpx "github.com/TiwariV18/FinTrack/internal/http"
	"github.com/TiwariV18/FinTrack/internal/service/auth"
	"github.com/TiwariV18/FinTrack/internal/service/dashboard"
	"github.com/TiwariV18/FinTrack/internal/service/ledger"
	"github.com/TiwariV18/FinTrack/internal/storage"
	"github.com/TiwariV18/FinTrack/internal/ws"
	"github.com/TiwariV18/FinTrack/pkg/config"
	"github.com/TiwariV18/FinTrack/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open storage", "backend", cfg.DataBackend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	hub := ws.NewHub()
	defer hub.Close()

	publishers := events.Fanout{events.NewHubPublisher(hub)}
	if url := strings.TrimSpace(cfg.AMQPURL); url != "" {
		bus, err := events.DialAMQP(url, cfg.AMQPExchange, log)
		if err != nil {
			log.Warn("amqp publisher unavailable", "error", err)
		} else {
			defer bus.Close()
			publishers = append(publishers, bus)
		}
	}

	authSvc := auth.New(store, log, cfg)
	ledgerSvc := ledger.New(store, publishers, log)
	dashboardSvc := dashboard.New(store, log)

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter.Close()
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, cfg, authSvc, ledgerSvc, dashboardSvc, hub, limiter, store.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "backend", cfg.DataBackend)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

