package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"pehlione.com/catalog/internal/config"
	apphttp "pehlione.com/catalog/internal/http"
	"pehlione.com/catalog/internal/modules/auth"
	"pehlione.com/catalog/internal/modules/products"
	"pehlione.com/catalog/internal/realtime"
	"pehlione.com/catalog/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	store, err := storage.FromEnv(ctx)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	logger.Info("storage_ready", slog.String("driver", store.Driver))

	if err := os.MkdirAll(cfg.StagingDir, 0o755); err != nil {
		log.Fatalf("staging dir: %v", err)
	}
	staging := storage.NewStaging(cfg.StagingDir)

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)
	go sweepStaging(ctx, logger, staging, cfg.StagingTTL)

	svc := products.NewService(
		products.NewRepo(db),
		&storage.Resolver{Staging: staging, Store: store.Storage, Log: logger},
		logger,
		products.WithNotifier(hub),
		products.WithDefaultCurrency(cfg.DefaultCurrency),
	)

	deps := apphttp.Deps{
		Products: svc,
		Auth:     auth.NewService(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.JWTSecret, cfg.TokenTTL),
		Staging:  staging,
		Hub:      hub,
	}
	if l, ok := store.Storage.(*storage.Local); ok {
		deps.LocalUploadDir = l.BaseDir
		deps.LocalUploadURLPrefix = l.URLPrefix
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apphttp.NewRouter(logger, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http_listen", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_serve_failed", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_failed", slog.Any("err", err))
	}
}

// sweepStaging removes uploads that were never attached to a saved product.
func sweepStaging(ctx context.Context, l *slog.Logger, s *storage.Staging, ttl time.Duration) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := s.Sweep(now.Add(-ttl))
			if err != nil {
				l.Warn("staging_sweep_failed", slog.Any("err", err))
				continue
			}
			if n > 0 {
				l.Info("staging_swept", slog.Int("removed", n))
			}
		}
	}
}
