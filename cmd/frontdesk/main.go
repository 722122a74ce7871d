package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/dukerupert/frontdesk/internal/backup"
	"github.com/dukerupert/frontdesk/internal/checkin"
	"github.com/dukerupert/frontdesk/internal/config"
	"github.com/dukerupert/frontdesk/internal/database"
	"github.com/dukerupert/frontdesk/internal/email"
	"github.com/dukerupert/frontdesk/internal/handler"
	"github.com/dukerupert/frontdesk/internal/logging"
	"github.com/dukerupert/frontdesk/internal/objectstore"
	"github.com/dukerupert/frontdesk/internal/photo"
	"github.com/dukerupert/frontdesk/internal/server"
)

const limiterIdle = 3 * time.Minute

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var debouncer checkin.Debouncer
	var memDebouncer *checkin.MemoryDebouncer
	if cfg.HasRedis() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			slog.Warn("redis unreachable, scans will fail open until it recovers", "addr", cfg.RedisAddr, "error", err)
		}
		pingCancel()
		debouncer = checkin.NewRedisDebouncer(rdb, cfg.ScanDebounce)
	} else {
		memDebouncer = checkin.NewMemoryDebouncer(cfg.ScanDebounce)
		debouncer = memDebouncer
	}

	var mailer *email.Client
	if cfg.HasEmail() {
		mailer = email.NewClient(cfg.PostmarkToken, cfg.FromEmail, cfg.BaseURL,
			email.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	}

	var photos *photo.Store
	if cfg.HasS3() {
		photos = photo.NewStore(objectstore.NewClient(cfg.S3), cfg.S3.Bucket)
	}

	srv := server.New(db, server.Config{
		Clock:     handler.ZoneClock(cfg.Location),
		Debouncer: debouncer,
		Mailer:    mailer,
		Photos:    photos,
		Backup: backup.Config{
			S3:            cfg.S3,
			Passphrase:    cfg.BackupPassphrase,
			Hour:          cfg.BackupHour,
			RetentionDays: cfg.BackupRetentionDays,
			Location:      cfg.Location,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		ScanRate:       cfg.ScanRate,
		ScanBurst:      cfg.ScanBurst,
	}, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	srv.BackupManager().Start(bgCtx)

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				srv.RateLimiter().Cleanup(now, limiterIdle)
				if memDebouncer != nil {
					memDebouncer.Cleanup(now)
				}
			case <-bgCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("frontdesk starting", "addr", ":"+cfg.Port, "timezone", cfg.Location.String())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	bgCancel()
	srv.BackupManager().Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
