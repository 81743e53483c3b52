package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/boqrecon/internal/config"
	"github.com/MrJamesThe3rd/boqrecon/internal/database"
	"github.com/MrJamesThe3rd/boqrecon/internal/export"
	apiHttp "github.com/MrJamesThe3rd/boqrecon/internal/http"
	exportHandler "github.com/MrJamesThe3rd/boqrecon/internal/http/export"
	invoiceHandler "github.com/MrJamesThe3rd/boqrecon/internal/http/invoice"
	matchHandler "github.com/MrJamesThe3rd/boqrecon/internal/http/match"
	runHandler "github.com/MrJamesThe3rd/boqrecon/internal/http/run"
	"github.com/MrJamesThe3rd/boqrecon/internal/importer"
	"github.com/MrJamesThe3rd/boqrecon/internal/lock"
	"github.com/MrJamesThe3rd/boqrecon/internal/metrics"
	"github.com/MrJamesThe3rd/boqrecon/internal/parser"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	if cfg.Auth.JWTSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	opts := []reconciliation.Option{
		reconciliation.WithRecorder(m),
		reconciliation.WithConfig(matchingConfig(cfg)),
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}

		opts = append(opts, reconciliation.WithLocker(lock.NewRedisLocker(rdb, cfg.Matching.LockTTL)))
	}

	reconciliationService := reconciliation.NewService(store.New(db), opts...)

	// A nil *parser.Client must not reach the handler as a non-nil interface.
	var docParser invoiceHandler.Parser
	if cfg.Parser.URL != "" {
		docParser = parser.NewClient(cfg.Parser.URL, cfg.Parser.Token, cfg.Parser.Timeout)
	}

	var (
		runH     = runHandler.NewHandler(reconciliationService)
		invoiceH = invoiceHandler.NewHandler(reconciliationService, importer.NewService(), docParser)
		matchH   = matchHandler.NewHandler(reconciliationService)
		exportH  = exportHandler.NewHandler(export.NewService(reconciliationService))
	)

	router := apiHttp.New(apiHttp.Options{
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Health: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
	}, m, runH, invoiceH, matchH, exportH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", "error", err)
		}
	}()

	slog.Info("starting server", "port", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func matchingConfig(cfg *config.Config) reconciliation.Config {
	mc := reconciliation.DefaultConfig()

	if cfg.Matching.Workers > 0 {
		mc.Workers = cfg.Matching.Workers
	}

	mc.ParallelThreshold = cfg.Matching.ParallelThreshold
	mc.LoadRetries = cfg.Matching.LoadRetries
	mc.RetryInterval = cfg.Matching.RetryInterval

	return mc
}
