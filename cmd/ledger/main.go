package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/nekorytaylor666/stroika-sub000/cmd/ledger/cli"
	"github.com/nekorytaylor666/stroika-sub000/internal/app"
	"github.com/nekorytaylor666/stroika-sub000/internal/ledgerhttp"
	"github.com/nekorytaylor666/stroika-sub000/internal/observability"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/cache"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
	"github.com/nekorytaylor666/stroika-sub000/internal/shared"
	"github.com/nekorytaylor666/stroika-sub000/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	args := os.Args[1:]
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}
	switch command {
	case "serve":
		os.Exit(serve(ctx, cfg))
	case "migrate":
		os.Exit(migrate(ctx, cfg))
	case "seed-chart":
		os.Exit(seedChart(ctx, cfg, args))
	case "jobs":
		jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
		if err != nil {
			slog.Default().Error("init jobs cli", slog.Any("error", err))
			os.Exit(1)
		}
		code := jobsCLI.Run(ctx, args, os.Stdout, os.Stderr)
		_ = jobsCLI.Close()
		os.Exit(code)
	default:
		slog.Default().Error("unknown command", slog.String("command", command))
		os.Exit(2)
	}
}

func migrate(ctx context.Context, cfg *app.Config) int {
	logger := app.NewLogger(cfg, "migrate")
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		logger.Error("migrate", slog.Any("error", err))
		return 1
	}
	logger.Info("schema applied")
	return 0
}

func seedChart(ctx context.Context, cfg *app.Config, args []string) int {
	logger := app.NewLogger(cfg, "seed")
	if len(args) == 0 {
		logger.Error("usage: ledger seed-chart <organization-id>...")
		return 2
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()
	services := app.NewServices(app.ServiceDeps{Pool: pool, Config: cfg, Logger: logger})
	for _, raw := range args {
		org, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || org <= 0 {
			logger.Error("invalid organization id", slog.String("value", raw))
			return 2
		}
		inserted, err := services.Accounts.SeedStandardChart(ctx, org)
		if err != nil {
			logger.Error("seed chart", slog.Int64("organization_id", org), slog.Any("error", err))
			return 1
		}
		logger.Info("chart seeded", slog.Int64("organization_id", org), slog.Int("inserted", inserted))
	}
	return 0
}

func serve(ctx context.Context, cfg *app.Config) int {
	logger := app.NewLogger(cfg, "api")

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		logger.Error("migrate", slog.Any("error", err))
		return 1
	}

	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	services := app.NewServices(app.ServiceDeps{
		Pool:    pool,
		Redis:   redisClient,
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
	})
	ledgerHandler := ledgerhttp.NewHandler(logger, services, shared.NewIdempotencyStore(pool))

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		LedgerHandler: ledgerHandler,
		JobHandler:    jobs.NewHandler(inspector, jobClient, logger),
		Metrics:       metrics,
		Ready: func(r *http.Request) error {
			return pool.Ping(r.Context())
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("http server", slog.Any("error", err))
		return 1
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return 1
	}
	return 0
}
