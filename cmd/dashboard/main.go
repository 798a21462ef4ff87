package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/vistara/donation-dashboard/cmd/dashboard/cli"
	"github.com/vistara/donation-dashboard/internal/app"
	"github.com/vistara/donation-dashboard/internal/controller"
	"github.com/vistara/donation-dashboard/internal/dashboard"
	dashboardhttp "github.com/vistara/donation-dashboard/internal/dashboard/http"
	"github.com/vistara/donation-dashboard/internal/insights"
	"github.com/vistara/donation-dashboard/internal/observability"
	"github.com/vistara/donation-dashboard/internal/platform/cache"
	"github.com/vistara/donation-dashboard/internal/upstream"
	"github.com/vistara/donation-dashboard/jobs"
	"github.com/vistara/donation-dashboard/report"
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

	logger := app.NewLogger(cfg)
	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		os.Exit(runJobsCLI(ctx, cfg, logger, os.Args[2:]))
	}
	metrics := observability.NewMetrics()

	var redisClient *redis.Client
	if cfg.CacheEnabled() {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, serving without payload cache", slog.Any("error", err))
			redisClient = nil
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
		}
	}

	payloadCache := upstream.NewCache(redisClient, cfg.CacheTTL, logger).WithObserver(metrics)
	if err := payloadCache.ListenForInvalidation(ctx, upstream.BumpChannel); err != nil {
		logger.Warn("subscribe cache invalidation", slog.Any("error", err))
	}

	client, err := upstream.NewClient(cfg.UpstreamBaseURL, &http.Client{Timeout: cfg.UpstreamTimeout}, payloadCache, logger)
	if err != nil {
		logger.Error("init upstream client", slog.Any("error", err))
		os.Exit(1)
	}
	client.WithObserver(metrics)

	ctrl := controller.New(controller.Config{
		Dashboard:   client,
		Insights:    insights.NewLoader(client, logger),
		Invalidator: client,
		Generator:   dashboard.NewGenerator(nil),
		Logger:      logger,
		Observer:    metrics,
	})
	ctrl.Subscribe(func(ev controller.Event) {
		switch ev.Track {
		case controller.TrackDashboard:
			logger.Debug("dashboard transition",
				slog.String("status", string(ev.Dashboard.Status)),
				slog.String("period", ev.Dashboard.Period.String()),
				slog.Bool("refreshing", ev.Dashboard.Refreshing))
		case controller.TrackInsights:
			logger.Debug("insights transition", slog.String("status", string(ev.Insights.Status)))
		}
	})

	reportService := report.NewService(client, logger)

	var jobHandler *jobs.Handler
	if redisClient != nil {
		redisOpts := jobs.RedisOpt(redisClient.Options())
		jobsClient, err := jobs.NewClient(redisOpts)
		if err != nil {
			logger.Warn("init jobs client", slog.Any("error", err))
		} else {
			defer func() {
				if err := jobsClient.Close(); err != nil {
					logger.Warn("jobs client close", slog.Any("error", err))
				}
			}()
			if _, err := jobsClient.EnqueueWarmup(ctx, jobs.WarmupPayload{}); err != nil {
				logger.Warn("enqueue startup warmup", slog.Any("error", err))
			}
		}
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		DashboardHandler: dashboardhttp.NewHandler(logger, ctrl),
		ReportHandler:    report.NewHandler(reportService, logger),
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	go func() {
		state := ctrl.SelectPeriod(ctx, dashboard.DefaultPeriod)
		logger.Info("initial dashboard loaded",
			slog.String("period", state.Period.String()),
			slog.String("source", string(state.Source)))
	}()

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("upstream", cfg.UpstreamBaseURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func runJobsCLI(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	if !cfg.CacheEnabled() {
		logger.Error("REDIS_ADDR is required for job commands")
		return 1
	}
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		return 1
	}
	defer func() { _ = redisClient.Close() }()

	redisOpts := jobs.RedisOpt(redisClient.Options())
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		return 1
	}
	defer func() { _ = jobsClient.Close() }()
	inspector := asynq.NewInspector(redisOpts)
	defer func() { _ = inspector.Close() }()

	payloadCache := upstream.NewCache(redisClient, cfg.CacheTTL, logger)
	return cli.NewJobsCLI(jobsClient, inspector, payloadCache, os.Stdout, os.Stderr).Run(ctx, args)
}
