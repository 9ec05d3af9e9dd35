package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/bookstore-api/internal/config"
	"github.com/iliyamo/bookstore-api/internal/database"
	"github.com/iliyamo/bookstore-api/internal/handler"
	"github.com/iliyamo/bookstore-api/internal/logging"
	"github.com/iliyamo/bookstore-api/internal/metrics"
	"github.com/iliyamo/bookstore-api/internal/middleware"
	"github.com/iliyamo/bookstore-api/internal/queue"
	"github.com/iliyamo/bookstore-api/internal/repository"
	"github.com/iliyamo/bookstore-api/internal/router"
	"github.com/iliyamo/bookstore-api/internal/service"
)

func main() {
	_ = godotenv.Load() // optional .env for local runs
	cfg := config.Load()

	log := logging.New(logging.Config{Service: "bookstore-api", Env: cfg.Env, Level: cfg.LogLevel})
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and stats cache disabled")
	} else {
		defer rdb.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(reg)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	books := repository.NewBookRepo(db)
	orders := repository.NewOrderRepo(db)
	activityRepo := repository.NewActivityRepo(db)

	g, ctx := errgroup.WithContext(ctx)

	// Activity sink: direct writes, or publish to RabbitMQ and let the
	// in-process consumer persist.
	var activity service.ActivityRecorder = service.NewDBActivityRecorder(activityRepo, log)
	if cfg.ActivitySink == "amqp" {
		pub := queue.NewPublisher(cfg.AMQPURL, log)
		defer pub.Close()
		activity = pub
		g.Go(func() error {
			if err := pub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		consumer := &queue.Consumer{URL: cfg.AMQPURL, Store: activityRepo, Log: log}
		g.Go(func() error {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	sessions := service.NewSessionManager(db, users, tokens, activity, service.SessionConfig{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}, log)
	userSvc := service.NewUserService(db, users, tokens, activity, cfg.BcryptCost, log)
	orderSvc := service.NewOrderService(db, orders, books, users, activity, log)
	statsSvc := service.NewStatsService(repository.NewStatsRepo(db))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Metrics())
	e.Use(echomw.BodyLimit("1M"))

	router.Register(e, router.Handlers{
		Health:   handler.NewHealthHandler(cfg.Version),
		Auth:     handler.NewAuthHandler(sessions, userSvc),
		Users:    handler.NewUserHandler(userSvc, orderSvc),
		Orders:   handler.NewOrderHandler(orderSvc),
		Activity: handler.NewActivityHandler(activityRepo),
		Stats:    handler.NewStatsHandler(statsSvc),
	}, router.Deps{
		Verifier:  sessions,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Gatherer:  reg,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info("listening", "addr", srv.Addr, "env", cfg.Env, "db", cfg.DB.Driver, "activity_sink", cfg.ActivitySink)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
