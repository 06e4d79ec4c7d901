package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/practitioner-marketplace/internal/billing"
	"github.com/iliyamo/practitioner-marketplace/internal/cache"
	"github.com/iliyamo/practitioner-marketplace/internal/config"
	"github.com/iliyamo/practitioner-marketplace/internal/database"
	"github.com/iliyamo/practitioner-marketplace/internal/editor"
	"github.com/iliyamo/practitioner-marketplace/internal/handler"
	"github.com/iliyamo/practitioner-marketplace/internal/logging"
	"github.com/iliyamo/practitioner-marketplace/internal/middleware"
	"github.com/iliyamo/practitioner-marketplace/internal/publisher"
	"github.com/iliyamo/practitioner-marketplace/internal/queue"
	"github.com/iliyamo/practitioner-marketplace/internal/repository"
	"github.com/iliyamo/practitioner-marketplace/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot, _ := zap.NewProduction()
		boot.Fatal("load config", zap.Error(err))
	}
	log, err := logging.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()

	// Redis backs the entity cache, the response cache and the rate
	// limiter.  Without it all three are disabled.
	var rdb *redis.Client
	if c, err := config.NewRedisClient(config.LoadRedisConfig()); err != nil {
		log.Warn("redis unavailable; caching and rate limiting disabled", zap.Error(err))
	} else {
		rdb = c
		defer rdb.Close()
	}

	var events editor.ActivityPublisher
	if cfg.AMQPURL != "" {
		events = publisher.New(cfg.AMQPURL, log)
		consumer := &queue.Consumer{URL: cfg.AMQPURL, LogPath: cfg.ActivityLog, Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("activity consumer stopped", zap.Error(err))
			}
		}()
	} else {
		log.Info("AMQP_URL not set; activity events disabled")
	}

	services := repository.NewServiceRepo(db)
	reader := cache.NewServices(services, cache.New(rdb, cfg.Editor.EntityCacheTTL, "pm"), log)
	gateway := editor.NewServiceGateway(services, events, log)
	sessions := editor.NewManager(editor.DefaultRegistry(), reader, gateway, log)
	go sessions.Sweep(ctx, cfg.Editor.SweepInterval, cfg.Editor.SessionTTL)

	flow := &billing.Flow{
		Store:      repository.NewSubscriptionRepo(db),
		Compensate: cfg.Payment.Compensate,
		Log:        log,
	}
	if events != nil {
		flow.Events = events
	}
	// A nil *StripeProvider must not be stored in the interface.
	if p := billing.NewStripeProvider(cfg.Payment.StripeSecretKey); p != nil {
		flow.Provider = p
	} else {
		log.Info("STRIPE_SECRET_KEY not set; subscriptions disabled")
	}

	serviceH := handler.NewServiceHandler(services, reader, gateway, reader)
	lookupH := handler.NewLookupHandler(repository.NewCatalogRepo(db))
	itemH := handler.NewItemHandler(repository.NewItemRepo(db), reader, events, log)
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover(log), middleware.RequestLogger(log))

	router.RegisterRoutes(e, db, sessions)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg,
		repository.NewUserRepo(db), repository.NewTokenRepo(db), log), cfg.JWTSecret)
	router.RegisterPublic(e, router.Public{
		Services: serviceH,
		Lookups:  lookupH,
		Items:    itemH,
		Cache:    middleware.ResponseCache(config.LoadCacheConfig(), rdb, log),
	}, cfg.JWTSecret)
	router.RegisterPractitioner(e, router.Practitioner{
		Editor:    handler.NewEditorHandler(sessions, reader, log),
		Services:  serviceH,
		Items:     itemH,
		RateLimit: rateLimit,
	}, cfg.JWTSecret)
	router.RegisterSubscriptions(e, handler.NewSubscriptionHandler(flow, log), rateLimit, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("stopped", zap.Int("open_editor_sessions", sessions.Count()))
}
