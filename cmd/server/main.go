package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/database"
	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/router"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config (and .env when present)

	logger := log.New("reservation")
	logger.SetHeader(`${time_rfc3339} ${level} ${prefix} ${short_file}:${line}`)
	logger.SetLevel(parseLevel(cfg.LogLevel))

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			logger.Fatalf("migrate: %v", err)
		}
		logger.Info("schema applied")
	}

	// Redis is optional: without it caching and rate limiting are off and
	// logout cannot revoke access tokens.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable; cache, rate limit and token revocation disabled")
	} else {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	floors := repository.NewFloorRepo(db)
	tables := repository.NewTableRepo(db)
	foods := repository.NewFoodRepo(db)
	reservations := repository.NewReservationRepo(db)
	store := repository.NewStore(db, tables, reservations)
	revocations := repository.NewRevocationStore(rdb)

	// Events
	events, closeEvents := newPublisher(ctx, config.LoadEventsConfig(), logger)
	defer closeEvents()

	engine := service.NewReservationService(store, foods, tables, users, events, logger,
		service.Config{ReleaseTableOnLeave: cfg.ReleaseTableOnLeave})
	views := service.NewProjector(store, tables, users)

	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.Validator = handler.NewRequestValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				logger.Errorf("%s %s status=%d latency=%s id=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.Error)
				return nil
			}
			logger.Infof("%s %s status=%d latency=%s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(echomw.CORS())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	auth := middleware.JWTAuth(cfg.JWTSecret, revocations)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, revocations), auth)
	router.RegisterReservations(e, handler.NewReservationHandler(engine, views), auth)
	router.RegisterCatalog(e, handler.NewCatalogHandler(floors, tables, foods), auth, cache)

	addr := ":" + cfg.Port
	go func() {
		logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

// newPublisher picks the event broker and, for RabbitMQ, starts the audit
// consumer.  The returned func releases broker resources.
func newPublisher(ctx context.Context, ec config.EventsConfig, logger *log.Logger) (service.EventPublisher, func()) {
	switch ec.Broker {
	case config.BrokerKafka:
		p := queue.NewKafkaPublisher(queue.NewKafkaWriter(ec.KafkaBrokers, ec.KafkaTopic))
		logger.Infof("publishing reservation events to kafka topic %s", ec.KafkaTopic)
		return p, func() {
			if err := p.Close(); err != nil {
				logger.Warnf("close kafka writer: %v", err)
			}
		}
	case config.BrokerRabbitMQ:
		if ec.RunConsumer {
			consumer := &queue.AuditConsumer{URL: ec.RabbitURL, Queue: ec.RabbitQueue, LogDir: ec.AuditLogDir, Log: logger}
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Errorf("audit consumer stopped: %v", err)
				}
			}()
		}
		logger.Infof("publishing reservation events to rabbitmq queue %s", ec.RabbitQueue)
		return queue.NewRabbitPublisher(ec.RabbitURL, ec.RabbitQueue), func() {}
	}
	return queue.Discard{}, func() {}
}

func parseLevel(s string) log.Lvl {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return log.DEBUG
	case "WARN":
		return log.WARN
	case "ERROR":
		return log.ERROR
	case "OFF":
		return log.OFF
	}
	return log.INFO
}
