package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-rental/internal/config"
	"github.com/iliyamo/vehicle-rental/internal/database"
	"github.com/iliyamo/vehicle-rental/internal/handler"
	"github.com/iliyamo/vehicle-rental/internal/logging"
	"github.com/iliyamo/vehicle-rental/internal/middleware"
	"github.com/iliyamo/vehicle-rental/internal/payment"
	"github.com/iliyamo/vehicle-rental/internal/queue"
	"github.com/iliyamo/vehicle-rental/internal/repository"
	"github.com/iliyamo/vehicle-rental/internal/router"
	"github.com/iliyamo/vehicle-rental/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config
	log := logging.New(cfg.LogLevel, cfg.Env)

	storeStatus, err := service.ParseStoreStatus(cfg.StoreReservationStatus)
	if err != nil {
		log.WithError(err).Fatal("config")
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database connect failed")
	}
	defer db.Close()
	if cfg.MigrateOnRun {
		if err := database.Migrate(db); err != nil {
			log.WithError(err).Fatal("database migration failed")
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable: rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	brokerCfg := config.LoadBrokerConfig()
	events, closeEvents := newPublisher(brokerCfg, log)
	defer closeEvents()

	payCfg := config.LoadPaymentConfig()
	gateway := payment.NewStripeGateway(payCfg, log)

	persons := repository.NewPersonRepo(db)
	groups := repository.NewGroupRepo(db)
	accessories := repository.NewAccessoryRepo(db)
	vehicles := repository.NewVehicleRepo(db)
	reservations := repository.NewReservationRepo(db)
	payments := repository.NewPaymentRepo(db)

	svc := service.NewReservationService(persons, groups, accessories, reservations, payments, gateway, events, service.Options{
		StoreStatus:    storeStatus,
		SuccessURL:     payCfg.SuccessURL,
		CancelURL:      payCfg.CancelURL,
		PublishTimeout: brokerCfg.PublishTimeout,
	}, log)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))

	cacheCfg := config.LoadCacheConfig()
	catalog := handler.NewCatalogHandler(groups, accessories, vehicles, log)
	people := handler.NewPersonHandler(persons, cfg.BcryptCost, log)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(persons, cfg.JWTSecret, cfg.AccessTTLMin, log), people)
	router.RegisterPublic(e, catalog, middleware.NewRedisCache(cacheCfg, rdb, log))
	router.RegisterPersons(e, people, cfg.JWTSecret)
	router.RegisterReservations(e, handler.NewReservationHandler(svc, log), cfg.JWTSecret)
	router.RegisterManager(e, catalog, cfg.JWTSecret, middleware.InvalidateCache(cacheCfg, rdb, log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "broker": brokerCfg.Kind}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}

// newPublisher picks the event transport named by EVENT_BROKER.
func newPublisher(cfg config.BrokerConfig, log *logrus.Logger) (queue.Publisher, func()) {
	switch cfg.Kind {
	case "kafka":
		p := queue.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		return p, func() { _ = p.Close() }
	case "none":
		return queue.NopPublisher{}, func() {}
	default:
		return queue.NewRabbitPublisher(cfg.RabbitURL, cfg.Queue, log), func() {}
	}
}
