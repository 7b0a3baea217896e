package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/adilzhm/fleet-tracking-system/config"
	"github.com/adilzhm/fleet-tracking-system/internal/adapter/http/handler"
	"github.com/adilzhm/fleet-tracking-system/internal/adapter/http/server"
	repo "github.com/adilzhm/fleet-tracking-system/internal/adapter/postgres"
	"github.com/adilzhm/fleet-tracking-system/internal/adapter/rabbit"
	"github.com/adilzhm/fleet-tracking-system/internal/adapter/rediscache"
	"github.com/adilzhm/fleet-tracking-system/internal/service/tracking"
	"github.com/adilzhm/fleet-tracking-system/pkg/logger"
	"github.com/adilzhm/fleet-tracking-system/pkg/postgres"
	rabbitmq "github.com/adilzhm/fleet-tracking-system/pkg/rabbit"
	redispkg "github.com/adilzhm/fleet-tracking-system/pkg/redis"
	"github.com/adilzhm/fleet-tracking-system/pkg/trm"
	goredis "github.com/redis/go-redis/v9"
)

// App owns the tracking service lifecycle: infrastructure clients, the
// orchestrator, the HTTP surface and the collector goroutine.
type App struct {
	postgresDB  *postgres.PostgreDB
	redisClient *goredis.Client
	rabbitMQ    *rabbitmq.RabbitMQ
	collector   *tracking.RollingCollector
	httpServer  *server.API

	cfg *config.Config
	log logger.Logger
}

func NewApplication(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	postgresDB, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "Failed to setup database", err)
		return nil, err
	}

	redisClient, err := redispkg.New(ctx, cfg.Redis)
	if err != nil {
		log.Error(ctx, "Failed to setup redis", err)
		postgresDB.Pool.Close()
		return nil, err
	}

	rabbitMQ, err := rabbitmq.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		log.Error(ctx, "Failed to setup rabbitmq", err)
		postgresDB.Pool.Close()
		_ = redisClient.Close()
		return nil, err
	}

	broker := rabbit.NewTrackingBroker(rabbitMQ)
	if err := broker.Setup(ctx); err != nil {
		log.Error(ctx, "Failed to declare exchanges", err)
		postgresDB.Pool.Close()
		_ = redisClient.Close()
		_ = rabbitMQ.Close(ctx)
		return nil, err
	}

	cache := rediscache.New(redisClient, cfg.Tracking.CacheTTL, cfg.Tracking.CacheKeyPrefix, log)
	collector := tracking.NewRollingCollector(cfg.Tracking.CollectorInterval)

	trackingService := tracking.New(
		repo.NewDriverRepo(postgresDB.Pool),
		repo.NewLocationRepo(postgresDB.Pool),
		repo.NewZoneRepo(postgresDB.Pool),
		repo.NewGeofenceEventRepo(postgresDB.Pool),
		cache,
		broker,
		collector,
		trm.New(postgresDB.Pool),
		log,
	)

	healthDeps := map[string]handler.Pinger{
		"postgres": postgresDB,
		"redis":    redisPinger{client: redisClient},
	}

	httpServer, err := server.New(cfg, trackingService, healthDeps, log)
	if err != nil {
		log.Error(ctx, "Failed to setup http server", err)
		postgresDB.Pool.Close()
		_ = redisClient.Close()
		_ = rabbitMQ.Close(ctx)
		return nil, err
	}

	return &App{
		postgresDB:  postgresDB,
		redisClient: redisClient,
		rabbitMQ:    rabbitMQ,
		collector:   collector,
		httpServer:  httpServer,
		cfg:         cfg,
		log:         log,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go a.collector.Run(ctx)
	a.httpServer.Run(ctx, errCh)
	defer func() {
		a.close(ctx)
		a.log.Info(ctx, "tracking service closed")
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	a.log.Info(ctx, "tracking service started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		a.log.Info(ctx, "shutting down application", "signal", sig.String())
		return nil
	}
}

func (a *App) close(ctx context.Context) {
	a.collector.Stop()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	if a.rabbitMQ != nil {
		if err := a.rabbitMQ.Close(ctx); err != nil {
			a.log.Warn(ctx, "Failed to gracefully close rabbitmq connection", "error", err.Error())
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn(ctx, "Failed to close redis client", "error", err.Error())
		}
	}

	if a.postgresDB != nil && a.postgresDB.Pool != nil {
		a.postgresDB.Pool.Close()
	}
}

// redisPinger adapts the package-level health check to the handler's
// Pinger interface.
type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) HealthCheck(ctx context.Context) error {
	return redispkg.HealthCheck(ctx, p.client)
}
