package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/adilzhm/fleet-tracking-system/config"
	"github.com/adilzhm/fleet-tracking-system/internal/adapter/http/handler"
	"github.com/adilzhm/fleet-tracking-system/internal/adapter/http/middleware"
	"github.com/adilzhm/fleet-tracking-system/pkg/logger"
	wrap "github.com/adilzhm/fleet-tracking-system/pkg/logger/wrapper"
)

const serviceName = "tracking-service"

type API struct {
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware

	addr string
	log  logger.Logger
}

type handlers struct {
	tracking *handler.Tracking
	health   *handler.Health
}

func New(
	cfg *config.Config,
	trackingService handler.TrackingService,
	healthDeps map[string]handler.Pinger,
	log logger.Logger,
) (*API, error) {
	if trackingService == nil {
		return nil, errors.New("tracking service is required")
	}

	api := &API{
		mux: http.NewServeMux(),
		routes: &handlers{
			tracking: handler.NewTracking(trackingService, log),
			health:   handler.NewHealth(serviceName, healthDeps, log),
		},
		m:    middleware.NewMiddleware(log),
		addr: cfg.Server.Addr(),
		log:  log,
	}

	api.server = &http.Server{
		Addr:    api.addr,
		Handler: api.withMiddleware(),
	}

	setupRoutes(api.mux, api.routes)

	return api, nil
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// withMiddleware applies the chain to the mux.
func (a *API) withMiddleware() http.Handler {
	metrics := a.m.Metrics(serviceName)
	return a.m.Recover(a.m.RequestID(a.m.Logging(metrics(a.mux))))
}
