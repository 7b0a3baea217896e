package handler

import (
	"context"
	"net/http"

	"github.com/adilzhm/fleet-tracking-system/pkg/logger"
	wrap "github.com/adilzhm/fleet-tracking-system/pkg/logger/wrapper"
)

// Pinger reports whether one backing dependency is reachable.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

type Health struct {
	serviceName string
	deps        map[string]Pinger
	log         logger.Logger
}

func NewHealth(serviceName string, deps map[string]Pinger, log logger.Logger) *Health {
	return &Health{
		serviceName: serviceName,
		deps:        deps,
		log:         log,
	}
}

// HealthCheck - returns system information and per-dependency status.
// 503 when any dependency is unreachable.
func (a *Health) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "health_check")

	status := http.StatusOK
	overall := "available"
	depStatus := make(map[string]string, len(a.deps))
	for name, dep := range a.deps {
		if err := dep.HealthCheck(ctx); err != nil {
			a.log.Warn(ctx, "dependency unhealthy", "dependency", name, "error", err.Error())
			depStatus[name] = "unavailable"
			overall = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		depStatus[name] = "available"
	}

	response := envelope{
		"status": overall,
		"system_info": map[string]string{
			"service-name": a.serviceName,
		},
		"dependencies": depStatus,
	}

	if err := writeJSON(w, status, response, nil); err != nil {
		a.log.Error(ctx, "healthcheck", err)
		return
	}
}
