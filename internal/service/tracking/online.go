package tracking

import (
	"context"
	"errors"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/models"
	"github.com/adilzhm/fleet-tracking-system/internal/domain/types"
	wrap "github.com/adilzhm/fleet-tracking-system/pkg/logger/wrapper"
	"github.com/adilzhm/fleet-tracking-system/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// SetDriverOnline brings a driver on shift: the sample runs through the
// full update transition, then a presence event announces the driver.
func (s *Service) SetDriverOnline(ctx context.Context, driverID string, point models.GeoPoint, meta models.LocationMetadata) (*models.DriverLocation, error) {
	ctx = wrap.WithAction(ctx, types.ActionDriverOnline)
	ctx = wrap.WithDriverID(ctx, driverID)

	loc, err := s.UpdateLocation(ctx, driverID, point, meta)
	if err != nil {
		return nil, err
	}

	// The online gauge moves inside the update transition, which counts
	// the driver the moment its cache record first appears.
	s.publishPresence(ctx, types.EventDriverOnline, loc.DriverID, loc.CompanyID, loc.Status)

	return loc, nil
}

// SetDriverOffline takes a driver off shift: the canonical record is
// marked offline, every cache entry is removed, and a presence event goes
// out. The durable write and the cache removal are both required; only
// the publish is best effort.
func (s *Service) SetDriverOffline(ctx context.Context, driverID string) error {
	ctx = wrap.WithAction(ctx, types.ActionDriverOffline)
	ctx = wrap.WithDriverID(ctx, driverID)

	// The cached record names the company without a registry round trip;
	// the registry is the fallback when the entry already expired.
	prior, _ := s.cache.GetDriverLocation(ctx, driverID)
	companyID := ""
	if prior != nil && prior.CompanyID != "" {
		companyID = prior.CompanyID
	} else {
		var err error
		companyID, err = s.repos.driver.GetCompanyID(ctx, driverID)
		if err != nil {
			return wrap.Error(ctx, err)
		}
	}
	ctx = wrap.WithCompanyID(ctx, companyID)

	if err := s.repos.location.SetOffline(ctx, driverID); err != nil {
		return wrap.Error(ctx, err)
	}
	if err := s.cache.RemoveDriver(ctx, driverID, companyID); err != nil {
		ctx = wrap.WithAction(ctx, types.ActionCacheOperationFailed)
		return wrap.Error(ctx, err)
	}

	// Decrement only when a cached record was actually removed, so an
	// offline call for a driver that never came online (or was offlined
	// twice) cannot drive the gauge negative.
	if prior != nil {
		metrics.DriversOnlineGauge.WithLabelValues(serviceName).Dec()
	}
	s.publishPresence(ctx, types.EventDriverOffline, driverID, companyID, types.StatusOffline)

	return nil
}

func (s *Service) publishPresence(ctx context.Context, event types.DomainEvent, driverID, companyID string, status types.DriverStatus) {
	msg := models.DriverPresenceMessage{
		Event:     event,
		DriverID:  driverID,
		CompanyID: companyID,
		Status:    status,
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.PublishDriverPresence(ctx, msg); err != nil {
		s.l.Warn(ctx, "failed to publish presence event", "event", event.String(), "error", err.Error())
	}
}

// BatchUpdateLocations fans the samples out concurrently, one full
// transition each. There is no cross-driver ordering or atomicity; every
// sample runs to completion and the per-sample failures come back joined.
func (s *Service) BatchUpdateLocations(ctx context.Context, samples []LocationSample) error {
	if len(samples) == 0 {
		return nil
	}

	// Each goroutine owns its slot, so the slice needs no lock.
	errs := make([]error, len(samples))
	var g errgroup.Group

	for i, sample := range samples {
		g.Go(func() error {
			_, err := s.UpdateLocation(ctx, sample.DriverID, sample.Point, sample.Metadata)
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}
