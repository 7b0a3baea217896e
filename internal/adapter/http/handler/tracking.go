package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/adilzhm/fleet-tracking-system/internal/adapter/http/handler/dto"
	"github.com/adilzhm/fleet-tracking-system/internal/domain/models"
	"github.com/adilzhm/fleet-tracking-system/internal/service/tracking"
	"github.com/adilzhm/fleet-tracking-system/pkg/logger"
	wrap "github.com/adilzhm/fleet-tracking-system/pkg/logger/wrapper"
	"github.com/adilzhm/fleet-tracking-system/pkg/validator"
)

// defaultNearbyLimit caps radius queries that do not name their own.
const defaultNearbyLimit = 50

type Tracking struct {
	service TrackingService
	l       logger.Logger
}

type TrackingService interface {
	UpdateLocation(ctx context.Context, driverID string, point models.GeoPoint, meta models.LocationMetadata) (*models.DriverLocation, error)
	BatchUpdateLocations(ctx context.Context, samples []tracking.LocationSample) error
	SetDriverOnline(ctx context.Context, driverID string, point models.GeoPoint, meta models.LocationMetadata) (*models.DriverLocation, error)
	SetDriverOffline(ctx context.Context, driverID string) error
	GetDriverLocation(ctx context.Context, driverID string) (*models.DriverLocation, error)
	FindNearbyDrivers(ctx context.Context, companyID string, q models.NearbyQuery) ([]models.NearbyDriver, error)
	GetDriversInZone(ctx context.Context, zoneID string) ([]string, error)
	GetStats(ctx context.Context, companyID string) tracking.StatsSnapshot
}

func NewTracking(service TrackingService, l logger.Logger) *Tracking {
	return &Tracking{
		service: service,
		l:       l,
	}
}

func (h *Tracking) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_location")

	driverID := r.PathValue("driver_id")
	if driverID == "" {
		errorResponse(w, http.StatusBadRequest, "driver_id is required")
		return
	}
	ctx = wrap.WithDriverID(ctx, driverID)

	var req dto.LocationUpdateRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	loc, err := h.service.UpdateLocation(ctx, driverID, req.Point(), req.Metadata())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to process location update", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"location": dto.ToLocationResponse(loc)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

// BatchUpdateLocations accepts an array of samples for one driver and
// fans them out. 207-style partial results are flattened into a single
// error list; successful samples stay committed regardless.
func (h *Tracking) BatchUpdateLocations(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "batch_update_locations")

	driverID := r.PathValue("driver_id")
	if driverID == "" {
		errorResponse(w, http.StatusBadRequest, "driver_id is required")
		return
	}
	ctx = wrap.WithDriverID(ctx, driverID)

	var reqs []dto.LocationUpdateRequest
	if err := readJSON(w, r, &reqs); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(reqs) == 0 {
		errorResponse(w, http.StatusBadRequest, "body must contain at least one sample")
		return
	}

	v := validator.New()
	for _, req := range reqs {
		req.Validate(v)
	}
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	samples := make([]tracking.LocationSample, 0, len(reqs))
	for _, req := range reqs {
		samples = append(samples, tracking.LocationSample{
			DriverID: driverID,
			Point:    req.Point(),
			Metadata: req.Metadata(),
		})
	}

	if err := h.service.BatchUpdateLocations(ctx, samples); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "batch processed with failures", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"accepted": len(samples)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

func (h *Tracking) GoOnline(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "set_driver_online")

	driverID := r.PathValue("driver_id")
	if driverID == "" {
		errorResponse(w, http.StatusBadRequest, "driver_id is required")
		return
	}
	ctx = wrap.WithDriverID(ctx, driverID)

	var req dto.LocationUpdateRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	loc, err := h.service.SetDriverOnline(ctx, driverID, req.Point(), req.Metadata())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to set driver online", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"message":  "you are now online and visible to dispatch",
		"location": dto.ToLocationResponse(loc),
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "driver set to online successfully")
}

func (h *Tracking) GoOffline(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "set_driver_offline")

	driverID := r.PathValue("driver_id")
	if driverID == "" {
		errorResponse(w, http.StatusBadRequest, "driver_id is required")
		return
	}
	ctx = wrap.WithDriverID(ctx, driverID)

	if err := h.service.SetDriverOffline(ctx, driverID); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to set driver offline", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"message": "you are now offline"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "driver set to offline successfully")
}

func (h *Tracking) GetLocation(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_driver_location")

	driverID := r.PathValue("driver_id")
	if driverID == "" {
		errorResponse(w, http.StatusBadRequest, "driver_id is required")
		return
	}
	ctx = wrap.WithDriverID(ctx, driverID)

	loc, err := h.service.GetDriverLocation(ctx, driverID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get driver location", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"location": dto.ToLocationResponse(loc)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

func (h *Tracking) FindNearby(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "find_nearby_drivers")

	companyID := r.PathValue("company_id")
	if companyID == "" {
		errorResponse(w, http.StatusBadRequest, "company_id is required")
		return
	}
	ctx = wrap.WithCompanyID(ctx, companyID)

	query, err := parseNearbyQuery(r)
	if err != nil {
		h.l.Warn(ctx, "invalid nearby query", "error", err.Error())
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	drivers, err := h.service.FindNearbyDrivers(ctx, companyID, query)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to run radius query", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"drivers": dto.ToNearbyResponse(drivers),
		"count":   len(drivers),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

func (h *Tracking) GetZoneDrivers(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_zone_drivers")

	zoneID := r.PathValue("zone_id")
	if zoneID == "" {
		errorResponse(w, http.StatusBadRequest, "zone_id is required")
		return
	}

	drivers, err := h.service.GetDriversInZone(ctx, zoneID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get zone drivers", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"zone_id": zoneID,
		"drivers": drivers,
		"count":   len(drivers),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

func (h *Tracking) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_tracking_stats")

	companyID := r.URL.Query().Get("company_id")
	snapshot := h.service.GetStats(ctx, companyID)

	response := envelope{"stats": snapshot}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

func parseNearbyQuery(r *http.Request) (models.NearbyQuery, error) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return models.NearbyQuery{}, errInvalidQueryParam("lat")
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		return models.NearbyQuery{}, errInvalidQueryParam("lng")
	}
	radius, err := strconv.ParseFloat(q.Get("radius"), 64)
	if err != nil || radius <= 0 {
		return models.NearbyQuery{}, errInvalidQueryParam("radius")
	}

	limit := defaultNearbyLimit
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return models.NearbyQuery{}, errInvalidQueryParam("limit")
		}
	}

	return models.NearbyQuery{
		Center:       models.GeoPoint{Latitude: lat, Longitude: lng},
		RadiusMeters: radius,
		Limit:        limit,
	}, nil
}

type queryParamError string

func (e queryParamError) Error() string {
	return "query parameter " + string(e) + " is missing or invalid"
}

func errInvalidQueryParam(name string) error {
	return queryParamError(name)
}
