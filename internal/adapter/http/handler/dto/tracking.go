package dto

import (
	"time"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/models"
	"github.com/adilzhm/fleet-tracking-system/internal/domain/types"
	"github.com/adilzhm/fleet-tracking-system/pkg/validator"
)

// LocationUpdateRequest is one GPS sample as reported by a driver device.
type LocationUpdateRequest struct {
	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
	Altitude       *float64   `json:"altitude,omitempty"`
	AccuracyMeters *float64   `json:"accuracy_meters"`
	HeadingDegrees *float64   `json:"heading_degrees,omitempty"`
	SpeedMps       *float64   `json:"speed_mps,omitempty"`
	BatteryLevel   *float64   `json:"battery_level,omitempty"`
	Timestamp      *time.Time `json:"timestamp,omitempty"`
	Provider       string     `json:"provider,omitempty"`
	Satellites     *int       `json:"satellites,omitempty"`
	HDOP           *float64   `json:"hdop,omitempty"`
	PDOP           *float64   `json:"pdop,omitempty"`
}

func (r LocationUpdateRequest) Validate(v *validator.Validator) {
	v.Check(r.Latitude != nil, "latitude", "must be provided")
	v.Check(r.Longitude != nil, "longitude", "must be provided")
	if r.Latitude != nil {
		v.Check(*r.Latitude >= -90 && *r.Latitude <= 90, "latitude", "must be between -90 and 90")
	}
	if r.Longitude != nil {
		v.Check(*r.Longitude >= -180 && *r.Longitude <= 180, "longitude", "must be between -180 and 180")
	}
	if r.AccuracyMeters != nil {
		v.Check(*r.AccuracyMeters >= 0, "accuracy_meters", "must not be negative")
	}
	if r.Provider != "" {
		v.Check(types.LocationProvider(r.Provider).Valid(), "provider", "must be one of GPS, NETWORK, PASSIVE")
	}
	if r.BatteryLevel != nil {
		v.Check(*r.BatteryLevel >= 0 && *r.BatteryLevel <= 1, "battery_level", "must be between 0 and 1")
	}
}

func (r LocationUpdateRequest) Point() models.GeoPoint {
	point := models.GeoPoint{
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
		Altitude:  r.Altitude,
	}
	return point
}

func (r LocationUpdateRequest) Metadata() models.LocationMetadata {
	meta := models.LocationMetadata{
		HeadingDegrees: r.HeadingDegrees,
		SpeedMps:       r.SpeedMps,
		BatteryLevel:   r.BatteryLevel,
		Provider:       types.LocationProvider(r.Provider),
		Satellites:     r.Satellites,
		HDOP:           r.HDOP,
		PDOP:           r.PDOP,
	}
	if r.AccuracyMeters != nil {
		meta.AccuracyMeters = *r.AccuracyMeters
	}
	if r.Timestamp != nil {
		meta.Timestamp = *r.Timestamp
	}
	return meta
}

// LocationResponse is the canonical record as returned to API clients.
type LocationResponse struct {
	DriverID      string             `json:"driver_id"`
	CompanyID     string             `json:"company_id"`
	Location      models.GeoPoint    `json:"location"`
	IsOnline      bool               `json:"is_online"`
	LastSeen      time.Time          `json:"last_seen"`
	Status        types.DriverStatus `json:"status"`
	CurrentZoneID *string            `json:"current_zone_id,omitempty"`
	CurrentJobID  *string            `json:"current_job_id,omitempty"`
}

func ToLocationResponse(loc *models.DriverLocation) LocationResponse {
	return LocationResponse{
		DriverID:      loc.DriverID,
		CompanyID:     loc.CompanyID,
		Location:      loc.Location,
		IsOnline:      loc.IsOnline,
		LastSeen:      loc.LastSeen,
		Status:        loc.Status,
		CurrentZoneID: loc.CurrentZoneID,
		CurrentJobID:  loc.CurrentJobID,
	}
}

// NearbyDriverResponse is one radius-query match.
type NearbyDriverResponse struct {
	LocationResponse
	DistanceMeters float64 `json:"distance_meters"`
}

func ToNearbyResponse(drivers []models.NearbyDriver) []NearbyDriverResponse {
	out := make([]NearbyDriverResponse, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, NearbyDriverResponse{
			LocationResponse: ToLocationResponse(&d.DriverLocation),
			DistanceMeters:   d.DistanceMeters,
		})
	}
	return out
}
