package rediscache

import (
	"fmt"
	"strconv"
	"time"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/models"
	"github.com/adilzhm/fleet-tracking-system/internal/domain/types"
)

// Hash field names of the per-driver detail record.
const (
	fieldDriverID  = "driver_id"
	fieldCompanyID = "company_id"
	fieldLatitude  = "latitude"
	fieldLongitude = "longitude"
	fieldAltitude  = "altitude"
	fieldAccuracy  = "accuracy_meters"
	fieldHeading   = "heading_degrees"
	fieldSpeed     = "speed_mps"
	fieldBattery   = "battery_level"
	fieldTimestamp = "timestamp"
	fieldProvider  = "provider"
	fieldSats      = "satellites"
	fieldHDOP      = "hdop"
	fieldPDOP      = "pdop"
	fieldIsOnline  = "is_online"
	fieldLastSeen  = "last_seen"
	fieldZoneID    = "current_zone_id"
	fieldJobID     = "current_job_id"
	fieldStatus    = "status"
)

// flattenRecord turns a DriverLocation into the string-valued hash stored
// under the driver detail key. Absent optional fields are written as
// empty strings: HSET never clears fields it is not given, so every
// write must cover the full field set or values from the previous
// sample (a departed zone, a finished job, stale telemetry) would
// survive in the hash. parseRecord maps the empty strings back to nil.
func flattenRecord(loc models.DriverLocation) map[string]string {
	return map[string]string{
		fieldDriverID:  loc.DriverID,
		fieldCompanyID: loc.CompanyID,
		fieldLatitude:  formatFloat(loc.Location.Latitude),
		fieldLongitude: formatFloat(loc.Location.Longitude),
		fieldAltitude:  formatOptFloat(loc.Location.Altitude),
		fieldAccuracy:  formatFloat(loc.Metadata.AccuracyMeters),
		fieldHeading:   formatOptFloat(loc.Metadata.HeadingDegrees),
		fieldSpeed:     formatOptFloat(loc.Metadata.SpeedMps),
		fieldBattery:   formatOptFloat(loc.Metadata.BatteryLevel),
		fieldTimestamp: loc.Metadata.Timestamp.UTC().Format(time.RFC3339Nano),
		fieldProvider:  string(loc.Metadata.Provider),
		fieldSats:      formatOptInt(loc.Metadata.Satellites),
		fieldHDOP:      formatOptFloat(loc.Metadata.HDOP),
		fieldPDOP:      formatOptFloat(loc.Metadata.PDOP),
		fieldIsOnline:  strconv.FormatBool(loc.IsOnline),
		fieldLastSeen:  loc.LastSeen.UTC().Format(time.RFC3339Nano),
		fieldZoneID:    derefString(loc.CurrentZoneID),
		fieldJobID:     derefString(loc.CurrentJobID),
		fieldStatus:    loc.Status.String(),
	}
}

// parseRecord reconstructs a DriverLocation from the detail hash. Required
// fields must parse; optional fields that fail to parse are dropped rather
// than failing the whole record.
func parseRecord(fields map[string]string) (*models.DriverLocation, error) {
	lat, err := strconv.ParseFloat(fields[fieldLatitude], 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fieldLatitude, err)
	}
	lon, err := strconv.ParseFloat(fields[fieldLongitude], 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fieldLongitude, err)
	}

	loc := &models.DriverLocation{
		DriverID:  fields[fieldDriverID],
		CompanyID: fields[fieldCompanyID],
		Location: models.GeoPoint{
			Latitude:  lat,
			Longitude: lon,
		},
		Metadata: models.LocationMetadata{
			Provider: types.LocationProvider(fields[fieldProvider]),
		},
		Status: types.DriverStatus(fields[fieldStatus]),
	}

	if v, err := strconv.ParseFloat(fields[fieldAccuracy], 64); err == nil {
		loc.Metadata.AccuracyMeters = v
	}
	if v, err := strconv.ParseBool(fields[fieldIsOnline]); err == nil {
		loc.IsOnline = v
	}
	if t, err := time.Parse(time.RFC3339Nano, fields[fieldTimestamp]); err == nil {
		loc.Metadata.Timestamp = t
	}
	if t, err := time.Parse(time.RFC3339Nano, fields[fieldLastSeen]); err == nil {
		loc.LastSeen = t
	}

	loc.Location.Altitude = parseOptFloat(fields, fieldAltitude)
	loc.Metadata.HeadingDegrees = parseOptFloat(fields, fieldHeading)
	loc.Metadata.SpeedMps = parseOptFloat(fields, fieldSpeed)
	loc.Metadata.BatteryLevel = parseOptFloat(fields, fieldBattery)
	loc.Metadata.HDOP = parseOptFloat(fields, fieldHDOP)
	loc.Metadata.PDOP = parseOptFloat(fields, fieldPDOP)

	if raw, ok := fields[fieldSats]; ok {
		if v, err := strconv.Atoi(raw); err == nil {
			loc.Metadata.Satellites = &v
		}
	}
	if v, ok := fields[fieldZoneID]; ok && v != "" {
		loc.CurrentZoneID = &v
	}
	if v, ok := fields[fieldJobID]; ok && v != "" {
		loc.CurrentJobID = &v
	}
	return loc, nil
}

func parseOptFloat(fields map[string]string, key string) *float64 {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatOptInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
