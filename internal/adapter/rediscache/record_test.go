package rediscache

import (
	"testing"
	"time"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/models"
	"github.com/adilzhm/fleet-tracking-system/internal/domain/types"
)

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }
func ptrS(v string) *string   { return &v }

func TestRecordRoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 589000000, time.UTC)
	loc := models.DriverLocation{
		DriverID:  "driver-1",
		CompanyID: "company-1",
		Location: models.GeoPoint{
			Latitude:  43.238949,
			Longitude: 76.889709,
			Altitude:  ptrF(812.5),
		},
		Metadata: models.LocationMetadata{
			AccuracyMeters: 4.2,
			HeadingDegrees: ptrF(271.0),
			SpeedMps:       ptrF(13.9),
			BatteryLevel:   ptrF(0.58),
			Timestamp:      ts,
			Provider:       types.ProviderGPS,
			Satellites:     ptrI(11),
			HDOP:           ptrF(0.9),
			PDOP:           ptrF(1.4),
		},
		IsOnline:      true,
		LastSeen:      ts,
		CurrentZoneID: ptrS("zone-7"),
		CurrentJobID:  ptrS("job-42"),
		Status:        types.StatusBusy,
	}

	got, err := parseRecord(flattenRecord(loc))
	if err != nil {
		t.Fatalf("parseRecord: %v", err)
	}

	if got.DriverID != loc.DriverID || got.CompanyID != loc.CompanyID {
		t.Errorf("identity mismatch: got %s/%s", got.DriverID, got.CompanyID)
	}
	if got.Location.Latitude != loc.Location.Latitude || got.Location.Longitude != loc.Location.Longitude {
		t.Errorf("position mismatch: got %v/%v", got.Location.Latitude, got.Location.Longitude)
	}
	if got.Location.Altitude == nil || *got.Location.Altitude != 812.5 {
		t.Errorf("altitude mismatch: %v", got.Location.Altitude)
	}
	if got.Metadata.AccuracyMeters != 4.2 {
		t.Errorf("accuracy mismatch: %v", got.Metadata.AccuracyMeters)
	}
	if got.Metadata.SpeedMps == nil || *got.Metadata.SpeedMps != 13.9 {
		t.Errorf("speed mismatch: %v", got.Metadata.SpeedMps)
	}
	if got.Metadata.Satellites == nil || *got.Metadata.Satellites != 11 {
		t.Errorf("satellites mismatch: %v", got.Metadata.Satellites)
	}
	if got.Metadata.Provider != types.ProviderGPS {
		t.Errorf("provider mismatch: %v", got.Metadata.Provider)
	}
	if !got.Metadata.Timestamp.Equal(ts) || !got.LastSeen.Equal(ts) {
		t.Errorf("timestamp mismatch: %v / %v", got.Metadata.Timestamp, got.LastSeen)
	}
	if !got.IsOnline {
		t.Error("expected online")
	}
	if got.CurrentZoneID == nil || *got.CurrentZoneID != "zone-7" {
		t.Errorf("zone mismatch: %v", got.CurrentZoneID)
	}
	if got.CurrentJobID == nil || *got.CurrentJobID != "job-42" {
		t.Errorf("job mismatch: %v", got.CurrentJobID)
	}
	if got.Status != types.StatusBusy {
		t.Errorf("status mismatch: %v", got.Status)
	}
}

func TestRecordOptionalFieldsAbsent(t *testing.T) {
	loc := models.DriverLocation{
		DriverID:  "driver-2",
		CompanyID: "company-1",
		Location:  models.GeoPoint{Latitude: 51.1605, Longitude: 71.4704},
		Metadata: models.LocationMetadata{
			AccuracyMeters: 10,
			Timestamp:      time.Now().UTC(),
			Provider:       types.ProviderNetwork,
		},
		IsOnline: true,
		LastSeen: time.Now().UTC(),
		Status:   types.StatusAvailable,
	}

	// Absent optionals are written as empty strings, never omitted: the
	// hash is updated with HSET, which only overwrites the fields it is
	// given.
	fields := flattenRecord(loc)
	for _, key := range []string{fieldAltitude, fieldHeading, fieldSpeed, fieldBattery, fieldSats, fieldHDOP, fieldPDOP, fieldZoneID, fieldJobID} {
		if v, ok := fields[key]; !ok || v != "" {
			t.Errorf("expected %s written as empty string, got %q (present=%v)", key, v, ok)
		}
	}

	got, err := parseRecord(fields)
	if err != nil {
		t.Fatalf("parseRecord: %v", err)
	}
	if got.Location.Altitude != nil || got.Metadata.SpeedMps != nil || got.CurrentZoneID != nil || got.CurrentJobID != nil {
		t.Error("expected optional fields to stay nil")
	}
}

// A rewrite of the same driver key must clear optionals the new sample no
// longer carries. Simulated the way Redis applies it: HSET semantics,
// later fields overwrite earlier ones field by field.
func TestFlattenRecordOverwritesDroppedOptionals(t *testing.T) {
	loc := models.DriverLocation{
		DriverID:      "driver-3",
		CompanyID:     "company-1",
		Location:      models.GeoPoint{Latitude: 43.2, Longitude: 76.9},
		Metadata:      models.LocationMetadata{SpeedMps: ptrF(12.0), Timestamp: time.Now().UTC()},
		IsOnline:      true,
		LastSeen:      time.Now().UTC(),
		CurrentZoneID: ptrS("z1"),
		CurrentJobID:  ptrS("job-9"),
		Status:        types.StatusBusy,
	}

	hash := flattenRecord(loc)

	loc.CurrentZoneID = nil
	loc.CurrentJobID = nil
	loc.Metadata.SpeedMps = nil
	loc.Status = types.StatusAvailable
	for k, v := range flattenRecord(loc) {
		hash[k] = v
	}

	got, err := parseRecord(hash)
	if err != nil {
		t.Fatalf("parseRecord: %v", err)
	}
	if got.CurrentZoneID != nil {
		t.Errorf("expected departed zone cleared, got %q", *got.CurrentZoneID)
	}
	if got.CurrentJobID != nil {
		t.Errorf("expected finished job cleared, got %q", *got.CurrentJobID)
	}
	if got.Metadata.SpeedMps != nil {
		t.Errorf("expected stale speed cleared, got %v", *got.Metadata.SpeedMps)
	}
	if got.Status != types.StatusAvailable {
		t.Errorf("expected status available, got %s", got.Status)
	}
}

func TestParseRecordRejectsBadCoordinates(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"missing latitude", map[string]string{fieldDriverID: "d", fieldLongitude: "76.9"}},
		{"garbage longitude", map[string]string{fieldDriverID: "d", fieldLatitude: "43.2", fieldLongitude: "east"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseRecord(tc.fields); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseRecordDropsMalformedOptionals(t *testing.T) {
	fields := map[string]string{
		fieldDriverID:  "d",
		fieldCompanyID: "c",
		fieldLatitude:  "43.2",
		fieldLongitude: "76.9",
		fieldSpeed:     "fast",
		fieldSats:      "many",
	}

	got, err := parseRecord(fields)
	if err != nil {
		t.Fatalf("parseRecord: %v", err)
	}
	if got.Metadata.SpeedMps != nil {
		t.Errorf("expected malformed speed to be dropped, got %v", *got.Metadata.SpeedMps)
	}
	if got.Metadata.Satellites != nil {
		t.Errorf("expected malformed satellites to be dropped, got %v", *got.Metadata.Satellites)
	}
}
