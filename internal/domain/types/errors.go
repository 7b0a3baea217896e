package types

import "errors"

var (
	ErrDriverNotFound   = errors.New("driver not found")
	ErrDriverOffline    = errors.New("driver is offline")
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
	ErrInvalidProvider  = errors.New("provider must be one of GPS, NETWORK, PASSIVE")

	ErrNoCachedLocation = errors.New("no cached location for driver")
	ErrZoneNotFound     = errors.New("zone not found")

	ErrDatabaseFailed = errors.New("database operation failed")
	ErrCacheFailed    = errors.New("cache operation failed")
	ErrPublishFailed  = errors.New("event publish failed")
)
