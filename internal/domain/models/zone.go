package models

// GeofenceZone is owned and mutated by external configuration tooling.
// This core only reads containment results, never the boundary itself.
type GeofenceZone struct {
	ID               string `json:"id"`
	CompanyID        string `json:"company_id"`
	Name             string `json:"name"`
	AlertOnEntry     bool   `json:"alert_on_entry"`
	AlertOnExit      bool   `json:"alert_on_exit"`
	AlertOnDwell     bool   `json:"alert_on_dwell"`
	DwellTimeMinutes int    `json:"dwell_time_minutes"`
	Priority         int    `json:"priority"`
	IsActive         bool   `json:"is_active"`
}

// ZoneRef is the containment-query result: the single highest-priority
// active zone covering a point, or nothing.
type ZoneRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}
