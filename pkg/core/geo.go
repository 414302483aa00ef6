// pkg/core/geo.go
package core

import "time"

// LatLon is a WGS84 coordinate in decimal degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Fix is a single position report from the navigating agent.
type Fix struct {
	LatLon
	// Speed in m/s. Only meaningful when HasSpeed is set.
	Speed    float64   `json:"speed"`
	HasSpeed bool      `json:"hasSpeed"`
	Time     time.Time `json:"time"`
}

// SpeedOrZero returns the reported speed, or 0 when none was reported.
func (f Fix) SpeedOrZero() float64 {
	if !f.HasSpeed || f.Speed < 0 {
		return 0
	}
	return f.Speed
}

// Units selects how distances and speeds are rendered to the user.
type Units int

const (
	Metric Units = iota
	Imperial
)

func (u Units) String() string {
	if u == Imperial {
		return "imperial"
	}
	return "metric"
}

// ParseUnits maps a config value to Units. Anything unrecognised is metric.
func ParseUnits(s string) Units {
	switch s {
	case "imperial", "miles", "mi":
		return Imperial
	}
	return Metric
}
