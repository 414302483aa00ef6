// pkg/core/point.go
package core

import "fmt"

// PointKind tags which payload of a Point is populated.
type PointKind int

const (
	KindTarget PointKind = iota
	KindWaypoint
	KindFavorite
	KindAmenity
	KindAlarm
)

func (k PointKind) String() string {
	switch k {
	case KindTarget:
		return "target"
	case KindWaypoint:
		return "waypoint"
	case KindFavorite:
		return "favorite"
	case KindAmenity:
		return "amenity"
	case KindAlarm:
		return "alarm"
	}
	return "unknown"
}

// Point is a located thing the agent may pass: a target, a user waypoint or
// favorite, a POI, or a road alarm. Exactly one of the kind-specific payloads
// is set for targets, amenities and alarms.
type Point struct {
	ID          string    `json:"id"`
	Kind        PointKind `json:"kind"`
	Location    LatLon    `json:"location"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`

	Target  *TargetInfo  `json:"target,omitempty"`
	Amenity *AmenityInfo `json:"amenity,omitempty"`
	Alarm   *AlarmInfo   `json:"alarm,omitempty"`
}

// TargetInfo describes an intermediate stop or the final destination.
type TargetInfo struct {
	Intermediate bool `json:"intermediate"`
	// Index among the intermediates; unused for the destination.
	Index int `json:"index"`
}

// AmenityInfo is the POI-specific payload.
type AmenityInfo struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
}

// AlarmInfo is a route-indexed hazard produced by route calculation.
type AlarmInfo struct {
	Type       AlarmType `json:"type"`
	RouteIndex int       `json:"routeIndex"`
	// Value carries the displayed speed for speed-limit alarms.
	Value int `json:"value,omitempty"`
}

// Key returns the identity used for announcement state. Points without an
// explicit ID get one derived from their kind, position and name so the same
// physical point keeps its identity across rebuilds.
func (p Point) Key() string {
	if p.ID != "" {
		return p.ID
	}
	if p.Alarm != nil {
		return fmt.Sprintf("%s:%s:%d", p.Kind, p.Alarm.Type, p.Alarm.RouteIndex)
	}
	return fmt.Sprintf("%s:%.6f:%.6f:%s", p.Kind, p.Location.Lat, p.Location.Lon, p.Name)
}

// Label is a short human readable name for the point.
func (p Point) Label() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Alarm != nil:
		return p.Alarm.Type.String()
	case p.Amenity != nil:
		return p.Amenity.Type
	case p.Target != nil && !p.Target.Intermediate:
		return "destination"
	}
	return p.Kind.String()
}

// AmenityMatch is a POI search result matched against a route path.
type AmenityMatch struct {
	Point Point
	// PathPoint is the route coordinate the amenity was matched to.
	PathPoint LatLon
	Deviation float64
}
