package parser

import (
	"github.com/routecue/waypointd/internal/route"
	"github.com/routecue/waypointd/pkg/core"
)

// ParsedRoute holds a decoded route ready to be handed to route.New.
type ParsedRoute struct {
	Label     string
	Locations []core.LatLon
	Options   route.Options
	// IntermediateNames and Destination name the target stops.
	IntermediateNames []string
	Destination       string
}

// ParsedSegment is a road segment with the fix it was observed at.
type ParsedSegment struct {
	Segment core.RoadSegment
	Fix     core.Fix
}

// routeOptions is the JSON form of the optional route calculation data.
type routeOptions struct {
	MaxSpeeds         []float64       `json:"maxSpeeds"`
	Intermediates     []int           `json:"intermediates"`
	IntermediateNames []string        `json:"intermediateNames"`
	Destination       string          `json:"destination"`
	Alarms            []alarmOption   `json:"alarms"`
	LocationPoints    []locationPoint `json:"locationPoints"`
}

type alarmOption struct {
	Type       string   `json:"type"`
	Tag        string   `json:"tag"`
	RouteIndex int      `json:"routeIndex"`
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
	Value      int      `json:"value"`
}

type locationPoint struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}
