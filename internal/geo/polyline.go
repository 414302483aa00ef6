package geo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/routecue/waypointd/pkg/core"
	"github.com/twpayne/go-polyline"
)

// ErrEmptyPolyline is returned when a polyline decodes to fewer than two points.
var ErrEmptyPolyline = errors.New("polyline must have at least 2 points")

// DecodePolyline decodes a Google encoded polyline.
func DecodePolyline(encoded string) ([]core.LatLon, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}
	if len(coords) < 2 {
		return nil, ErrEmptyPolyline
	}
	out := make([]core.LatLon, len(coords))
	for i, c := range coords {
		out[i] = core.LatLon{Lat: c[0], Lon: c[1]}
		if !Valid(out[i]) {
			return nil, fmt.Errorf("coordinate %d: %w", i, ErrInvalidCoordinates)
		}
	}
	return out, nil
}

// EncodePolyline is the inverse of DecodePolyline.
func EncodePolyline(locations []core.LatLon) string {
	coords := make([][]float64, len(locations))
	for i, l := range locations {
		coords[i] = []float64{l.Lat, l.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}

// ParsePolyline parses a JSON array of coordinates.
// Input format: "[[lon1,lat1],[lon2,lat2],...]"
func ParsePolyline(input []byte) ([]core.LatLon, error) {
	var coords [][]float64
	if err := json.Unmarshal(input, &coords); err != nil {
		return nil, fmt.Errorf("failed to parse polyline JSON: %w", err)
	}
	return FromLonLat(coords)
}

// FromLonLat converts [lon, lat] pairs.
func FromLonLat(coords [][]float64) ([]core.LatLon, error) {
	if len(coords) < 2 {
		return nil, ErrEmptyPolyline
	}
	out := make([]core.LatLon, len(coords))
	for i, coord := range coords {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate %d has insufficient values", i)
		}
		out[i] = core.LatLon{Lat: coord[1], Lon: coord[0]}
		if !Valid(out[i]) {
			return nil, fmt.Errorf("coordinate %d: %w", i, ErrInvalidCoordinates)
		}
	}
	return out, nil
}
