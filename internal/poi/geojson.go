// Package poi loads user points and amenities from GeoJSON and searches them
// along a route.
package poi

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/routecue/waypointd/internal/geo"
	"github.com/routecue/waypointd/pkg/core"
)

// ParseFeatures decodes a GeoJSON FeatureCollection of Point features.
// Non-point features and invalid coordinates are skipped.
func ParseFeatures(data []byte, kind core.PointKind) ([]core.Point, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("error decoding feature collection: %w", err)
	}

	points := make([]core.Point, 0, len(fc.Features))
	for _, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		loc := core.LatLon{Lat: pt.Lat(), Lon: pt.Lon()}
		if !geo.Valid(loc) {
			continue
		}
		p := core.Point{
			ID:          f.Properties.MustString("id", ""),
			Kind:        kind,
			Location:    loc,
			Name:        f.Properties.MustString("name", ""),
			Description: f.Properties.MustString("description", ""),
			Color:       f.Properties.MustString("color", ""),
		}
		if kind == core.KindAmenity {
			p.Amenity = &core.AmenityInfo{
				Type:    f.Properties.MustString("type", "amenity"),
				Subtype: f.Properties.MustString("subtype", ""),
			}
		}
		points = append(points, p)
	}
	return points, nil
}

// LoadFile reads and decodes a GeoJSON file.
func LoadFile(path string, kind core.PointKind) ([]core.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return ParseFeatures(data, kind)
}
