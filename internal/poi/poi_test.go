package poi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/routecue/waypointd/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const amenitiesJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [0.0050, 0.0002]},
     "properties": {"id": "fuel-1", "name": "Corner Fuel", "type": "fuel"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [0.0080, 0.0100]},
     "properties": {"id": "cafe-far", "name": "Hill Cafe", "type": "cafe"}},
    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]},
     "properties": {"id": "road"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [0.0091, -0.0005]},
     "properties": {"name": "Rest Area", "type": "rest_area", "subtype": "toilets"}}
  ]
}`

func testPath() []core.LatLon {
	path := make([]core.LatLon, 101)
	for i := range path {
		path[i] = core.LatLon{Lon: float64(i) * 0.0001}
	}
	return path
}

func TestParseFeatures(t *testing.T) {
	points, err := ParseFeatures([]byte(amenitiesJSON), core.KindAmenity)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, "fuel-1", points[0].ID)
	assert.Equal(t, "Corner Fuel", points[0].Name)
	assert.Equal(t, core.LatLon{Lat: 0.0002, Lon: 0.005}, points[0].Location)
	require.NotNil(t, points[0].Amenity)
	assert.Equal(t, "fuel", points[0].Amenity.Type)
	assert.Equal(t, "toilets", points[2].Amenity.Subtype)
}

func TestParseFeatures_Favorites(t *testing.T) {
	data := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","geometry":{"type":"Point","coordinates":[13.4,52.5]},"properties":{"name":"Home","color":"#ff0000"}}]}`
	points, err := ParseFeatures([]byte(data), core.KindFavorite)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Nil(t, points[0].Amenity)
	assert.Equal(t, "#ff0000", points[0].Color)
	assert.Equal(t, core.KindFavorite, points[0].Kind)
}

func TestParseFeatures_Invalid(t *testing.T) {
	_, err := ParseFeatures([]byte(`{"type":`), core.KindFavorite)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poi.geojson")
	require.NoError(t, os.WriteFile(path, []byte(amenitiesJSON), 0644))

	ix, err := LoadIndex(path)
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.geojson"), core.KindAmenity)
	assert.Error(t, err)
}

func TestIndex_SearchOnPath(t *testing.T) {
	points, err := ParseFeatures([]byte(amenitiesJSON), core.KindAmenity)
	require.NoError(t, err)
	ix := NewIndex(points)
	path := testPath()

	matches := ix.SearchOnPath(path, 150)
	require.Len(t, matches, 2)

	assert.Equal(t, "fuel-1", matches[0].Point.ID)
	assert.InDelta(t, 22, matches[0].Deviation, 1)
	assert.Contains(t, path, matches[0].PathPoint)

	assert.Equal(t, "Rest Area", matches[1].Point.Name)
	assert.InDelta(t, 56, matches[1].Deviation, 1)

	assert.Len(t, ix.SearchOnPath(path, 50), 1)
	assert.Len(t, ix.SearchOnPath(path, 1500), 3)
	assert.Empty(t, ix.SearchOnPath(path[:1], 1500))
}

func TestStore(t *testing.T) {
	s := NewStore(core.Point{ID: "a"})
	assert.Equal(t, 1, s.Len())

	got := s.Points()
	got[0].ID = "changed"
	assert.Equal(t, "a", s.Points()[0].ID)

	s.Set([]core.Point{{ID: "b"}, {ID: "c"}})
	assert.Equal(t, 2, s.Len())
}
