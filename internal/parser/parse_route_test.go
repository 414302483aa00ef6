package parser

import (
	"testing"

	"github.com/routecue/waypointd/internal/geo"
	"github.com/routecue/waypointd/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLocations = []core.LatLon{
	{Lat: 52.0, Lon: 4.0},
	{Lat: 52.001, Lon: 4.0},
	{Lat: 52.002, Lon: 4.0},
	{Lat: 52.003, Lon: 4.0},
}

func TestParseRoute_EncodedPolyline(t *testing.T) {
	p := newTestParser()
	parsed, err := p.ParseRoute([]string{`"Commute"`, geo.EncodePolyline(testLocations)})
	require.NoError(t, err)

	assert.Equal(t, "Commute", parsed.Label)
	require.Len(t, parsed.Locations, 4)
	assert.InDelta(t, 52.003, parsed.Locations[3].Lat, 1e-5)
	assert.Empty(t, parsed.Options.Alarms)
}

func TestParseRoute_JSONGeometry(t *testing.T) {
	p := newTestParser()
	parsed, err := p.ParseRoute([]string{"r", "[[4.0,52.0],[4.0,52.001]]"})
	require.NoError(t, err)
	assert.Equal(t, []core.LatLon{{Lat: 52.0, Lon: 4.0}, {Lat: 52.001, Lon: 4.0}}, parsed.Locations)
}

func TestParseRoute_Options(t *testing.T) {
	p := newTestParser()
	opts := `{
		"maxSpeeds": [0, 13.9, 13.9, 8.3],
		"intermediates": [2],
		"intermediateNames": ["Bakery"],
		"destination": "Office",
		"alarms": [
			{"type": "speed_camera", "routeIndex": 1},
			{"tag": "railway=level_crossing", "routeIndex": 2, "lat": 52.0021, "lon": 4.0001},
			{"type": "unicorn", "routeIndex": 1},
			{"type": "stop", "routeIndex": 9}
		],
		"locationPoints": [
			{"name": "Gate", "lat": 52.0015, "lon": 4.0},
			{"name": "Broken", "lat": 120, "lon": 4.0}
		]
	}`
	parsed, err := p.ParseRoute([]string{"r", "[[4.0,52.0],[4.0,52.001],[4.0,52.002],[4.0,52.003]]", opts})
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 13.9, 13.9, 8.3}, parsed.Options.MaxSpeeds)
	assert.Equal(t, []int{2}, parsed.Options.Intermediates)
	assert.Equal(t, []string{"Bakery"}, parsed.IntermediateNames)
	assert.Equal(t, "Office", parsed.Destination)

	require.Len(t, parsed.Options.Alarms, 2)
	cam := parsed.Options.Alarms[0]
	assert.Equal(t, core.KindAlarm, cam.Kind)
	assert.Equal(t, core.AlarmSpeedCamera, cam.Alarm.Type)
	assert.Equal(t, parsed.Locations[1], cam.Location, "defaults to the route vertex")

	rail := parsed.Options.Alarms[1]
	assert.Equal(t, core.AlarmRailway, rail.Alarm.Type)
	assert.Equal(t, core.LatLon{Lat: 52.0021, Lon: 4.0001}, rail.Location)

	require.Len(t, parsed.Options.LocationPoints, 1)
	assert.Equal(t, "Gate", parsed.Options.LocationPoints[0].Name)
	assert.Equal(t, core.KindWaypoint, parsed.Options.LocationPoints[0].Kind)
}

func TestParseRoute_Errors(t *testing.T) {
	p := newTestParser()
	geom := "[[4.0,52.0],[4.0,52.001]]"

	tests := []struct {
		name string
		data []string
	}{
		{"missing geometry", []string{"r"}},
		{"single point", []string{"r", "[[4.0,52.0]]"}},
		{"bad polyline", []string{"r", "[not json"}},
		{"bad options", []string{"r", geom, "{broken"}},
		{"intermediate out of range", []string{"r", geom, `{"intermediates":[5]}`}},
		{"intermediates out of order", []string{"r", "[[4.0,52.0],[4.0,52.001],[4.0,52.002]]", `{"intermediates":[1,0]}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseRoute(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestParseSegment(t *testing.T) {
	p := newTestParser()

	parsed, err := p.ParseSegment([]string{`{"maxSpeed": 13.9, "tags": ["highway=speed_camera"]}`, "52.0", "4.0", "15"})
	require.NoError(t, err)
	assert.Equal(t, 13.9, parsed.Segment.MaxSpeed)
	assert.Equal(t, []string{"highway=speed_camera"}, parsed.Segment.Tags)
	assert.Equal(t, 15.0, parsed.Fix.Speed)

	parsed, err = p.ParseSegment([]string{`{"maxSpeed": -4}`, "52.0", "4.0"})
	require.NoError(t, err)
	assert.Zero(t, parsed.Segment.MaxSpeed)

	_, err = p.ParseSegment([]string{`{"maxSpeed": 1}`, "52.0"})
	assert.ErrorIs(t, err, ErrMissingArgs)

	_, err = p.ParseSegment([]string{`maxSpeed`, "52.0", "4.0"})
	assert.Error(t, err)
}
