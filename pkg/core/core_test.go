package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	got, err := ParseCategory(" POI ")
	require.NoError(t, err)
	assert.Equal(t, POI, got)

	_, err = ParseCategory("parking")
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.Equal(t, "unknown", Category(9).String())
}

func TestAlarmTypeFromTag(t *testing.T) {
	tests := []struct {
		tag  string
		want AlarmType
		ok   bool
	}{
		{"highway=speed_camera", AlarmSpeedCamera, true},
		{"barrier=toll_booth", AlarmTollBooth, true},
		{"barrier=border_control", AlarmBorderControl, true},
		{"railway=level_crossing", AlarmRailway, true},
		{"traffic_calming=bump", AlarmTrafficCalming, true},
		{"traffic_calming=no", 0, false},
		{"highway=stop", AlarmStop, true},
		{"highway=crossing", AlarmPedestrian, true},
		{"highway=primary", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, ok := AlarmTypeFromTag(tt.tag)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestAlarmTypePriorityOrder(t *testing.T) {
	assert.Less(t, AlarmSpeedCamera.Priority(), AlarmSpeedLimit.Priority())
	assert.Less(t, AlarmSpeedLimit.Priority(), AlarmPedestrian.Priority())

	at, ok := ParseAlarmType("Toll_Booth")
	require.True(t, ok)
	assert.Equal(t, AlarmTollBooth, at)
}

func TestPointKey(t *testing.T) {
	p := Point{ID: "fav-1", Kind: KindFavorite}
	assert.Equal(t, "fav-1", p.Key())

	a := Point{Kind: KindAlarm, Alarm: &AlarmInfo{Type: AlarmStop, RouteIndex: 12}}
	assert.Equal(t, "alarm:stop:12", a.Key())

	w1 := Point{Kind: KindWaypoint, Location: LatLon{Lat: 52.1, Lon: 4.3}, Name: "Gate"}
	w2 := w1
	assert.Equal(t, w1.Key(), w2.Key())
	w2.Name = "Other"
	assert.NotEqual(t, w1.Key(), w2.Key())
}

func TestFixSpeedOrZero(t *testing.T) {
	assert.Equal(t, 0.0, Fix{Speed: 10}.SpeedOrZero())
	assert.Equal(t, 10.0, Fix{Speed: 10, HasSpeed: true}.SpeedOrZero())
	assert.Equal(t, 0.0, Fix{Speed: -3, HasSpeed: true}.SpeedOrZero())
}
