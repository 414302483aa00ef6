package waypoint

import (
	"math"
	"testing"

	"github.com/routecue/waypointd/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestAlarmPriority(t *testing.T) {
	n := core.AlarmTypeCount
	tests := []struct {
		name     string
		typ      core.AlarmType
		tta      float64
		distance float64
		want     int
	}{
		{"imminent by time", core.AlarmStop, 5, 500, core.AlarmStop.Priority()},
		{"imminent by distance", core.AlarmStop, 100, 70, core.AlarmStop.Priority()},
		{"camera wider window", core.AlarmSpeedCamera, 10, 500, core.AlarmSpeedCamera.Priority()},
		{"camera by distance", core.AlarmSpeedCamera, 100, 140, core.AlarmSpeedCamera.Priority()},
		{"near by time", core.AlarmStop, 6.5, 500, core.AlarmStop.Priority() + n},
		{"near by distance", core.AlarmStop, 20, 90, core.AlarmStop.Priority() + n},
		{"camera near", core.AlarmSpeedCamera, 20, 500, core.AlarmSpeedCamera.Priority() + 2*n},
		{"far", core.AlarmStop, 100, 600, core.AlarmStop.Priority() + 2*n},
		{"unknown speed", core.AlarmRailway, math.Inf(1), 600, core.AlarmRailway.Priority() + 2*n},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AlarmPriority(tt.typ, tt.tta, tt.distance))
		})
	}
}

func TestAlarmPriority_CloseHazardBeatsFarCamera(t *testing.T) {
	near := AlarmPriority(core.AlarmPedestrian, 3, 40)
	far := AlarmPriority(core.AlarmSpeedCamera, 60, 650)
	assert.Less(t, near, far)
}

func TestSpeedAlarm(t *testing.T) {
	moving := core.Fix{Speed: 30, HasSpeed: true}

	a := SpeedAlarm(20, moving, 7.2, core.Metric)
	if assert.NotNil(t, a) {
		assert.Equal(t, core.AlarmSpeedLimit, a.Type)
		assert.Equal(t, 72, a.Value)
		assert.Equal(t, -1, a.RouteIndex)
	}

	a = SpeedAlarm(20, moving, 7.2, core.Imperial)
	if assert.NotNil(t, a) {
		assert.Equal(t, 45, a.Value)
	}

	assert.Nil(t, SpeedAlarm(20, core.Fix{Speed: 18, HasSpeed: true}, 7.2, core.Metric))
	assert.Nil(t, SpeedAlarm(20, core.Fix{Speed: 21, HasSpeed: true}, 7.2, core.Metric), "within tolerance")
	assert.Nil(t, SpeedAlarm(0, moving, 7.2, core.Metric), "unknown limit")
	assert.Nil(t, SpeedAlarm(20, core.Fix{Speed: 30}, 7.2, core.Metric), "fix without speed")
}

func TestAlarmTypes_FirstSeenOrder(t *testing.T) {
	points := []RoutePoint{
		{Point: alarmAt(core.AlarmRailway, 1)},
		{Point: alarmAt(core.AlarmStop, 2)},
		{Point: alarmAt(core.AlarmRailway, 3)},
		{Point: core.Point{}},
	}
	assert.Equal(t, []core.AlarmType{core.AlarmRailway, core.AlarmStop}, alarmTypes(points))
}
