// pkg/core/alarm.go
package core

import "strings"

// AlarmType is the class of a road hazard or speed warning.
type AlarmType int

const (
	AlarmSpeedCamera AlarmType = iota
	AlarmSpeedLimit
	AlarmBorderControl
	AlarmRailway
	AlarmTrafficCalming
	AlarmTollBooth
	AlarmStop
	AlarmPedestrian
)

// AlarmTypeCount is the number of alarm types.
const AlarmTypeCount = 8

var alarmTypeNames = [AlarmTypeCount]string{
	"speed_camera",
	"speed_limit",
	"border_control",
	"railway",
	"traffic_calming",
	"toll_booth",
	"stop",
	"pedestrian",
}

func (a AlarmType) String() string {
	if a < 0 || a >= AlarmTypeCount {
		return "unknown"
	}
	return alarmTypeNames[a]
}

// Priority is the base urgency of the type; lower is more urgent.
func (a AlarmType) Priority() int {
	return int(a) + 1
}

// ParseAlarmType maps a name such as "speed_camera" to its AlarmType.
func ParseAlarmType(s string) (AlarmType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range alarmTypeNames {
		if name == s {
			return AlarmType(i), true
		}
	}
	return 0, false
}

// AlarmTypeFromTag maps an OSM-style "key=value" road tag to the hazard it
// encodes. Speed limits are never encoded as point tags.
func AlarmTypeFromTag(tag string) (AlarmType, bool) {
	key, value, _ := strings.Cut(strings.ToLower(tag), "=")
	switch {
	case key == "highway" && value == "speed_camera":
		return AlarmSpeedCamera, true
	case (key == "barrier" || key == "highway") && value == "border_control":
		return AlarmBorderControl, true
	case key == "barrier" && value == "toll_booth":
		return AlarmTollBooth, true
	case key == "railway" && (value == "level_crossing" || value == "crossing"):
		return AlarmRailway, true
	case key == "traffic_calming" && value != "" && value != "no":
		return AlarmTrafficCalming, true
	case key == "highway" && value == "stop":
		return AlarmStop, true
	case key == "highway" && value == "crossing":
		return AlarmPedestrian, true
	}
	return 0, false
}

// RoadSegment is the raw road record immediately ahead of the agent.
type RoadSegment struct {
	// MaxSpeed in m/s, 0 when unknown.
	MaxSpeed float64  `json:"maxSpeed"`
	Tags     []string `json:"tags"`
}
