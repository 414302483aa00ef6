package voice

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/routecue/waypointd/internal/waypoint"
	"github.com/routecue/waypointd/pkg/core"
)

const (
	feetPerMeter  = 3.28084
	metersPerMile = 1609.344
)

// FormatDistance renders a distance in meters the way it is spoken.
func FormatDistance(meters float64, units core.Units) string {
	if meters < 0 || math.IsNaN(meters) {
		meters = 0
	}
	if units == core.Imperial {
		feet := meters * feetPerMeter
		if feet < 1000 {
			return humanize.Comma(roundTo(feet, 50)) + " feet"
		}
		return tenths(meters/metersPerMile) + " miles"
	}
	if meters < 1000 {
		return humanize.Comma(roundTo(meters, 10)) + " meters"
	}
	return tenths(meters/1000) + " kilometers"
}

// tenths rounds v to one decimal. FtoaWithDigits alone truncates.
func tenths(v float64) string {
	return humanize.FtoaWithDigits(math.Round(v*10)/10, 1)
}

// roundTo rounds v to the nearest multiple of step, never below step.
func roundTo(v float64, step int64) int64 {
	r := int64(math.Round(v/float64(step))) * step
	if r < step {
		return step
	}
	return r
}

// SpeedUnit is the unit speed limits are displayed in.
func SpeedUnit(units core.Units) string {
	if units == core.Imperial {
		return "mph"
	}
	return "km/h"
}

// AlarmText is the spoken name of an alarm type.
func AlarmText(t core.AlarmType) string {
	return strings.ReplaceAll(t.String(), "_", " ")
}

// pointList names the first point and counts the rest.
func pointList(points []waypoint.RoutePoint) string {
	if len(points) == 0 {
		return ""
	}
	label := points[0].Point.Label()
	if len(points) == 1 {
		return label
	}
	return fmt.Sprintf("%s and %d more", label, len(points)-1)
}

func pointKeys(points []waypoint.RoutePoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Point.Key()
	}
	return out
}
