package waypoint

import "github.com/routecue/waypointd/pkg/core"

// SearchRadiusValues are the deviation radii a user can choose from, in meters.
var SearchRadiusValues = []int{50, 100, 150, 250, 500, 1000, 1500}

const (
	DefaultSearchDeviationRadius    = 500
	DefaultPOISearchDeviationRadius = 150
)

// Settings are the user preferences the engine reads. A point category is
// collected when either its show or announce flag is set; only announce
// makes its points speak.
type Settings struct {
	ShowWaypoints     bool
	AnnounceWaypoints bool
	ShowFavorites     bool
	AnnounceFavorites bool
	ShowPOI           bool
	AnnouncePOI       bool

	ShowTrafficWarnings     bool
	AnnounceTrafficWarnings bool
	// Camera flags are never changed implicitly, some countries restrict them.
	ShowCameras     bool
	AnnounceCameras bool

	SearchDeviationRadius    int
	POISearchDeviationRadius int

	// SpeedLimitExceed is the tolerated excess over the limit in km/h.
	SpeedLimitExceed float64
	Units            core.Units
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		ShowWaypoints:            true,
		AnnounceWaypoints:        true,
		ShowFavorites:            true,
		AnnounceFavorites:        true,
		ShowTrafficWarnings:      true,
		AnnounceTrafficWarnings:  true,
		SearchDeviationRadius:    DefaultSearchDeviationRadius,
		POISearchDeviationRadius: DefaultPOISearchDeviationRadius,
		SpeedLimitExceed:         5,
	}
}

// SnapRadius returns the allowed search radius closest to r.
func SnapRadius(r int) int {
	best := SearchRadiusValues[0]
	for _, v := range SearchRadiusValues {
		if abs(v-r) < abs(best-r) {
			best = v
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (s Settings) deviationRadius(c core.Category) int {
	if c == core.POI {
		return s.POISearchDeviationRadius
	}
	return s.SearchDeviationRadius
}

func (s Settings) enabled(c core.Category) bool {
	switch c {
	case core.Alarms:
		return s.ShowTrafficWarnings || s.AnnounceTrafficWarnings
	case core.POI:
		return s.AnnouncePOI
	case core.Favorites:
		return s.AnnounceFavorites
	case core.Waypoints:
		return s.AnnounceWaypoints
	}
	return true
}

// withCategory turns both flags of a category on or off.
func (s Settings) withCategory(c core.Category, enable bool) Settings {
	switch c {
	case core.Alarms:
		s.ShowTrafficWarnings, s.AnnounceTrafficWarnings = enable, enable
	case core.POI:
		s.ShowPOI, s.AnnouncePOI = enable, enable
	case core.Favorites:
		s.ShowFavorites, s.AnnounceFavorites = enable, enable
	case core.Waypoints:
		s.ShowWaypoints, s.AnnounceWaypoints = enable, enable
	}
	return s
}
