package waypoint

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/routecue/waypointd/internal/route"
	"github.com/routecue/waypointd/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// advance moves the route to vertex i and runs a pass from there.
func advance(h *Helper, r *route.Route, i int, speed float64) {
	r.SetCurrentRouteIndex(i)
	h.LocationChanged(fixAt(i, speed))
}

func TestHelper_NoRouteIsNoop(t *testing.T) {
	h, sink := newHelper(t, Dependencies{Favorites: favorites(3, 10, 5)}, DefaultSettings())

	h.LocationChanged(fixAt(5, 10))
	assert.False(t, h.IsRouteCalculated())
	assert.Nil(t, h.MostImportantAlarm(core.Metric, true))
	assert.Empty(t, h.Points(core.Favorites))
	_, ok := h.MostImportantUpcomingPoint()
	assert.False(t, ok)
	assert.Zero(t, h.RouteDistance(RoutePoint{RouteIndex: 10}))
	assert.Empty(t, sink.batches)

	fix, ok := h.LastFix()
	assert.True(t, ok)
	assert.Equal(t, vertex(5), fix.LatLon)
}

func TestHelper_WaypointApproachThenAnnounce(t *testing.T) {
	wp := pointNear("wp", core.KindWaypoint, 100, 20)
	h, sink := newHelper(t, Dependencies{Waypoints: staticPoints{wp}}, DefaultSettings())
	r := newRoute("r", 300, route.Options{})
	h.SetNewRoute(r)
	require.Len(t, h.Points(core.Waypoints), 1)

	advance(h, r, 50, 0)
	approach := sink.stage(core.StageApproach)
	require.Len(t, approach, 1)
	assert.Equal(t, core.Waypoints, approach[0].category)
	assert.Equal(t, []string{"wp"}, ids(approach[0].points))
	assert.Empty(t, sink.stage(core.StageAnnounce))
	assert.Equal(t, AnnouncedOnce, h.State(h.Points(core.Waypoints)[0]))

	advance(h, r, 100, 0)
	announce := sink.stage(core.StageAnnounce)
	require.Len(t, announce, 1)
	assert.Equal(t, []string{"wp"}, ids(announce[0].points))
	assert.Equal(t, AnnouncedDone, h.State(h.Points(core.Waypoints)[0]))

	advance(h, r, 150, 0)
	assert.Len(t, sink.stage(core.StageApproach), 1)
	assert.Len(t, sink.stage(core.StageAnnounce), 1)
}

func TestHelper_FarPointsAreNotAnnounced(t *testing.T) {
	h, sink := newHelper(t, Dependencies{Favorites: favorites(1, 250, 5)}, DefaultSettings())
	r := newRoute("r", 300, route.Options{})
	h.SetNewRoute(r)

	advance(h, r, 10, 0)
	assert.Empty(t, sink.batches)
}

func TestHelper_ApproachBatchIsCapped(t *testing.T) {
	h, sink := newHelper(t, Dependencies{Favorites: favorites(10, 60, 10)}, DefaultSettings())
	r := newRoute("r", 300, route.Options{})
	h.SetNewRoute(r)

	advance(h, r, 10, 0)
	approach := sink.stage(core.StageApproach)
	require.Len(t, approach, 1)
	assert.Equal(t, []string{"fav-0", "fav-1", "fav-2"}, ids(approach[0].points))

	// Points past the cap moved on as well and are not repeated.
	for _, rp := range h.Points(core.Favorites) {
		assert.Equal(t, AnnouncedOnce, h.State(rp), rp.Point.ID)
	}
	h.LocationChanged(fixAt(10, 0))
	assert.Len(t, sink.batches, 1)
}

func TestHelper_DisplayOnlyPointsStaySilent(t *testing.T) {
	s := DefaultSettings()
	s.AnnounceFavorites = false
	h, sink := newHelper(t, Dependencies{Favorites: favorites(2, 20, 5)}, s)
	r := newRoute("r", 300, route.Options{})
	h.SetNewRoute(r)
	require.Len(t, h.Points(core.Favorites), 2)

	advance(h, r, 15, 0)
	advance(h, r, 19, 0)
	assert.Empty(t, sink.batches)
}

func TestHelper_AlarmsDedupedByType(t *testing.T) {
	h, sink := newHelper(t, Dependencies{}, DefaultSettings())
	r := newRoute("r", 300, route.Options{Alarms: []core.Point{
		alarmAt(core.AlarmStop, 20),
		alarmAt(core.AlarmStop, 21),
		alarmAt(core.AlarmRailway, 22),
		alarmAt(core.AlarmSpeedCamera, 23),
	}})
	h.SetNewRoute(r)
	require.Len(t, h.Points(core.Alarms), 3, "cameras are hidden by default")

	advance(h, r, 15, 0)
	assert.Equal(t, []core.AlarmType{core.AlarmStop, core.AlarmRailway}, sink.alarms)

	advance(h, r, 15, 0)
	advance(h, r, 20, 0)
	assert.Len(t, sink.alarms, 2)
	for _, b := range sink.batches {
		assert.NotEqual(t, core.Alarms, b.category)
	}
}

func TestHelper_SetNewRouteResetsStates(t *testing.T) {
	h, sink := newHelper(t, Dependencies{Favorites: favorites(1, 30, 5)}, DefaultSettings())
	r := newRoute("r", 300, route.Options{})
	h.SetNewRoute(r)
	advance(h, r, 10, 0)
	require.Len(t, sink.stage(core.StageApproach), 1)

	r2 := newRoute("r2", 300, route.Options{})
	h.SetNewRoute(r2)
	assert.Equal(t, NotAnnounced, h.State(h.Points(core.Favorites)[0]))
	advance(h, r2, 10, 0)
	assert.Len(t, sink.stage(core.StageApproach), 2)
}

func TestHelper_ClearAllVisiblePointsKeepsRoute(t *testing.T) {
	h, _ := newHelper(t, Dependencies{Favorites: favorites(2, 30, 5)}, DefaultSettings())
	h.SetNewRoute(newRoute("r", 300, route.Options{}))
	require.Len(t, h.Points(core.Favorites), 2)

	h.ClearAllVisiblePoints()
	assert.Empty(t, h.Points(core.Favorites))
	assert.True(t, h.IsRouteCalculated())

	h.RecalculatePoints(core.Favorites)
	assert.Len(t, h.Points(core.Favorites), 2)
}

func TestHelper_RecalculateSeedsCursor(t *testing.T) {
	points := staticPoints{
		pointNear("behind", core.KindFavorite, 20, 5),
		pointNear("ahead", core.KindFavorite, 80, 5),
	}
	h, _ := newHelper(t, Dependencies{Favorites: points}, DefaultSettings())
	r := newRoute("r", 300, route.Options{})
	h.SetNewRoute(r)
	r.SetCurrentRouteIndex(50)

	h.RecalculatePoints(core.Favorites)
	var remaining []string
	for _, rp := range h.AllPoints() {
		remaining = append(remaining, rp.Point.ID)
	}
	assert.Equal(t, []string{"ahead"}, remaining)
	assert.Equal(t, 1, h.Status().Remaining[core.Favorites.String()])
}

func TestHelper_RebuildKeepsProgress(t *testing.T) {
	points := staticPoints{
		pointNear("behind", core.KindFavorite, 20, 5),
		pointNear("ahead", core.KindFavorite, 80, 5),
	}

	t.Run("apply settings", func(t *testing.T) {
		h, _ := newHelper(t, Dependencies{Favorites: points}, DefaultSettings())
		r := newRoute("r", 300, route.Options{})
		h.SetNewRoute(r)
		advance(h, r, 50, 0)
		require.Equal(t, []string{"ahead"}, ids(h.AllPoints()))

		h.ApplySettings(h.Settings())
		assert.Equal(t, []string{"ahead"}, ids(h.AllPoints()))
		assert.Equal(t, 1, h.Status().Remaining[core.Favorites.String()])
	})

	t.Run("route already under way", func(t *testing.T) {
		h, _ := newHelper(t, Dependencies{Favorites: points}, DefaultSettings())
		r := newRoute("r", 300, route.Options{})
		r.SetCurrentRouteIndex(50)

		h.SetNewRoute(r)
		assert.Equal(t, []string{"ahead"}, ids(h.AllPoints()))
	})
}

func TestHelper_OffRouteAlarmIsIgnored(t *testing.T) {
	h, _ := newHelper(t, Dependencies{}, DefaultSettings())
	r := newRoute("r", 300, route.Options{Alarms: []core.Point{alarmAt(core.AlarmStop, 5000)}})
	h.SetNewRoute(r)
	advance(h, r, 10, 0)

	assert.Nil(t, h.MostImportantAlarm(core.Metric, true))
}

func TestHelper_EnableCategory(t *testing.T) {
	searcher := &fakeSearcher{matches: []core.AmenityMatch{
		{Point: core.Point{ID: "fuel", Kind: core.KindAmenity}, PathPoint: vertex(40), Deviation: 8},
	}}
	h, _ := newHelper(t, Dependencies{POI: searcher}, DefaultSettings())
	h.SetNewRoute(newRoute("r", 300, route.Options{}))
	assert.False(t, h.IsCategoryEnabled(core.POI))
	assert.Empty(t, h.Points(core.POI))
	assert.Zero(t, searcher.calls)

	h.EnableCategory(core.POI, true)
	assert.True(t, h.IsCategoryEnabled(core.POI))
	assert.Equal(t, []string{"fuel"}, ids(h.Points(core.POI)))

	h.EnableCategory(core.POI, false)
	assert.Empty(t, h.Points(core.POI))

	assert.False(t, h.IsCategoryConfigurable(core.Targets))
	assert.True(t, h.IsCategoryEnabled(core.Targets))
	h.EnableCategory(core.Targets, false)
	assert.True(t, h.IsCategoryEnabled(core.Targets))
}

func TestHelper_EnableAlarmsLeavesCameras(t *testing.T) {
	s := DefaultSettings()
	s.ShowTrafficWarnings, s.AnnounceTrafficWarnings = false, false
	h, _ := newHelper(t, Dependencies{}, s)
	assert.False(t, h.IsCategoryEnabled(core.Alarms))

	h.EnableCategory(core.Alarms, true)
	assert.True(t, h.IsCategoryEnabled(core.Alarms))
	assert.False(t, h.Settings().ShowCameras)
	assert.False(t, h.Settings().AnnounceCameras)
}

func TestHelper_SetSearchDeviationRadius(t *testing.T) {
	points := staticPoints{
		pointNear("near", core.KindFavorite, 30, 20),
		pointNear("wide", core.KindFavorite, 40, 300),
	}
	h, _ := newHelper(t, Dependencies{Favorites: points}, DefaultSettings())
	h.SetNewRoute(newRoute("r", 300, route.Options{}))
	assert.Equal(t, []string{"near", "wide"}, ids(h.Points(core.Favorites)))

	assert.Equal(t, 250, h.SetSearchDeviationRadius(core.Favorites, 260))
	assert.Equal(t, 250, h.SearchDeviationRadius(core.Waypoints))
	assert.Equal(t, []string{"near"}, ids(h.Points(core.Favorites)))

	assert.Equal(t, 100, h.SetSearchDeviationRadius(core.POI, 120))
	assert.Equal(t, 100, h.SearchDeviationRadius(core.POI))
	assert.Equal(t, 250, h.SearchDeviationRadius(core.Favorites))
}

func TestHelper_ApplySettings(t *testing.T) {
	h, _ := newHelper(t, Dependencies{Favorites: favorites(2, 30, 5)}, DefaultSettings())
	h.SetNewRoute(newRoute("r", 300, route.Options{}))
	require.Len(t, h.Points(core.Favorites), 2)

	s := h.Settings()
	s.ShowFavorites, s.AnnounceFavorites = false, false
	h.ApplySettings(s)
	assert.Empty(t, h.Points(core.Favorites))
	assert.False(t, h.IsCategoryEnabled(core.Favorites))
}

func TestHelper_Targets(t *testing.T) {
	targets := staticPoints{
		{ID: "stop-1", Kind: core.KindTarget, Target: &core.TargetInfo{Intermediate: true, Index: 0}},
		{ID: "stop-2", Kind: core.KindTarget, Target: &core.TargetInfo{Intermediate: true, Index: 1}},
		{ID: "dest", Kind: core.KindTarget, Target: &core.TargetInfo{}},
	}
	remover := &fakeRemover{}
	h, _ := newHelper(t, Dependencies{Targets: targets, TargetRemover: remover}, DefaultSettings())
	h.SetNewRoute(newRoute("r", 300, route.Options{Intermediates: []int{50, 120}}))

	list := h.Points(core.Targets)
	require.Equal(t, []string{"stop-1", "stop-2", "dest"}, ids(list))
	assert.Equal(t, 299, list[2].RouteIndex)

	h.RemoveVisiblePoints(list[1])
	assert.Equal(t, []bool{true, false, true}, remover.keep)

	h.RemoveVisiblePoints(list[0], list[2])
	assert.Equal(t, []bool{false, true, false}, remover.keep)
}

func TestHelper_RemoveVisiblePoints(t *testing.T) {
	h, _ := newHelper(t, Dependencies{Favorites: favorites(3, 30, 5)}, DefaultSettings())
	h.SetNewRoute(newRoute("r", 300, route.Options{}))
	list := h.Points(core.Favorites)
	require.Len(t, list, 3)

	h.RemoveVisiblePoints(list[1])
	assert.Equal(t, []string{"fav-0", "fav-2"}, ids(h.Points(core.Favorites)))

	// Removing an unknown point changes nothing.
	h.RemoveVisiblePoints(list[1])
	assert.Len(t, h.Points(core.Favorites), 2)
}

func TestHelper_MostImportantUpcomingPoint(t *testing.T) {
	h, _ := newHelper(t, Dependencies{
		Waypoints: staticPoints{pointNear("wp", core.KindWaypoint, 40, 5)},
		Favorites: staticPoints{pointNear("fav", core.KindFavorite, 30, 5)},
		POI: &fakeSearcher{matches: []core.AmenityMatch{
			{Point: core.Point{ID: "far-poi", Kind: core.KindAmenity}, PathPoint: vertex(120)},
		}},
	}, DefaultSettings())
	h.EnableCategory(core.POI, true)
	r := newRoute("r", 300, route.Options{})
	h.SetNewRoute(r)

	rp, ok := h.MostImportantUpcomingPoint()
	require.True(t, ok)
	assert.Equal(t, "fav", rp.Point.ID)
	assert.InDelta(t, 322, h.RouteDistance(rp), 2)

	advance(h, r, 35, 0)
	rp, ok = h.MostImportantUpcomingPoint()
	require.True(t, ok)
	assert.Equal(t, "wp", rp.Point.ID)

	advance(h, r, 45, 0)
	_, ok = h.MostImportantUpcomingPoint()
	assert.False(t, ok, "remaining POI is beyond the long radius")
}

func TestHelper_UpcomingPointIncludesDisplayOnly(t *testing.T) {
	s := DefaultSettings()
	s.AnnounceFavorites = false
	h, sink := newHelper(t, Dependencies{Favorites: favorites(2, 20, 5)}, s)
	r := newRoute("r", 300, route.Options{})
	h.SetNewRoute(r)

	rp, ok := h.MostImportantUpcomingPoint()
	require.True(t, ok, "silent points still show as upcoming")
	assert.Equal(t, core.Favorites, rp.Category)
	assert.Equal(t, h.Points(core.Favorites)[0].Point.ID, rp.Point.ID, "only the first remaining point counts")
	assert.Empty(t, sink.batches)
}

func TestHelper_MostImportantAlarmCameraFilter(t *testing.T) {
	s := DefaultSettings()
	s.ShowCameras = true
	h, _ := newHelper(t, Dependencies{}, s)
	h.SetNewRoute(newRoute("r", 300, route.Options{Alarms: []core.Point{alarmAt(core.AlarmSpeedCamera, 10)}}))
	h.LocationChanged(fixAt(1, 10))

	assert.Nil(t, h.MostImportantAlarm(core.Metric, false))

	a := h.MostImportantAlarm(core.Metric, true)
	require.NotNil(t, a)
	assert.Equal(t, core.AlarmSpeedCamera, a.Type)
	assert.Equal(t, 10, a.RouteIndex)
	assert.InDelta(t, 100, a.Distance, 1)
	assert.Equal(t, core.AlarmSpeedCamera.Priority(), a.Priority)
}

func TestHelper_MostImportantAlarmSpeedWins(t *testing.T) {
	s := DefaultSettings()
	s.SpeedLimitExceed = 7.2
	speeds := make([]float64, 300)
	for i := range speeds {
		speeds[i] = 20
	}
	h, sink := newHelper(t, Dependencies{}, s)
	h.SetNewRoute(newRoute("r", 300, route.Options{
		MaxSpeeds: speeds,
		Alarms:    []core.Point{alarmAt(core.AlarmStop, 3)},
	}))

	h.LocationChanged(fixAt(1, 30))
	a := h.MostImportantAlarm(core.Metric, false)
	require.NotNil(t, a)
	assert.Equal(t, core.AlarmSpeedLimit, a.Type)
	assert.Equal(t, 72, a.Value)
	assert.Equal(t, []int{72}, sink.speedAlarms)

	a = h.MostImportantAlarm(core.Imperial, false)
	require.NotNil(t, a)
	assert.Equal(t, 45, a.Value)

	h.LocationChanged(fixAt(1, 18))
	a = h.MostImportantAlarm(core.Metric, false)
	require.NotNil(t, a)
	assert.Equal(t, core.AlarmStop, a.Type)
}

func TestHelper_MostImportantAlarmTieKeepsRouteOrder(t *testing.T) {
	h, _ := newHelper(t, Dependencies{}, DefaultSettings())
	h.SetNewRoute(newRoute("r", 300, route.Options{Alarms: []core.Point{
		alarmAt(core.AlarmStop, 3),
		alarmAt(core.AlarmStop, 4),
		alarmAt(core.AlarmSpeedLimit, 200),
	}}))
	h.LocationChanged(fixAt(1, 0))

	a := h.MostImportantAlarm(core.Metric, true)
	require.NotNil(t, a)
	assert.Equal(t, 3, a.RouteIndex)
}

func TestHelper_SegmentAlarm(t *testing.T) {
	clock := newClock()
	h, sink := newHelper(t, Dependencies{Now: clock.Now}, DefaultSettings())
	seg := core.RoadSegment{Tags: []string{"highway=primary", "highway=speed_camera", "highway=stop"}}
	fix := fixAt(1, 10)

	a := h.SegmentAlarm(seg, fix, core.Metric, false)
	require.NotNil(t, a)
	assert.Equal(t, core.AlarmStop, a.Type)
	assert.Equal(t, -1, a.RouteIndex)
	assert.Equal(t, []core.AlarmType{core.AlarmStop}, sink.alarms)

	clock.Advance(10 * time.Second)
	a = h.SegmentAlarm(seg, fix, core.Metric, false)
	require.NotNil(t, a, "still reported during the cooldown")
	assert.Len(t, sink.alarms, 1)

	clock.Advance(41 * time.Second)
	h.SegmentAlarm(seg, fix, core.Metric, false)
	assert.Len(t, sink.alarms, 2)

	a = h.SegmentAlarm(seg, fix, core.Metric, true)
	require.NotNil(t, a)
	assert.Equal(t, core.AlarmSpeedCamera, a.Type)
	assert.Len(t, sink.alarms, 3, "cooldown is tracked per type")

	assert.Nil(t, h.SegmentAlarm(core.RoadSegment{Tags: []string{"highway=primary"}}, fix, core.Metric, true))
}

func TestHelper_SegmentSpeedAlarm(t *testing.T) {
	h, sink := newHelper(t, Dependencies{}, DefaultSettings())
	seg := core.RoadSegment{MaxSpeed: 10, Tags: []string{"highway=stop"}}

	a := h.SegmentAlarm(seg, fixAt(1, 20), core.Metric, false)
	require.NotNil(t, a)
	assert.Equal(t, core.AlarmSpeedLimit, a.Type)
	assert.Equal(t, 36, a.Value)
	assert.Equal(t, []int{36}, sink.speedAlarms)
	assert.Empty(t, sink.alarms)
}

func TestHelper_PassUsesOneSnapshot(t *testing.T) {
	h, _ := newHelper(t, Dependencies{}, DefaultSettings())
	a := newRoute("a", 300, route.Options{LocationPoints: []core.Point{pointNear("a-1", core.KindWaypoint, 20, 5)}})
	b := newRoute("b", 300, route.Options{LocationPoints: []core.Point{pointNear("b-1", core.KindWaypoint, 20, 5)}})
	h.SetNewRoute(a)

	snap := h.snap.Load()
	h.SetNewRoute(b)
	res := snap.evaluate(fixAt(10, 0), plainComparator{})
	assert.Equal(t, []string{"a-1"}, ids(res.approach[core.Waypoints]))
	assert.Equal(t, NotAnnounced, h.State(h.Points(core.Waypoints)[0]))
}

func TestHelper_ConcurrentRouteSwaps(t *testing.T) {
	h, sink := newHelper(t, Dependencies{}, DefaultSettings())
	routeFor := func(id string) *route.Route {
		var pts []core.Point
		for i := 5; i < 40; i += 5 {
			pts = append(pts, pointNear(id+"-"+string(rune('a'+i)), core.KindWaypoint, i, 5))
		}
		return newRoute(id, 300, route.Options{LocationPoints: pts})
	}
	h.SetNewRoute(routeFor("a"))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			h.LocationChanged(fixAt(i%40, 0))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if i%2 == 0 {
				h.SetNewRoute(routeFor("b"))
			} else {
				h.SetNewRoute(routeFor("a"))
			}
		}
	}()
	wg.Wait()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, b := range sink.batches {
		assert.LessOrEqual(t, len(b.points), ApproachLimit)
		prefix := strings.SplitN(b.points[0].Point.ID, "-", 2)[0]
		for _, p := range b.points {
			assert.True(t, strings.HasPrefix(p.Point.ID, prefix+"-"), "batch mixes routes: %v", ids(b.points))
		}
	}
}

func TestHelper_Status(t *testing.T) {
	h, _ := newHelper(t, Dependencies{Favorites: favorites(2, 30, 5)}, DefaultSettings())
	assert.False(t, h.Status().RouteSet)

	r := newRoute("r", 300, route.Options{})
	h.SetNewRoute(r)
	advance(h, r, 10, 0)

	st := h.Status()
	assert.True(t, st.RouteSet)
	assert.Equal(t, 10, st.RouteIndex)
	assert.Equal(t, 2, st.Remaining[core.Favorites.String()])
	assert.Equal(t, 2, st.TrackedState)
}
