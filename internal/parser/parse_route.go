package parser

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/routecue/waypointd/internal/geo"
	"github.com/routecue/waypointd/internal/util"
	"github.com/routecue/waypointd/pkg/core"
)

// ParseRoute parses a calculated route: label, geometry and optional
// calculation data. The geometry is either a Google encoded polyline or a
// JSON array of [lon, lat] pairs.
func (p *Parser) ParseRoute(data []string) (ParsedRoute, error) {
	var parsed ParsedRoute

	util.CleanArgs(data)
	if err := requireArgs(data, 2); err != nil {
		return parsed, err
	}

	parsed.Label = data[0]

	var err error
	if strings.HasPrefix(data[1], "[") {
		parsed.Locations, err = geo.ParsePolyline([]byte(data[1]))
	} else {
		parsed.Locations, err = geo.DecodePolyline(data[1])
	}
	if err != nil {
		return parsed, fmt.Errorf("error parsing route geometry: %w", err)
	}

	raw := util.Arg(data, 2)
	if raw == "" {
		return parsed, nil
	}
	var opts routeOptions
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return parsed, fmt.Errorf("error unmarshalling route options: %w", err)
	}

	n := len(parsed.Locations)
	if len(opts.MaxSpeeds) > 0 {
		parsed.Options.MaxSpeeds = opts.MaxSpeeds
	}

	for i, idx := range opts.Intermediates {
		if idx < 0 || idx >= n {
			return parsed, fmt.Errorf("intermediate %d: route index %d out of range", i, idx)
		}
	}
	if !slices.IsSorted(opts.Intermediates) {
		return parsed, fmt.Errorf("intermediates must be in route order")
	}
	parsed.Options.Intermediates = opts.Intermediates
	parsed.IntermediateNames = opts.IntermediateNames
	parsed.Destination = opts.Destination

	for _, a := range opts.Alarms {
		alarm, ok := p.parseAlarm(a, parsed.Locations)
		if ok {
			parsed.Options.Alarms = append(parsed.Options.Alarms, alarm)
		}
	}

	for _, lp := range opts.LocationPoints {
		loc := core.LatLon{Lat: lp.Lat, Lon: lp.Lon}
		if !geo.Valid(loc) {
			p.logger.Warn("Skipping route location point", "name", lp.Name, "error", geo.ErrInvalidCoordinates)
			continue
		}
		parsed.Options.LocationPoints = append(parsed.Options.LocationPoints, core.Point{
			ID:          lp.ID,
			Kind:        core.KindWaypoint,
			Location:    loc,
			Name:        lp.Name,
			Description: lp.Description,
		})
	}

	p.logger.Debug("Parsed route",
		"label", parsed.Label,
		"points", n,
		"intermediates", len(parsed.Options.Intermediates),
		"alarms", len(parsed.Options.Alarms))

	return parsed, nil
}

// parseAlarm resolves an alarm option by type name or road tag. Alarms
// without an explicit position sit on their route vertex.
func (p *Parser) parseAlarm(a alarmOption, locations []core.LatLon) (core.Point, bool) {
	var (
		typ core.AlarmType
		ok  bool
	)
	switch {
	case a.Type != "":
		typ, ok = core.ParseAlarmType(a.Type)
	case a.Tag != "":
		typ, ok = core.AlarmTypeFromTag(a.Tag)
	}
	if !ok {
		p.logger.Warn("Skipping unknown alarm", "type", a.Type, "tag", a.Tag)
		return core.Point{}, false
	}
	if a.RouteIndex < 0 || a.RouteIndex >= len(locations) {
		p.logger.Warn("Skipping alarm outside route", "type", typ.String(), "routeIndex", a.RouteIndex)
		return core.Point{}, false
	}

	loc := locations[a.RouteIndex]
	if a.Lat != nil && a.Lon != nil {
		loc = core.LatLon{Lat: *a.Lat, Lon: *a.Lon}
		if !geo.Valid(loc) {
			p.logger.Warn("Skipping alarm", "type", typ.String(), "error", geo.ErrInvalidCoordinates)
			return core.Point{}, false
		}
	}
	return core.Point{
		Kind:     core.KindAlarm,
		Location: loc,
		Alarm: &core.AlarmInfo{
			Type:       typ,
			RouteIndex: a.RouteIndex,
			Value:      a.Value,
		},
	}, true
}

// ParseSegment parses a road segment JSON object followed by the fix fields.
func (p *Parser) ParseSegment(data []string) (ParsedSegment, error) {
	var parsed ParsedSegment

	util.CleanArgs(data)
	if err := requireArgs(data, 3); err != nil {
		return parsed, err
	}
	if err := json.Unmarshal([]byte(data[0]), &parsed.Segment); err != nil {
		return parsed, fmt.Errorf("error unmarshalling road segment: %w", err)
	}
	if parsed.Segment.MaxSpeed < 0 {
		parsed.Segment.MaxSpeed = 0
	}
	fix, err := p.parseFix(data[1:])
	if err != nil {
		return parsed, err
	}
	parsed.Fix = fix
	return parsed, nil
}
