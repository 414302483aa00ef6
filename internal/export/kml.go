// Package export renders the tracked route points as KML for map display.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/routecue/waypointd/internal/waypoint"
	"github.com/routecue/waypointd/pkg/core"
	kml "github.com/twpayne/go-kml"
)

// Document describes what goes into a KML export.
type Document struct {
	Name   string
	Route  []core.LatLon
	Points []waypoint.RoutePoint
}

// WriteKML writes doc as an indented KML document with one folder per
// category that has points.
func WriteKML(w io.Writer, doc Document) error {
	children := []kml.Element{kml.Name(doc.Name)}
	if len(doc.Route) > 1 {
		coords := make([]kml.Coordinate, len(doc.Route))
		for i, l := range doc.Route {
			coords[i] = kml.Coordinate{Lon: l.Lon, Lat: l.Lat}
		}
		children = append(children, kml.Placemark(
			kml.Name("route"),
			kml.LineString(kml.Coordinates(coords...)),
		))
	}

	var byCategory [core.CategoryCount][]kml.Element
	for _, rp := range doc.Points {
		if !rp.Category.Valid() {
			continue
		}
		byCategory[rp.Category] = append(byCategory[rp.Category], placemark(rp))
	}
	for _, c := range core.Categories() {
		if len(byCategory[c]) == 0 {
			continue
		}
		folder := append([]kml.Element{kml.Name(c.String())}, byCategory[c]...)
		children = append(children, kml.Folder(folder...))
	}

	if err := kml.KML(kml.Document(children...)).WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("error writing kml: %w", err)
	}
	return nil
}

func placemark(rp waypoint.RoutePoint) kml.Element {
	desc := "route index " + strconv.Itoa(rp.RouteIndex)
	if rp.Deviation > 0 {
		desc += fmt.Sprintf(", %.0f m off route", rp.Deviation)
	}
	if rp.Point.Description != "" {
		desc = rp.Point.Description + "; " + desc
	}
	return kml.Placemark(
		kml.Name(rp.Point.Label()),
		kml.Description(desc),
		kml.Point(kml.Coordinates(kml.Coordinate{Lon: rp.Point.Location.Lon, Lat: rp.Point.Location.Lat})),
	)
}
