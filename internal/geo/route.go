package geo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmcloughlin/geohash"
)

// ErrUnresolvedCity is returned when a city is not in the static table.
var ErrUnresolvedCity = errors.New("unresolved city")

// Map styling, kept close to what the offer page has always drawn.
const (
	RouteZoom      = 6
	OverviewZoom   = 5
	StartColor     = "blue"
	EndColor       = "red"
	LineColor      = "green"
	LineWeight     = 5
	geohashPrecise = 6
)

// OverviewCenter is the center of the default national map.
var OverviewCenter = Coordinate{Lat: 20.5937, Lng: 78.9629}

// Marker is a labelled point on a map.
type Marker struct {
	Coordinate
	Label   string `json:"label"`
	Color   string `json:"color"`
	Geohash string `json:"geohash"`
}

// Line is a straight polyline between points.
type Line struct {
	Points []Coordinate `json:"points"`
	Color  string       `json:"color"`
	Weight int          `json:"weight"`
}

// Route is everything needed to draw a map.
type Route struct {
	Center     Coordinate `json:"center"`
	Zoom       int        `json:"zoom"`
	Markers    []Marker   `json:"markers"`
	Lines      []Line     `json:"lines"`
	DistanceKm float64    `json:"distance_km,omitempty"`
}

// Overview is the map shown before any route is known.
func Overview() Route {
	return Route{
		Center:  OverviewCenter,
		Zoom:    OverviewZoom,
		Markers: []Marker{},
		Lines:   []Line{},
	}
}

// NewRoute resolves both cities and lays out start and end markers joined by
// a straight line, centered on their midpoint. If either city is unknown it
// returns an error wrapping ErrUnresolvedCity that names the missing cities.
func NewRoute(origin, destination string) (Route, error) {
	from, okFrom := Resolve(origin)
	to, okTo := Resolve(destination)

	var missing []string
	if !okFrom {
		missing = append(missing, fmt.Sprintf("%q", origin))
	}
	if !okTo {
		missing = append(missing, fmt.Sprintf("%q", destination))
	}
	if len(missing) > 0 {
		return Route{}, fmt.Errorf("%w: %s", ErrUnresolvedCity, strings.Join(missing, ", "))
	}

	return Route{
		Center: Coordinate{Lat: (from.Lat + to.Lat) / 2, Lng: (from.Lng + to.Lng) / 2},
		Zoom:   RouteZoom,
		Markers: []Marker{
			newMarker(from, origin+" (Start)", StartColor),
			newMarker(to, destination+" (Destination)", EndColor),
		},
		Lines: []Line{{
			Points: []Coordinate{from, to},
			Color:  LineColor,
			Weight: LineWeight,
		}},
		DistanceKm: DistanceKm(from, to),
	}, nil
}

func newMarker(c Coordinate, label, color string) Marker {
	return Marker{
		Coordinate: c,
		Label:      label,
		Color:      color,
		Geohash:    geohash.EncodeWithPrecision(c.Lat, c.Lng, geohashPrecise),
	}
}
