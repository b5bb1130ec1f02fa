package tests

import (
	"errors"
	"math"
	"testing"

	"carpool/internal/geo"
	"carpool/internal/service"
)

// ──────────────────────────────────────────────
// 4. MAPS
// ──────────────────────────────────────────────

func TestMapRoute_KnownCities(t *testing.T) {
	t.Parallel()

	maps := service.NewMapService()
	route, err := maps.Route("Delhi", "Kolkata")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if route.Zoom != geo.RouteZoom || len(route.Markers) != 2 || len(route.Lines) != 1 {
		t.Fatalf("unexpected route %+v", route)
	}
	if route.Markers[0].Label != "Delhi (Start)" || route.Markers[1].Label != "Kolkata (Destination)" {
		t.Errorf("unexpected labels %q, %q", route.Markers[0].Label, route.Markers[1].Label)
	}
}

func TestMapRoute_NoCitiesGivesOverview(t *testing.T) {
	t.Parallel()

	route, err := service.NewMapService().Route("", "  ")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if route.Center != geo.OverviewCenter || route.Zoom != geo.OverviewZoom {
		t.Errorf("expected overview map, got %+v", route)
	}
}

func TestMapRoute_UnknownCity(t *testing.T) {
	t.Parallel()

	_, err := service.NewMapService().Route("Atlantis", "Pune")
	if !errors.Is(err, geo.ErrUnresolvedCity) {
		t.Fatalf("expected %v, got %v", geo.ErrUnresolvedCity, err)
	}
}

func TestNearestCity(t *testing.T) {
	t.Parallel()

	maps := service.NewMapService()

	city, dist, err := maps.NearestCity(17.44, 78.35) // Gachibowli
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if city.Name != "hyderabad" || dist <= 0 || dist > 30 {
		t.Errorf("expected hyderabad within 30km, got %s at %.1fkm", city.Name, dist)
	}

	for _, p := range [][2]float64{{91, 0}, {0, 181}, {math.NaN(), 0}} {
		if _, _, err := maps.NearestCity(p[0], p[1]); !errors.Is(err, service.ErrInvalidLocation) {
			t.Errorf("NearestCity(%v,%v): expected %v, got %v", p[0], p[1], service.ErrInvalidLocation, err)
		}
	}
}
