package service

import (
	"strings"

	"carpool/internal/geo"
)

// MapService lays out route maps over the static city table.
type MapService struct {
	index *geo.Index
}

// NewMapService creates a new MapService.
func NewMapService() *MapService {
	return &MapService{index: geo.NewIndex()}
}

// Route returns the map for a trip. With no cities it returns the national
// overview; with an unknown city it returns an error wrapping
// geo.ErrUnresolvedCity.
func (s *MapService) Route(origin, destination string) (geo.Route, error) {
	if strings.TrimSpace(origin) == "" && strings.TrimSpace(destination) == "" {
		return geo.Overview(), nil
	}
	return geo.NewRoute(origin, destination)
}

// Cities lists the cities maps can be drawn for.
func (s *MapService) Cities() []geo.City {
	return geo.Cities()
}

// NearestCity returns the known city closest to a point and its distance.
func (s *MapService) NearestCity(lat, lng float64) (geo.City, float64, error) {
	if !isValidLatitude(lat) || !isValidLongitude(lng) {
		return geo.City{}, 0, ErrInvalidLocation
	}
	p := geo.Coordinate{Lat: lat, Lng: lng}
	city, ok := s.index.Nearest(p)
	if !ok {
		return geo.City{}, 0, ErrInvalidLocation
	}
	return city, geo.DistanceKm(p, city.Coordinate), nil
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
