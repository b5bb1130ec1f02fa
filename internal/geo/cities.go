package geo

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"carpool/internal/domain"
)

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// City is a named entry of the static coordinate table.
type City struct {
	Name string `json:"name"`
	Coordinate
}

// cityCoordinates is the lookup table used for maps. It is not a geocoder.
var cityCoordinates = map[string]Coordinate{
	"hyderabad": {Lat: 17.3850, Lng: 78.4867},
	"mumbai":    {Lat: 19.0760, Lng: 72.8777},
	"delhi":     {Lat: 28.7041, Lng: 77.1025},
	"bangalore": {Lat: 12.9716, Lng: 77.5946},
	"chennai":   {Lat: 13.0827, Lng: 80.2707},
	"kolkata":   {Lat: 22.5726, Lng: 88.3639},
	"pune":      {Lat: 18.5204, Lng: 73.8567},
}

// Resolve looks a city up in the static table, ignoring case and extra spaces.
func Resolve(city string) (Coordinate, bool) {
	c, ok := cityCoordinates[domain.NormalizeCity(city)]
	return c, ok
}

// Cities returns the static table sorted by name.
func Cities() []City {
	out := make([]City, 0, len(cityCoordinates))
	for name, c := range cityCoordinates {
		out = append(out, City{Name: name, Coordinate: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b Coordinate) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// cityPoint adapts a City to rtreego.Spatial.
type cityPoint struct {
	city City
}

func (p cityPoint) Bounds() rtreego.Rect {
	return rtreego.Point{p.city.Lat, p.city.Lng}.ToRect(0.0001)
}

// Index answers nearest-city queries over the static table.
type Index struct {
	tree *rtreego.Rtree
}

// NewIndex builds an R-tree over every city in the table.
func NewIndex() *Index {
	objs := make([]rtreego.Spatial, 0, len(cityCoordinates))
	for _, c := range Cities() {
		objs = append(objs, cityPoint{city: c})
	}
	return &Index{tree: rtreego.NewTree(2, 2, 5, objs...)}
}

// Nearest returns the table city closest to c.
func (ix *Index) Nearest(c Coordinate) (City, bool) {
	obj := ix.tree.NearestNeighbor(rtreego.Point{c.Lat, c.Lng})
	if obj == nil {
		return City{}, false
	}
	return obj.(cityPoint).city, true
}
