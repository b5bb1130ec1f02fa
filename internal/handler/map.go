package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"carpool/internal/geo"
	"carpool/internal/service"
)

// MapHandler handles HTTP requests for route maps and the city table.
type MapHandler struct {
	mapService *service.MapService
}

// NewMapHandler creates a new MapHandler.
func NewMapHandler(mapService *service.MapService) *MapHandler {
	return &MapHandler{mapService: mapService}
}

// NearestCityResponse is the HTTP response for a nearest city lookup.
type NearestCityResponse struct {
	City       geo.City `json:"city"`
	DistanceKm float64  `json:"distance_km"`
}

// Route handles GET /v1/map?origin=&destination=
func (h *MapHandler) Route(c *gin.Context) {
	route, err := h.mapService.Route(c.Query("origin"), c.Query("destination"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, route)
}

// Cities handles GET /v1/cities
func (h *MapHandler) Cities(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.mapService.Cities())
}

// Nearest handles GET /v1/cities/nearest?lat=&lng=
func (h *MapHandler) Nearest(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lng must be numbers"})
		return
	}

	city, km, err := h.mapService.NearestCity(lat, lng)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, NearestCityResponse{City: city, DistanceKm: km})
}
