package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/middleware"
	"carpool/internal/service"
)

// RideHandler handles HTTP requests for rides and bookings.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// CreateRideRequest is the HTTP request body for offering a ride.
type CreateRideRequest struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Date        string  `json:"date"` // YYYY-MM-DD
	Time        string  `json:"time"` // HH:MM
	Seats       int     `json:"seats"`
	Price       float64 `json:"price"`
	Vehicle     string  `json:"vehicle,omitempty"`
}

// ReviewRideRequest is the HTTP request body for reviewing a ride.
type ReviewRideRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// RideResponse is the HTTP response for a ride.
type RideResponse struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id,omitempty"`
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	SeatsAvailable int     `json:"seats_available"`
	Price          float64 `json:"price"`
	Vehicle        string  `json:"vehicle,omitempty"`
	Status         string  `json:"status"`
	Review         string  `json:"review,omitempty"`
}

// BookingResponse is the HTTP response for a booking.
type BookingResponse struct {
	ID          string  `json:"id"`
	RideID      string  `json:"ride_id"`
	UserID      string  `json:"user_id,omitempty"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Price       float64 `json:"price"`
	BookedAt    string  `json:"booked_at"`
	Reviews     string  `json:"reviews,omitempty"`
}

// RideListResponse is the HTTP response for a list of rides.
type RideListResponse struct {
	Rides    []RideResponse `json:"rides"`
	Message  string         `json:"message,omitempty"`
	Warnings []Warning      `json:"warnings,omitempty"`
}

// BookingListResponse is the HTTP response for a list of bookings.
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Warnings []Warning         `json:"warnings,omitempty"`
}

// BookRideResponse is the HTTP response for booking a ride.
type BookRideResponse struct {
	Message string          `json:"message"`
	Ride    RideResponse    `json:"ride"`
	Booking BookingResponse `json:"booking"`
}

// ReviewRideResponse is the HTTP response for reviewing a ride.
type ReviewRideResponse struct {
	Message         string       `json:"message"`
	Ride            RideResponse `json:"ride"`
	BookingsUpdated int          `json:"bookings_updated"`
}

func toRideResponse(r domain.Ride) RideResponse {
	return RideResponse{
		ID:             r.ID,
		UserID:         r.UserID,
		Origin:         r.Origin,
		Destination:    r.Destination,
		Date:           r.Date,
		Time:           r.Time,
		SeatsAvailable: r.SeatsAvailable,
		Price:          r.Price,
		Vehicle:        r.Vehicle,
		Status:         string(r.Status),
		Review:         r.Review,
	}
}

func toRideResponses(rides []domain.Ride) []RideResponse {
	out := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		out = append(out, toRideResponse(r))
	}
	return out
}

func toBookingResponse(b domain.Booking) BookingResponse {
	return BookingResponse{
		ID:          b.ID,
		RideID:      b.RideID,
		UserID:      b.UserID,
		Origin:      b.Origin,
		Destination: b.Destination,
		Date:        b.Date,
		Time:        b.Time,
		Price:       b.Price,
		BookedAt:    b.BookedAt.Format(time.RFC3339),
		Reviews:     b.Reviews,
	}
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.OfferRide(c.Request.Context(), service.OfferRideRequest{
		UserID:      middleware.UserID(c),
		Origin:      req.Origin,
		Destination: req.Destination,
		Date:        req.Date,
		Time:        req.Time,
		Seats:       req.Seats,
		Price:       req.Price,
		Vehicle:     req.Vehicle,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Location", "/v1/rides/"+ride.ID)
	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// GetAll handles GET /v1/rides
func (h *RideHandler) GetAll(c *gin.Context) {
	list, err := h.rideService.ListRides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, RideListResponse{
		Rides:    toRideResponses(list.Rides),
		Warnings: skippedWarnings(list.Skipped),
	})
}

// Search handles GET /v1/rides/search?origin=&destination=&date=&contains=
func (h *RideHandler) Search(c *gin.Context) {
	contains, _ := strconv.ParseBool(c.Query("contains"))

	list, err := h.rideService.SearchRides(c.Request.Context(), service.SearchRidesRequest{
		Origin:      c.Query("origin"),
		Destination: c.Query("destination"),
		Date:        c.Query("date"),
		Contains:    contains,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := RideListResponse{
		Rides:    toRideResponses(list.Rides),
		Warnings: skippedWarnings(list.Skipped),
	}
	if len(list.Rides) == 0 {
		response.Message = "No rides available for this route."
	}
	c.JSON(http.StatusOK, response)
}

// BookRide handles POST /v1/rides/:id/book
func (h *RideHandler) BookRide(c *gin.Context) {
	result, err := h.rideService.BookRide(c.Request.Context(), service.BookRideRequest{
		RideID: c.Param("id"),
		UserID: middleware.UserID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BookRideResponse{
		Message: "Ride " + result.Ride.ID + " booked successfully!",
		Ride:    toRideResponse(result.Ride),
		Booking: toBookingResponse(result.Booking),
	})
}

// ReviewRide handles POST /v1/rides/:id/reviews
func (h *RideHandler) ReviewRide(c *gin.Context) {
	var req ReviewRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.rideService.ReviewRide(c.Request.Context(), service.ReviewRideRequest{
		RideID: c.Param("id"),
		Rating: req.Rating,
		Text:   req.Review,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ReviewRideResponse{
		Message:         "Review Submitted!",
		Ride:            toRideResponse(result.Ride),
		BookingsUpdated: result.BookingsUpdated,
	})
}

// ListBookings handles GET /v1/bookings
func (h *RideHandler) ListBookings(c *gin.Context) {
	list, err := h.rideService.ListBookings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	bookings := make([]BookingResponse, 0, len(list.Bookings))
	for _, b := range list.Bookings {
		bookings = append(bookings, toBookingResponse(b))
	}
	c.JSON(http.StatusOK, BookingListResponse{
		Bookings: bookings,
		Warnings: skippedWarnings(list.Skipped),
	})
}
