package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/geo"
	"carpool/internal/repository"
	"carpool/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrMissingRoute),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidTime),
		errors.Is(err, service.ErrInvalidSeats),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest

	// Unresolved cities make a map impossible to draw, and a table whose
	// header lacks required columns cannot be read until it is fixed.
	case errors.Is(err, geo.ErrUnresolvedCity),
		errors.Is(err, repository.ErrBadHeader):
		return http.StatusUnprocessableEntity

	// Conflict errors
	case errors.Is(err, service.ErrRideAlreadyBooked),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict

	// Authentication errors
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidSession):
		return http.StatusUnauthorized

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// Warning is a non-fatal problem reported next to a result.
type Warning struct {
	Message string `json:"message"`
	Lines   []int  `json:"lines,omitempty"`
}

func skippedWarnings(mre *repository.MalformedRowsError) []Warning {
	if mre == nil {
		return nil
	}
	lines := make([]int, 0, len(mre.Rows))
	for _, r := range mre.Rows {
		lines = append(lines, r.Line)
	}
	return []Warning{{Message: mre.Error(), Lines: lines}}
}
