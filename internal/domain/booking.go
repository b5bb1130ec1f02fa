package domain

import (
	"fmt"
	"time"
)

// Rating bounds for reviews.
const (
	MinRating = 1
	MaxRating = 5
)

// Booking is one row of the booked-rides table.
type Booking struct {
	ID          string
	RideID      string
	UserID      string
	Origin      string
	Destination string
	Date        string
	Time        string
	Price       float64
	BookedAt    time.Time
	Reviews     string
}

// FormatReview renders a review the way it is stored on rides and bookings.
func FormatReview(rating int, text string) string {
	return fmt.Sprintf("Rating: %d, %s", rating, text)
}
