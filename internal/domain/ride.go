package domain

import (
	"strings"
	"time"
)

// RideStatus represents the booking state of an offered ride.
type RideStatus string

const (
	RideStatusAvailable RideStatus = "Available"
	RideStatusBooked    RideStatus = "Booked"
)

// Seat limits accepted by the offer form.
const (
	MinSeats = 1
	MaxSeats = 10
)

// Date and time layouts used in persisted rows.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Ride represents a ride offered by a user.
type Ride struct {
	ID             string
	UserID         string
	Origin         string
	Destination    string
	Date           string
	Time           string
	SeatsAvailable int
	Price          float64
	Vehicle        string
	Status         RideStatus
	Review         string
	CreatedAt      time.Time
}

// IsAvailable reports whether the ride can still be booked.
func (r Ride) IsAvailable() bool {
	return r.Status == RideStatusAvailable
}

// NormalizeCity trims, collapses internal whitespace and lowercases a city name.
func NormalizeCity(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// SameCity reports whether two free-text city names refer to the same city.
func SameCity(a, b string) bool {
	return NormalizeCity(a) == NormalizeCity(b)
}
