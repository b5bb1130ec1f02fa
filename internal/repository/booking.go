package repository

import (
	"context"

	"carpool/internal/domain"
)

// BookingMatch is a predicate over booking rows. RideID, when set, limits
// the predicate to bookings of that ride.
type BookingMatch struct {
	RideID string
	fn     func(domain.Booking) bool
}

// BookingWhere wraps an arbitrary booking predicate.
func BookingWhere(fn func(domain.Booking) bool) BookingMatch {
	return BookingMatch{fn: fn}
}

// Match reports whether b is selected.
func (m BookingMatch) Match(b domain.Booking) bool {
	return m.fn != nil && m.fn(b)
}

// BookingRepository defines the persistence operations for booked rides.
type BookingRepository interface {
	List(ctx context.Context) ([]domain.Booking, error)
	Append(ctx context.Context, booking domain.Booking) error
	Update(ctx context.Context, match BookingMatch, mutate func(*domain.Booking), scope Scope) (int, error)
}

// BookingByRideID matches every booking of a ride.
func BookingByRideID(rideID string) BookingMatch {
	return BookingMatch{RideID: rideID, fn: func(b domain.Booking) bool { return b.RideID == rideID }}
}
