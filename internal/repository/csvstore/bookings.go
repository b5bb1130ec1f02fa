package csvstore

import (
	"context"
	"errors"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

var bookingCodec = codec[domain.Booking]{
	name: "book_ride",
	header: []string{
		"booking_id", "ride_id", "user_id", "origin", "destination",
		"date", "time", "price", "booked_at", "reviews",
	},
	required: []string{"booking_id", "ride_id"},
	key:      func(b domain.Booking) string { return b.ID },
	encode: func(b domain.Booking) []string {
		return []string{
			b.ID, b.RideID, b.UserID, b.Origin, b.Destination,
			b.Date, b.Time, formatPrice(b.Price), formatTime(b.BookedAt), b.Reviews,
		}
	},
	decode: func(field func(string) string) (domain.Booking, error) {
		b := domain.Booking{
			ID:          field("booking_id"),
			RideID:      field("ride_id"),
			UserID:      field("user_id"),
			Origin:      field("origin"),
			Destination: field("destination"),
			Date:        field("date"),
			Time:        field("time"),
			Reviews:     field("reviews"),
		}
		if b.ID == "" || b.RideID == "" {
			return b, errors.New("empty booking_id or ride_id")
		}

		var err error
		if p := field("price"); p != "" {
			if b.Price, err = parsePrice(p); err != nil {
				return b, err
			}
		}
		if b.BookedAt, err = parseTime(field("booked_at")); err != nil {
			return b, err
		}
		return b, nil
	},
}

// BookingStore is a CSV implementation of repository.BookingRepository.
type BookingStore struct {
	t *table[domain.Booking]
}

// NewBookingStore creates a booking store over b.
func NewBookingStore(b Backing, opts ...Option) *BookingStore {
	return &BookingStore{t: newTable(b, bookingCodec, opts...)}
}

var _ repository.BookingRepository = (*BookingStore)(nil)

func (s *BookingStore) List(ctx context.Context) ([]domain.Booking, error) {
	return s.t.list(ctx)
}

func (s *BookingStore) Append(ctx context.Context, booking domain.Booking) error {
	return s.t.insert(ctx, booking, nil)
}

func (s *BookingStore) Update(ctx context.Context, match repository.BookingMatch, mutate func(*domain.Booking), scope repository.Scope) (int, error) {
	return s.t.update(ctx, match.Match, mutate, scope)
}
