package csvstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

var rideCodec = codec[domain.Ride]{
	name: "offer_ride",
	header: []string{
		"ride_id", "user_id", "origin", "destination", "date", "time",
		"seats_available", "price", "vehicle", "status", "review", "created_at",
	},
	required: []string{"ride_id", "origin", "destination", "seats_available", "price"},
	key:      func(r domain.Ride) string { return r.ID },
	encode: func(r domain.Ride) []string {
		return []string{
			r.ID, r.UserID, r.Origin, r.Destination, r.Date, r.Time,
			strconv.Itoa(r.SeatsAvailable), formatPrice(r.Price), r.Vehicle,
			string(r.Status), r.Review, formatTime(r.CreatedAt),
		}
	},
	decode: func(field func(string) string) (domain.Ride, error) {
		r := domain.Ride{
			ID:          field("ride_id"),
			UserID:      field("user_id"),
			Origin:      field("origin"),
			Destination: field("destination"),
			Date:        field("date"),
			Time:        field("time"),
			Vehicle:     field("vehicle"),
			Review:      field("review"),
		}
		if r.ID == "" {
			return r, errors.New("empty ride_id")
		}

		seats, err := strconv.Atoi(field("seats_available"))
		if err != nil || seats < 0 {
			return r, fmt.Errorf("invalid seats_available %q", field("seats_available"))
		}
		r.SeatsAvailable = seats

		price, err := parsePrice(field("price"))
		if err != nil {
			return r, err
		}
		r.Price = price

		switch status := domain.RideStatus(field("status")); status {
		case "":
			r.Status = domain.RideStatusAvailable
		case domain.RideStatusAvailable, domain.RideStatusBooked:
			r.Status = status
		default:
			return r, fmt.Errorf("invalid status %q", status)
		}

		if r.CreatedAt, err = parseTime(field("created_at")); err != nil {
			return r, err
		}
		return r, nil
	},
}

// RideStore is a CSV implementation of repository.RideRepository.
type RideStore struct {
	t *table[domain.Ride]
}

// NewRideStore creates a ride store over b.
func NewRideStore(b Backing, opts ...Option) *RideStore {
	return &RideStore{t: newTable(b, rideCodec, opts...)}
}

var _ repository.RideRepository = (*RideStore)(nil)

// List returns all rides in file order.
func (s *RideStore) List(ctx context.Context) ([]domain.Ride, error) {
	return s.t.list(ctx)
}

// Append persists a new ride.
func (s *RideStore) Append(ctx context.Context, ride domain.Ride) error {
	return s.t.insert(ctx, ride, nil)
}

// Update mutates matching rides and persists the table.
func (s *RideStore) Update(ctx context.Context, match repository.RideMatch, mutate func(*domain.Ride), scope repository.Scope) (int, error) {
	return s.t.update(ctx, match.Match, mutate, scope)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func parsePrice(s string) (float64, error) {
	p, err := strconv.ParseFloat(s, 64)
	if err != nil || p < 0 {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return p, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return t, nil
}
