package repository

import (
	"context"
	"strings"

	"carpool/internal/domain"
)

// Scope selects how many matching rows an Update mutates.
type Scope int

const (
	// First mutates only the first matching row in table order.
	First Scope = iota
	// All mutates every matching row.
	All
)

// RideMatch is a predicate over ride rows. ID, when set, is the only ride id
// the predicate accepts, so indexed stores can narrow their scan to it.
type RideMatch struct {
	ID string
	fn func(domain.Ride) bool
}

// RideWhere wraps an arbitrary ride predicate.
func RideWhere(fn func(domain.Ride) bool) RideMatch {
	return RideMatch{fn: fn}
}

// Match reports whether r is selected.
func (m RideMatch) Match(r domain.Ride) bool {
	return m.fn != nil && m.fn(r)
}

// And narrows m by fn, keeping m's ID.
func (m RideMatch) And(fn func(domain.Ride) bool) RideMatch {
	return RideMatch{ID: m.ID, fn: func(r domain.Ride) bool { return m.Match(r) && fn(r) }}
}

// RideRepository defines the persistence operations for offered rides.
type RideRepository interface {
	// List returns every ride in table order. A missing table yields an
	// empty slice. Undecodable rows are skipped and reported through a
	// *MalformedRowsError returned together with the good rows.
	List(ctx context.Context) ([]domain.Ride, error)

	// Append persists a new ride.
	Append(ctx context.Context, ride domain.Ride) error

	// Update applies mutate to the rows selected by match and scope and
	// returns the number of rows changed.
	Update(ctx context.Context, match RideMatch, mutate func(*domain.Ride), scope Scope) (int, error)
}

// RideByID matches a ride by identifier.
func RideByID(id string) RideMatch {
	return RideMatch{ID: id, fn: func(r domain.Ride) bool { return r.ID == id }}
}

// RideByRoute matches rides whose origin and destination equal the given
// cities after normalization.
func RideByRoute(origin, destination string) RideMatch {
	return RideWhere(func(r domain.Ride) bool {
		return domain.SameCity(r.Origin, origin) && domain.SameCity(r.Destination, destination)
	})
}

// RideByRouteContains matches rides whose origin and destination contain the
// given fragments, case-insensitively.
func RideByRouteContains(origin, destination string) RideMatch {
	o, d := domain.NormalizeCity(origin), domain.NormalizeCity(destination)
	return RideWhere(func(r domain.Ride) bool {
		return strings.Contains(domain.NormalizeCity(r.Origin), o) &&
			strings.Contains(domain.NormalizeCity(r.Destination), d)
	})
}

// FilterRides returns the rides satisfying match, preserving order.
func FilterRides(rides []domain.Ride, match RideMatch) []domain.Ride {
	out := make([]domain.Ride, 0)
	for _, r := range rides {
		if match.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
