package repository

import (
	"testing"

	"carpool/internal/domain"
)

func TestRideMatch(t *testing.T) {
	ride := domain.Ride{ID: "r1", Origin: "New  Delhi", Destination: "Pune", Date: "2025-03-01"}

	tests := []struct {
		name   string
		match  RideMatch
		want   bool
		wantID string
	}{
		{"by id", RideByID("r1"), true, "r1"},
		{"by other id", RideByID("r2"), false, "r2"},
		{"by route normalized", RideByRoute(" new delhi ", "PUNE"), true, ""},
		{"by route contains", RideByRouteContains("delhi", "pu"), true, ""},
		{"by id and date", RideByID("r1").And(func(r domain.Ride) bool { return r.Date == "2025-03-02" }), false, "r1"},
		{"zero value", RideMatch{}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.match.Match(ride); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
			if tt.match.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", tt.match.ID, tt.wantID)
			}
		})
	}
}

func TestBookingByRideID(t *testing.T) {
	m := BookingByRideID("r1")
	if m.RideID != "r1" {
		t.Fatalf("RideID = %q", m.RideID)
	}
	if !m.Match(domain.Booking{ID: "b1", RideID: "r1"}) || m.Match(domain.Booking{ID: "b2", RideID: "r2"}) {
		t.Fatal("BookingByRideID matched the wrong rows")
	}
}
