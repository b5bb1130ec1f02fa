package csvstore

import "path/filepath"

// File names of the persisted tables.
const (
	RidesFile    = "offer_ride.csv"
	BookingsFile = "book_ride.csv"
	UsersFile    = "users.csv"
)

// Store groups the three tables of a carpool deployment.
type Store struct {
	Rides    *RideStore
	Bookings *BookingStore
	Users    *UserStore
}

// Open returns a store whose tables live as CSV files in dir.
func Open(dir string, opts ...Option) *Store {
	return &Store{
		Rides:    NewRideStore(NewFileBacking(filepath.Join(dir, RidesFile)), opts...),
		Bookings: NewBookingStore(NewFileBacking(filepath.Join(dir, BookingsFile)), opts...),
		Users:    NewUserStore(NewFileBacking(filepath.Join(dir, UsersFile)), opts...),
	}
}

// NewMemory returns a store held entirely in memory.
func NewMemory(opts ...Option) *Store {
	return &Store{
		Rides:    NewRideStore(NewMemoryBacking(), opts...),
		Bookings: NewBookingStore(NewMemoryBacking(), opts...),
		Users:    NewUserStore(NewMemoryBacking(), opts...),
	}
}
