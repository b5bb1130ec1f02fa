package csvstore

import (
	"path/filepath"
	"testing"

	"carpool/internal/repository"
	"carpool/internal/repository/contracttest"
)

func TestContract_FileRideStore(t *testing.T) {
	contracttest.RunRideRepo(t, func(t *testing.T) (repository.RideRepository, func()) {
		t.Helper()
		return NewRideStore(NewFileBacking(filepath.Join(t.TempDir(), RidesFile))), nil
	})
}

func TestContract_MemoryRideStore(t *testing.T) {
	contracttest.RunRideRepo(t, func(t *testing.T) (repository.RideRepository, func()) {
		t.Helper()
		return NewRideStore(NewMemoryBacking()), nil
	})
}

func TestContract_FileBookingStore(t *testing.T) {
	contracttest.RunBookingRepo(t, func(t *testing.T) (repository.BookingRepository, func()) {
		t.Helper()
		return NewBookingStore(NewFileBacking(filepath.Join(t.TempDir(), BookingsFile))), nil
	})
}

func TestContract_MemoryBookingStore(t *testing.T) {
	contracttest.RunBookingRepo(t, func(t *testing.T) (repository.BookingRepository, func()) {
		t.Helper()
		return NewBookingStore(NewMemoryBacking()), nil
	})
}

func TestContract_FileUserStore(t *testing.T) {
	contracttest.RunUserRepo(t, func(t *testing.T) (repository.UserRepository, func()) {
		t.Helper()
		return NewUserStore(NewFileBacking(filepath.Join(t.TempDir(), UsersFile))), nil
	})
}

func TestContract_MemoryUserStore(t *testing.T) {
	contracttest.RunUserRepo(t, func(t *testing.T) (repository.UserRepository, func()) {
		t.Helper()
		return NewUserStore(NewMemoryBacking()), nil
	})
}
