package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

type CleanupFunc = func()

type RideRepoFactory func(t *testing.T) (repository.RideRepository, CleanupFunc)
type BookingRepoFactory func(t *testing.T) (repository.BookingRepository, CleanupFunc)
type UserRepoFactory func(t *testing.T) (repository.UserRepository, CleanupFunc)

func newRide(origin, destination string) domain.Ride {
	return domain.Ride{
		ID:             uuid.NewString(),
		UserID:         uuid.NewString(),
		Origin:         origin,
		Destination:    destination,
		Date:           "2025-03-01",
		Time:           "09:30",
		SeatsAvailable: 3,
		Price:          500,
		Vehicle:        "Swift",
		Status:         domain.RideStatusAvailable,
		CreatedAt:      time.Unix(1000, 0).UTC(),
	}
}

func RunRideRepo(t *testing.T, newRepo RideRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	// Empty store is not an error.
	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List(empty) err=%v", err)
	}
	if len(got) != 0 {
		t.Fatalf("List(empty) len=%d, want 0", len(got))
	}

	a := newRide("pune", "mumbai")
	if err := repo.Append(ctx, a); err != nil {
		t.Fatalf("Append(a): %v", err)
	}
	b := newRide("Delhi", "Hyderabad")
	b.Price = 742.5
	if err := repo.Append(ctx, b); err != nil {
		t.Fatalf("Append(b): %v", err)
	}

	// Round trip: last element equals the appended record.
	got, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List len=%d, want 2", len(got))
	}
	if !sameRide(got[len(got)-1], b) {
		t.Fatalf("last row=%+v, want %+v", got[len(got)-1], b)
	}

	if err := repo.Append(ctx, a); !errors.Is(err, repository.ErrAlreadyExists) {
		t.Fatalf("Append(duplicate) err=%v, want %v", err, repository.ErrAlreadyExists)
	}

	n, err := repo.Update(ctx, repository.RideByID(a.ID), func(r *domain.Ride) {
		r.Status = domain.RideStatusBooked
	}, repository.First)
	if err != nil || n != 1 {
		t.Fatalf("Update(book) n=%d err=%v", n, err)
	}
	got, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List after update: %v", err)
	}
	if got[0].Status != domain.RideStatusBooked {
		t.Fatalf("status=%q, want %q", got[0].Status, domain.RideStatusBooked)
	}
	if got[0].SeatsAvailable != a.SeatsAvailable || got[0].Price != a.Price {
		t.Fatalf("seats/price changed: %+v", got[0])
	}

	if _, err := repo.Update(ctx, repository.RideByID("missing"), func(*domain.Ride) {}, repository.First); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Update(missing) err=%v, want %v", err, repository.ErrNotFound)
	}

	// Scope: All touches every match, First only one.
	c := newRide("pune", "mumbai")
	if err := repo.Append(ctx, c); err != nil {
		t.Fatalf("Append(c): %v", err)
	}
	n, err = repo.Update(ctx, repository.RideByRoute(" PUNE ", "Mumbai"), func(r *domain.Ride) {
		r.Review = "Rating: 5, great"
	}, repository.All)
	if err != nil || n != 2 {
		t.Fatalf("Update(all) n=%d err=%v, want 2", n, err)
	}
	n, err = repo.Update(ctx, repository.RideByRoute("pune", "mumbai"), func(r *domain.Ride) {
		r.Vehicle = "Innova"
	}, repository.First)
	if err != nil || n != 1 {
		t.Fatalf("Update(first) n=%d err=%v, want 1", n, err)
	}
}

func RunBookingRepo(t *testing.T, newRepo BookingRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	rideID := uuid.NewString()
	for i := 0; i < 2; i++ {
		if err := repo.Append(ctx, domain.Booking{
			ID:          uuid.NewString(),
			RideID:      rideID,
			UserID:      uuid.NewString(),
			Origin:      "pune",
			Destination: "mumbai",
			Price:       500,
			BookedAt:    time.Unix(2000, 0).UTC(),
		}); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}

	n, err := repo.Update(ctx, repository.BookingByRideID(rideID), func(b *domain.Booking) {
		b.Reviews = domain.FormatReview(4, "smooth")
	}, repository.All)
	if err != nil || n != 2 {
		t.Fatalf("Update n=%d err=%v, want 2", n, err)
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List len=%d, want 2", len(got))
	}
	for _, b := range got {
		if b.Reviews != "Rating: 4, smooth" {
			t.Fatalf("reviews=%q", b.Reviews)
		}
	}

	if _, err := repo.Update(ctx, repository.BookingByRideID("nope"), func(*domain.Booking) {}, repository.All); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Update(missing) err=%v, want %v", err, repository.ErrNotFound)
	}
}

func RunUserRepo(t *testing.T, newRepo UserRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	u := domain.User{
		ID:           uuid.NewString(),
		Name:         "Asha Rao",
		Email:        "asha@example.com",
		Phone:        "9876543210",
		PasswordHash: "$2a$10$hash",
		Vehicle:      "Swift",
		Seats:        3,
		CreatedAt:    time.Unix(3000, 0).UTC(),
	}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "ASHA@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if !sameUser(got, u) {
		t.Fatalf("GetByEmail=%+v, want %+v", got, u)
	}
	if _, err := repo.GetByID(ctx, u.ID); err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	dup := u
	dup.ID = uuid.NewString()
	dup.Email = "Asha@Example.com"
	if err := repo.Create(ctx, dup); !errors.Is(err, repository.ErrAlreadyExists) {
		t.Fatalf("Create(duplicate email) err=%v, want %v", err, repository.ErrAlreadyExists)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetByID(missing) err=%v, want %v", err, repository.ErrNotFound)
	}

	all, err := repo.GetAll(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("GetAll len=%d err=%v, want 1", len(all), err)
	}
}

// sameRide compares rides field by field; timestamps compare by instant.
func sameRide(a, b domain.Ride) bool {
	ta, tb := a.CreatedAt, b.CreatedAt
	a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
	return a == b && ta.Equal(tb)
}

func sameUser(a, b domain.User) bool {
	ta, tb := a.CreatedAt, b.CreatedAt
	a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
	return a == b && ta.Equal(tb)
}
