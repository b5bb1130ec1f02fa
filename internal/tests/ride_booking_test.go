package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"carpool/internal/domain"
	"carpool/internal/repository"
	"carpool/internal/repository/csvstore"
	"carpool/internal/service"
)

// ──────────────────────────────────────────────
// 2. SEARCH, BOOKING AND REVIEWS
// ──────────────────────────────────────────────

func seedRide(id, origin, destination string, status domain.RideStatus) domain.Ride {
	return domain.Ride{
		ID:             id,
		UserID:         "driver-" + id,
		Origin:         origin,
		Destination:    destination,
		Date:           "2025-03-01",
		Time:           "09:30",
		SeatsAvailable: 3,
		Price:          450,
		Status:         status,
	}
}

func TestSearchRides_NormalizedEqualityMatch(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(seedRide("r1", "Pune", "Mumbai", domain.RideStatusAvailable))
	rideRepo.AddRide(seedRide("r2", " pune ", "MUMBAI", domain.RideStatusBooked))
	rideRepo.AddRide(seedRide("r3", "Pune", "Navi Mumbai", domain.RideStatusAvailable))
	rideRepo.AddRide(seedRide("r4", "Delhi", "Mumbai", domain.RideStatusAvailable))
	rideService := service.NewRideService(rideRepo, NewMockBookingRepository(), nil, nil)

	got, err := rideService.SearchRides(context.Background(), service.SearchRidesRequest{Origin: "PUNE", Destination: "mumbai"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(got.Rides) != 2 || got.Rides[0].ID != "r1" || got.Rides[1].ID != "r2" {
		t.Fatalf("expected [r1 r2], got %+v", got.Rides)
	}

	contains, err := rideService.SearchRides(context.Background(), service.SearchRidesRequest{Origin: "pun", Destination: "mumbai", Contains: true})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(contains.Rides) != 3 {
		t.Fatalf("expected 3 substring matches, got %d", len(contains.Rides))
	}
}

func TestSearchRides_DateFilterAndNoMatch(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	r := seedRide("r1", "Pune", "Mumbai", domain.RideStatusAvailable)
	rideRepo.AddRide(r)
	rideService := service.NewRideService(rideRepo, NewMockBookingRepository(), nil, nil)
	ctx := context.Background()

	got, err := rideService.SearchRides(ctx, service.SearchRidesRequest{Origin: "pune", Destination: "mumbai", Date: "2025-03-02"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(got.Rides) != 0 {
		t.Fatalf("expected no rides on another date, got %d", len(got.Rides))
	}

	got, err = rideService.SearchRides(ctx, service.SearchRidesRequest{Origin: "chennai", Destination: "kolkata"})
	if err != nil || len(got.Rides) != 0 {
		t.Fatalf("expected empty result, got %v err=%v", got.Rides, err)
	}

	if _, err := rideService.SearchRides(ctx, service.SearchRidesRequest{Origin: "", Destination: "mumbai"}); !errors.Is(err, service.ErrMissingRoute) {
		t.Fatalf("expected %v, got %v", service.ErrMissingRoute, err)
	}
	if _, err := rideService.SearchRides(ctx, service.SearchRidesRequest{Origin: "pune", Destination: "mumbai", Date: "tomorrow"}); !errors.Is(err, service.ErrInvalidDate) {
		t.Fatalf("expected %v, got %v", service.ErrInvalidDate, err)
	}
}

func TestSearchRides_UsesCacheUntilInvalidated(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(seedRide("r1", "Pune", "Mumbai", domain.RideStatusAvailable))
	cache := NewMockRideCache()
	rideService := service.NewRideService(rideRepo, NewMockBookingRepository(), cache, nil)
	ctx := context.Background()
	req := service.SearchRidesRequest{Origin: "pune", Destination: "mumbai"}

	if _, err := rideService.SearchRides(ctx, req); err != nil {
		t.Fatalf("first search: %v", err)
	}
	if _, err := rideService.SearchRides(ctx, req); err != nil {
		t.Fatalf("second search: %v", err)
	}
	if rideRepo.ListCallCount != 1 || cache.SearchHits != 1 {
		t.Fatalf("expected one store read and one cache hit, got reads=%d hits=%d", rideRepo.ListCallCount, cache.SearchHits)
	}

	if _, err := rideService.OfferRide(ctx, validOffer()); err != nil {
		t.Fatalf("offer: %v", err)
	}
	got, err := rideService.SearchRides(ctx, req)
	if err != nil {
		t.Fatalf("third search: %v", err)
	}
	if len(got.Rides) != 2 {
		t.Fatalf("expected new ride visible after invalidation, got %d rides", len(got.Rides))
	}
}

func TestSearchRides_BookingDuringListIsNotCachedAsCurrent(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(seedRide("r1", "Pune", "Mumbai", domain.RideStatusAvailable))
	cache := NewMockRideCache()
	rideService := service.NewRideService(rideRepo, NewMockBookingRepository(), cache, nil)
	ctx := context.Background()
	req := service.SearchRidesRequest{Origin: "pune", Destination: "mumbai"}

	// A booking lands after the search has read the rows but before it caches them.
	rideRepo.OnList = func() {
		rideRepo.OnList = nil
		if _, err := rideRepo.Update(ctx, repository.RideByID("r1"), func(r *domain.Ride) {
			r.Status = domain.RideStatusBooked
		}, repository.First); err != nil {
			t.Errorf("concurrent booking: %v", err)
		}
		_ = cache.InvalidateRide(ctx, "r1")
	}

	first, err := rideService.SearchRides(ctx, req)
	if err != nil {
		t.Fatalf("first search: %v", err)
	}
	if len(first.Rides) != 1 || first.Rides[0].Status != domain.RideStatusAvailable {
		t.Fatalf("first search = %+v", first.Rides)
	}

	second, err := rideService.SearchRides(ctx, req)
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if cache.SearchHits != 0 || rideRepo.ListCallCount != 2 {
		t.Fatalf("expected stale results skipped, got hits=%d reads=%d", cache.SearchHits, rideRepo.ListCallCount)
	}
	if len(second.Rides) != 1 || second.Rides[0].Status != domain.RideStatusBooked {
		t.Fatalf("second search = %+v, want the booked ride", second.Rides)
	}
}

func TestBookRide_FlipsStatusAndAppendsBooking(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(seedRide("r1", "Pune", "Mumbai", domain.RideStatusAvailable))
	bookingRepo := NewMockBookingRepository()
	rideService := service.NewRideService(rideRepo, bookingRepo, nil, nil)

	resp, err := rideService.BookRide(context.Background(), service.BookRideRequest{RideID: "r1", UserID: "rider-1"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	stored, _ := rideRepo.GetRide("r1")
	if stored.Status != domain.RideStatusBooked {
		t.Errorf("expected status Booked, got %s", stored.Status)
	}
	if stored.SeatsAvailable != 3 || stored.Price != 450 {
		t.Errorf("expected seats and price unchanged, got seats=%d price=%v", stored.SeatsAvailable, stored.Price)
	}

	bookings := bookingRepo.Bookings()
	if len(bookings) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(bookings))
	}
	b := bookings[0]
	if b.ID != resp.Booking.ID || b.RideID != "r1" || b.UserID != "rider-1" || b.Price != 450 || b.BookedAt.IsZero() {
		t.Errorf("unexpected booking row: %+v", b)
	}
}

func TestBookRide_AlreadyBooked_Rejected(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(seedRide("r1", "Pune", "Mumbai", domain.RideStatusBooked))
	bookingRepo := NewMockBookingRepository()
	rideService := service.NewRideService(rideRepo, bookingRepo, nil, nil)

	_, err := rideService.BookRide(context.Background(), service.BookRideRequest{RideID: "r1"})
	if !errors.Is(err, service.ErrRideAlreadyBooked) {
		t.Fatalf("expected %v, got %v", service.ErrRideAlreadyBooked, err)
	}
	if bookingRepo.AppendCallCount != 0 {
		t.Errorf("expected no booking row, got %d appends", bookingRepo.AppendCallCount)
	}
}

func TestBookRide_UnknownOrEmptyID(t *testing.T) {
	t.Parallel()

	rideService := service.NewRideService(NewMockRideRepository(), NewMockBookingRepository(), nil, nil)
	ctx := context.Background()

	if _, err := rideService.BookRide(ctx, service.BookRideRequest{RideID: "missing"}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected %v, got %v", repository.ErrNotFound, err)
	}
	if _, err := rideService.BookRide(ctx, service.BookRideRequest{RideID: " "}); !errors.Is(err, service.ErrInvalidRideID) {
		t.Errorf("expected %v, got %v", service.ErrInvalidRideID, err)
	}
}

func TestBookRide_BookingAppendFails_RideRestored(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(seedRide("r1", "Pune", "Mumbai", domain.RideStatusAvailable))
	bookingRepo := NewMockBookingRepository()
	bookingRepo.AppendError = ErrMockStore
	rideService := service.NewRideService(rideRepo, bookingRepo, nil, nil)

	if _, err := rideService.BookRide(context.Background(), service.BookRideRequest{RideID: "r1"}); !errors.Is(err, ErrMockStore) {
		t.Fatalf("expected %v, got %v", ErrMockStore, err)
	}
	stored, _ := rideRepo.GetRide("r1")
	if stored.Status != domain.RideStatusAvailable {
		t.Errorf("expected ride back to Available, got %s", stored.Status)
	}
}

func TestBookRide_ConcurrentAttempts_OnlyOneWins(t *testing.T) {
	t.Parallel()

	store := csvstore.NewMemory()
	ctx := context.Background()
	if err := store.Rides.Append(ctx, seedRide("r1", "Pune", "Mumbai", domain.RideStatusAvailable)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rideService := service.NewRideService(store.Rides, store.Bookings, nil, nil)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rideService.BookRide(ctx, service.BookRideRequest{RideID: "r1"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, service.ErrRideAlreadyBooked):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful booking, got %d", wins)
	}
	bookings, err := store.Bookings.List(ctx)
	if err != nil || len(bookings) != 1 {
		t.Fatalf("expected 1 booking row, got %d err=%v", len(bookings), err)
	}
}

func TestOfferThenBook_Scenario(t *testing.T) {
	t.Parallel()

	store := csvstore.NewMemory()
	rideService := service.NewRideService(store.Rides, store.Bookings, nil, nil)
	ctx := context.Background()

	offered, err := rideService.OfferRide(ctx, validOffer())
	if err != nil {
		t.Fatalf("offer: %v", err)
	}

	found, err := rideService.SearchRides(ctx, service.SearchRidesRequest{Origin: "pune", Destination: "MUMBAI"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found.Rides) != 1 || found.Rides[0].ID != offered.ID {
		t.Fatalf("expected the offered ride, got %+v", found.Rides)
	}

	if _, err := rideService.BookRide(ctx, service.BookRideRequest{RideID: offered.ID, UserID: "rider-1"}); err != nil {
		t.Fatalf("book: %v", err)
	}

	rides, err := store.Rides.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rides) != 1 {
		t.Fatalf("expected 1 ride row, got %d", len(rides))
	}
	got := rides[0]
	if got.Status != domain.RideStatusBooked || got.SeatsAvailable != offered.SeatsAvailable || got.Price != offered.Price {
		t.Fatalf("expected Booked with seats/price unchanged, got %+v", got)
	}
}

func TestReviewRide_AppliesToRideAndEveryBooking(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(seedRide("r1", "Pune", "Mumbai", domain.RideStatusBooked))
	bookingRepo := NewMockBookingRepository()
	bookingRepo.AddBooking(domain.Booking{ID: "b1", RideID: "r1"})
	bookingRepo.AddBooking(domain.Booking{ID: "b2", RideID: "other"})
	bookingRepo.AddBooking(domain.Booking{ID: "b3", RideID: "r1"})
	pub := NewMockPublisher()
	rideService := service.NewRideService(rideRepo, bookingRepo, nil, service.NewNotificationService(nil, pub))

	resp, err := rideService.ReviewRide(context.Background(), service.ReviewRideRequest{RideID: "r1", Rating: 4, Text: " Smooth ride "})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	want := "Rating: 4, Smooth ride"
	if resp.Review != want || resp.BookingsUpdated != 2 {
		t.Fatalf("expected review %q on 2 bookings, got %q on %d", want, resp.Review, resp.BookingsUpdated)
	}
	if stored, _ := rideRepo.GetRide("r1"); stored.Review != want {
		t.Errorf("ride review=%q, want %q", stored.Review, want)
	}
	for _, b := range bookingRepo.Bookings() {
		wantReview := want
		if b.RideID != "r1" {
			wantReview = ""
		}
		if b.Reviews != wantReview {
			t.Errorf("booking %s reviews=%q, want %q", b.ID, b.Reviews, wantReview)
		}
	}
	if keys := pub.RoutingKeys(); len(keys) != 1 || keys[0] != "ride.reviewed" {
		t.Errorf("expected [ride.reviewed], got %v", keys)
	}
}

func TestReviewRide_Validation(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(seedRide("r1", "Pune", "Mumbai", domain.RideStatusAvailable))
	rideService := service.NewRideService(rideRepo, NewMockBookingRepository(), nil, nil)
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		if _, err := rideService.ReviewRide(ctx, service.ReviewRideRequest{RideID: "r1", Rating: rating}); !errors.Is(err, service.ErrInvalidRating) {
			t.Errorf("rating %d: expected %v, got %v", rating, service.ErrInvalidRating, err)
		}
	}
	if _, err := rideService.ReviewRide(ctx, service.ReviewRideRequest{RideID: "nope", Rating: 3}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected %v, got %v", repository.ErrNotFound, err)
	}

	// A ride without bookings still takes the review.
	resp, err := rideService.ReviewRide(ctx, service.ReviewRideRequest{RideID: "r1", Rating: 5})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if resp.BookingsUpdated != 0 || resp.Review != "Rating: 5, " {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestListRides_MalformedRowsSurfaceAsSkipped(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(seedRide("r1", "Pune", "Mumbai", domain.RideStatusAvailable))
	rideRepo.ListError = &repository.MalformedRowsError{Table: "offer_ride", Rows: []repository.RowError{{Line: 3, Err: errors.New("bad seats")}}}
	rideService := service.NewRideService(rideRepo, NewMockBookingRepository(), nil, nil)

	got, err := rideService.ListRides(context.Background())
	if err != nil {
		t.Fatalf("expected malformed rows to be non-fatal, got %v", err)
	}
	if len(got.Rides) != 1 || got.Skipped == nil || got.Skipped.Rows[0].Line != 3 {
		t.Fatalf("unexpected listing %+v", got)
	}

	rideRepo.ListError = ErrMockStore
	if _, err := rideService.ListRides(context.Background()); !errors.Is(err, ErrMockStore) {
		t.Fatalf("expected %v, got %v", ErrMockStore, err)
	}
}

func TestGetRide_CachesAfterFirstRead(t *testing.T) {
	t.Parallel()

	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(seedRide("r1", "Pune", "Mumbai", domain.RideStatusAvailable))
	rideService := service.NewRideService(rideRepo, NewMockBookingRepository(), NewMockRideCache(), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := rideService.GetRide(ctx, "r1")
		if err != nil || got.ID != "r1" {
			t.Fatalf("GetRide: %+v err=%v", got, err)
		}
	}
	if rideRepo.ListCallCount != 1 {
		t.Fatalf("expected 1 store read, got %d", rideRepo.ListCallCount)
	}
	if _, err := rideService.GetRide(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected %v, got %v", repository.ErrNotFound, err)
	}
}
