package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	internalRedis "carpool/internal/redis"
	"carpool/internal/repository"
)

// RideService handles offering, searching, booking and reviewing rides.
type RideService struct {
	rideRepo            repository.RideRepository
	bookingRepo         repository.BookingRepository
	cache               internalRedis.RideCacheInterface
	notificationService *NotificationService
	now                 func() time.Time
}

// NewRideService creates a new RideService. cache and notificationService may be nil.
func NewRideService(
	rideRepo repository.RideRepository,
	bookingRepo repository.BookingRepository,
	cache internalRedis.RideCacheInterface,
	notificationService *NotificationService,
) *RideService {
	return &RideService{
		rideRepo:            rideRepo,
		bookingRepo:         bookingRepo,
		cache:               cache,
		notificationService: notificationService,
		now:                 time.Now,
	}
}

// OfferRideRequest contains the parameters for offering a ride.
type OfferRideRequest struct {
	UserID      string
	Origin      string
	Destination string
	Date        string
	Time        string
	Seats       int
	Price       float64
	Vehicle     string
}

// OfferRide validates the request and posts a new Available ride.
func (s *RideService) OfferRide(ctx context.Context, req OfferRideRequest) (domain.Ride, error) {
	if err := validateOffer(req); err != nil {
		return domain.Ride{}, err
	}

	ride := domain.Ride{
		ID:             uuid.New().String(),
		UserID:         strings.TrimSpace(req.UserID),
		Origin:         strings.TrimSpace(req.Origin),
		Destination:    strings.TrimSpace(req.Destination),
		Date:           strings.TrimSpace(req.Date),
		Time:           strings.TrimSpace(req.Time),
		SeatsAvailable: req.Seats,
		Price:          req.Price,
		Vehicle:        strings.TrimSpace(req.Vehicle),
		Status:         domain.RideStatusAvailable,
		CreatedAt:      s.now().UTC().Truncate(time.Second),
	}

	if err := s.rideRepo.Append(ctx, ride); err != nil {
		return domain.Ride{}, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateSearches(ctx)
	}
	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideOffered(ctx, ride)
	}
	return ride, nil
}

func validateOffer(req OfferRideRequest) error {
	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		return ErrMissingRoute
	}
	if _, err := time.Parse(domain.DateLayout, strings.TrimSpace(req.Date)); err != nil {
		return ErrInvalidDate
	}
	if _, err := time.Parse(domain.TimeLayout, strings.TrimSpace(req.Time)); err != nil {
		return ErrInvalidTime
	}
	if req.Seats < domain.MinSeats || req.Seats > domain.MaxSeats {
		return ErrInvalidSeats
	}
	if math.IsNaN(req.Price) || math.IsInf(req.Price, 0) || req.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// RideList is a set of rides plus any rows the store had to skip.
type RideList struct {
	Rides   []domain.Ride
	Skipped *repository.MalformedRowsError
}

// ListRides returns every ride in table order.
func (s *RideService) ListRides(ctx context.Context) (RideList, error) {
	rides, err := s.rideRepo.List(ctx)
	skipped, err := repository.SplitMalformed(err)
	if err != nil {
		return RideList{}, err
	}
	return RideList{Rides: rides, Skipped: skipped}, nil
}

// SearchRidesRequest contains the parameters for a route search.
type SearchRidesRequest struct {
	Origin      string
	Destination string
	Date        string // optional, YYYY-MM-DD
	Contains    bool   // substring match instead of normalized equality
}

// SearchRides returns rides on the requested route.
func (s *RideService) SearchRides(ctx context.Context, req SearchRidesRequest) (RideList, error) {
	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		return RideList{}, ErrMissingRoute
	}
	date := strings.TrimSpace(req.Date)
	if date != "" {
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			return RideList{}, ErrInvalidDate
		}
	}

	var cacheKey string
	if s.cache != nil && !req.Contains {
		if key, err := s.cache.SearchKey(ctx, req.Origin, req.Destination, date); err == nil {
			cacheKey = key
			if rides, ok, err := s.cache.GetSearch(ctx, key); err == nil && ok {
				return RideList{Rides: rides}, nil
			}
		}
	}

	all, err := s.ListRides(ctx)
	if err != nil {
		return RideList{}, err
	}

	match := repository.RideByRoute(req.Origin, req.Destination)
	if req.Contains {
		match = repository.RideByRouteContains(req.Origin, req.Destination)
	}
	if date != "" {
		match = match.And(func(r domain.Ride) bool { return r.Date == date })
	}
	result := RideList{Rides: repository.FilterRides(all.Rides, match), Skipped: all.Skipped}

	if cacheKey != "" && result.Skipped == nil {
		_ = s.cache.SetSearch(ctx, cacheKey, result.Rides)
	}
	return result, nil
}

// GetRide retrieves a ride by ID.
func (s *RideService) GetRide(ctx context.Context, rideID string) (domain.Ride, error) {
	rideID = strings.TrimSpace(rideID)
	if rideID == "" {
		return domain.Ride{}, ErrInvalidRideID
	}

	if s.cache != nil {
		if ride, ok, err := s.cache.GetRide(ctx, rideID); err == nil && ok {
			return ride, nil
		}
	}

	all, err := s.ListRides(ctx)
	if err != nil {
		return domain.Ride{}, err
	}
	for _, r := range all.Rides {
		if r.ID == rideID {
			if s.cache != nil {
				_ = s.cache.SetRide(ctx, r)
			}
			return r, nil
		}
	}
	return domain.Ride{}, repository.ErrNotFound
}

// BookRideRequest contains the parameters for booking a ride.
type BookRideRequest struct {
	RideID string
	UserID string
}

// BookRideResponse contains the result of booking a ride.
type BookRideResponse struct {
	Ride    domain.Ride
	Booking domain.Booking
}

// BookRide flips an Available ride to Booked and records the booking.
// Seats and price are left as offered.
func (s *RideService) BookRide(ctx context.Context, req BookRideRequest) (BookRideResponse, error) {
	rideID := strings.TrimSpace(req.RideID)
	if rideID == "" {
		return BookRideResponse{}, ErrInvalidRideID
	}

	var ride domain.Ride
	alreadyBooked := false
	_, err := s.rideRepo.Update(ctx, repository.RideByID(rideID), func(r *domain.Ride) {
		if !r.IsAvailable() {
			alreadyBooked = true
			return
		}
		r.Status = domain.RideStatusBooked
		ride = *r
	}, repository.First)
	if err != nil {
		return BookRideResponse{}, err
	}
	if alreadyBooked {
		return BookRideResponse{}, ErrRideAlreadyBooked
	}

	booking := domain.Booking{
		ID:          uuid.New().String(),
		RideID:      ride.ID,
		UserID:      strings.TrimSpace(req.UserID),
		Origin:      ride.Origin,
		Destination: ride.Destination,
		Date:        ride.Date,
		Time:        ride.Time,
		Price:       ride.Price,
		BookedAt:    s.now().UTC().Truncate(time.Second),
	}
	if err := s.bookingRepo.Append(ctx, booking); err != nil {
		// Put the ride back so it can be booked again.
		_, _ = s.rideRepo.Update(ctx, repository.RideByID(rideID), func(r *domain.Ride) {
			r.Status = domain.RideStatusAvailable
		}, repository.First)
		return BookRideResponse{}, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateRide(ctx, rideID)
	}
	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideBooked(ctx, ride, booking)
	}
	return BookRideResponse{Ride: ride, Booking: booking}, nil
}

// ReviewRideRequest contains the parameters for reviewing a ride.
type ReviewRideRequest struct {
	RideID string
	Rating int
	Text   string
}

// ReviewRideResponse contains the result of reviewing a ride.
type ReviewRideResponse struct {
	Ride            domain.Ride
	Review          string
	BookingsUpdated int
}

// ReviewRide stores "Rating: N, text" on the ride and on every booking of it.
func (s *RideService) ReviewRide(ctx context.Context, req ReviewRideRequest) (ReviewRideResponse, error) {
	rideID := strings.TrimSpace(req.RideID)
	if rideID == "" {
		return ReviewRideResponse{}, ErrInvalidRideID
	}
	if req.Rating < domain.MinRating || req.Rating > domain.MaxRating {
		return ReviewRideResponse{}, ErrInvalidRating
	}
	review := domain.FormatReview(req.Rating, strings.TrimSpace(req.Text))

	var ride domain.Ride
	if _, err := s.rideRepo.Update(ctx, repository.RideByID(rideID), func(r *domain.Ride) {
		r.Review = review
		ride = *r
	}, repository.First); err != nil {
		return ReviewRideResponse{}, err
	}

	n, err := s.bookingRepo.Update(ctx, repository.BookingByRideID(rideID), func(b *domain.Booking) {
		b.Reviews = review
	}, repository.All)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return ReviewRideResponse{}, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateRide(ctx, rideID)
	}
	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideReviewed(ctx, ride)
	}
	return ReviewRideResponse{Ride: ride, Review: review, BookingsUpdated: n}, nil
}

// BookingList is a set of bookings plus any rows the store had to skip.
type BookingList struct {
	Bookings []domain.Booking
	Skipped  *repository.MalformedRowsError
}

// ListBookings returns every booking in table order.
func (s *RideService) ListBookings(ctx context.Context) (BookingList, error) {
	bookings, err := s.bookingRepo.List(ctx)
	skipped, err := repository.SplitMalformed(err)
	if err != nil {
		return BookingList{}, err
	}
	return BookingList{Bookings: bookings, Skipped: skipped}, nil
}
