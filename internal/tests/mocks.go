package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides []domain.Ride

	// Counters for verification
	AppendCallCount int32
	UpdateCallCount int32
	ListCallCount   int32

	// Error injection
	AppendError error
	UpdateError error
	ListError   error

	// OnList, when set, runs while List holds no lock, after the rows are copied.
	OnList func()
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides = append(m.rides, ride)
}

func (m *MockRideRepository) List(ctx context.Context) ([]domain.Ride, error) {
	atomic.AddInt32(&m.ListCallCount, 1)
	m.mu.RLock()
	rides := append([]domain.Ride{}, m.rides...)
	m.mu.RUnlock()
	if m.OnList != nil {
		m.OnList()
	}
	return rides, m.ListError
}

func (m *MockRideRepository) Append(ctx context.Context, ride domain.Ride) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rides {
		if r.ID == ride.ID {
			return repository.ErrAlreadyExists
		}
	}
	m.rides = append(m.rides, ride)
	return nil
}

func (m *MockRideRepository) Update(ctx context.Context, match repository.RideMatch, mutate func(*domain.Ride), scope repository.Scope) (int, error) {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return 0, m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for i := range m.rides {
		if !match.Match(m.rides[i]) {
			continue
		}
		mutate(&m.rides[i])
		n++
		if scope == repository.First {
			break
		}
	}
	if n == 0 {
		return 0, repository.ErrNotFound
	}
	return n, nil
}

// GetRide returns the ride by ID (for test assertions).
func (m *MockRideRepository) GetRide(id string) (domain.Ride, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rides {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Ride{}, false
}

// CountRides returns the number of stored rides.
func (m *MockRideRepository) CountRides() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rides)
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings []domain.Booking

	AppendCallCount int32

	AppendError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(b domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = append(m.bookings, b)
}

func (m *MockBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Booking{}, m.bookings...), nil
}

func (m *MockBookingRepository) Append(ctx context.Context, b domain.Booking) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = append(m.bookings, b)
	return nil
}

func (m *MockBookingRepository) Update(ctx context.Context, match repository.BookingMatch, mutate func(*domain.Booking), scope repository.Scope) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for i := range m.bookings {
		if !match.Match(m.bookings[i]) {
			continue
		}
		mutate(&m.bookings[i])
		n++
		if scope == repository.First {
			break
		}
	}
	if n == 0 {
		return 0, repository.ErrNotFound
	}
	return n, nil
}

// Bookings returns a copy of all bookings (for test assertions).
func (m *MockBookingRepository) Bookings() []domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Booking{}, m.bookings...)
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User

	CreateCallCount int32

	CreateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]domain.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == user.ID || u.Email == user.Email {
			return repository.ErrAlreadyExists
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK RIDE CACHE
// ──────────────────────────────────────────────

// MockRideCache is an in-memory implementation of RideCacheInterface.
// Invalidation bumps a generation that is part of every search key.
type MockRideCache struct {
	mu       sync.Mutex
	rides    map[string]domain.Ride
	searches map[string][]domain.Ride
	gen      int

	SearchHits      int32
	InvalidateCalls int32
}

// NewMockRideCache creates a new mock ride cache.
func NewMockRideCache() *MockRideCache {
	return &MockRideCache{
		rides:    make(map[string]domain.Ride),
		searches: make(map[string][]domain.Ride),
	}
}

func (m *MockRideCache) GetRide(ctx context.Context, rideID string) (domain.Ride, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[rideID]
	return r, ok, nil
}

func (m *MockRideCache) SetRide(ctx context.Context, ride domain.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
	return nil
}

func (m *MockRideCache) InvalidateRide(ctx context.Context, rideID string) error {
	atomic.AddInt32(&m.InvalidateCalls, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rides, rideID)
	m.gen++
	return nil
}

func (m *MockRideCache) InvalidateSearches(ctx context.Context) error {
	atomic.AddInt32(&m.InvalidateCalls, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	return nil
}

func (m *MockRideCache) SearchKey(ctx context.Context, origin, destination, date string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("%d|%s|%s|%s", m.gen, domain.NormalizeCity(origin), domain.NormalizeCity(destination), date), nil
}

func (m *MockRideCache) GetSearch(ctx context.Context, key string) ([]domain.Ride, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rides, ok := m.searches[key]
	if ok {
		atomic.AddInt32(&m.SearchHits, 1)
	}
	return rides, ok, nil
}

func (m *MockRideCache) SetSearch(ctx context.Context, key string, rides []domain.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches[key] = append([]domain.Ride{}, rides...)
	return nil
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// PublishedMessage is one message captured by MockPublisher.
type PublishedMessage struct {
	RoutingKey string
	Body       []byte
}

// MockPublisher records published events.
type MockPublisher struct {
	mu       sync.Mutex
	messages []PublishedMessage

	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, PublishedMessage{RoutingKey: routingKey, Body: body})
	return nil
}

// RoutingKeys returns the keys published so far, in order.
func (m *MockPublisher) RoutingKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		keys = append(keys, msg.RoutingKey)
	}
	return keys
}

// ErrMockStore is a generic injected store failure.
var ErrMockStore = errors.New("mock store failure")
