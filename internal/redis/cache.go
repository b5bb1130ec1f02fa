package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"carpool/internal/domain"
)

// CacheStore handles ride caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	RideCacheTTL   = 30 * time.Second
	SearchCacheTTL = 10 * time.Second // search results go stale on every offer or booking
)

// Key prefixes
const (
	rideCachePrefix   = "cache:ride:"
	searchCachePrefix = "cache:search:"
	searchGenKey      = "cache:search:gen"
)

// CachedRide represents a cached ride entity.
type CachedRide struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	SeatsAvailable int       `json:"seats_available"`
	Price          float64   `json:"price"`
	Vehicle        string    `json:"vehicle"`
	Status         string    `json:"status"`
	Review         string    `json:"review"`
	CreatedAt      time.Time `json:"created_at"`
}

func toCached(r domain.Ride) CachedRide {
	return CachedRide{
		ID:             r.ID,
		UserID:         r.UserID,
		Origin:         r.Origin,
		Destination:    r.Destination,
		Date:           r.Date,
		Time:           r.Time,
		SeatsAvailable: r.SeatsAvailable,
		Price:          r.Price,
		Vehicle:        r.Vehicle,
		Status:         string(r.Status),
		Review:         r.Review,
		CreatedAt:      r.CreatedAt,
	}
}

func (c CachedRide) toDomain() domain.Ride {
	return domain.Ride{
		ID:             c.ID,
		UserID:         c.UserID,
		Origin:         c.Origin,
		Destination:    c.Destination,
		Date:           c.Date,
		Time:           c.Time,
		SeatsAvailable: c.SeatsAvailable,
		Price:          c.Price,
		Vehicle:        c.Vehicle,
		Status:         domain.RideStatus(c.Status),
		Review:         c.Review,
		CreatedAt:      c.CreatedAt,
	}
}

// GetRide retrieves a ride from cache. A miss returns ok=false and no error.
func (s *CacheStore) GetRide(ctx context.Context, rideID string) (domain.Ride, bool, error) {
	data, err := s.client.Get(ctx, rideCachePrefix+rideID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Ride{}, false, nil
		}
		return domain.Ride{}, false, err
	}

	var ride CachedRide
	if err := json.Unmarshal(data, &ride); err != nil {
		return domain.Ride{}, false, err
	}
	return ride.toDomain(), true, nil
}

// SetRide stores a ride in cache.
func (s *CacheStore) SetRide(ctx context.Context, ride domain.Ride) error {
	data, err := json.Marshal(toCached(ride))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, rideCachePrefix+ride.ID, data, RideCacheTTL).Err()
}

// InvalidateRide removes a ride from cache and retires every cached search.
func (s *CacheStore) InvalidateRide(ctx context.Context, rideID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, rideCachePrefix+rideID)
	pipe.Incr(ctx, searchGenKey)
	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateSearches retires every cached search result.
func (s *CacheStore) InvalidateSearches(ctx context.Context) error {
	return s.client.Incr(ctx, searchGenKey).Err()
}

// SearchKey returns the cache key for a route query under the current
// generation. Callers read it once per search and pass it to both GetSearch
// and SetSearch, so results listed before an invalidation are never stored
// under the newer generation.
func (s *CacheStore) SearchKey(ctx context.Context, origin, destination, date string) (string, error) {
	gen, err := s.client.Get(ctx, searchGenKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return searchKey(gen, origin, destination, date), nil
}

func searchKey(gen int64, origin, destination, date string) string {
	parts := []string{
		strconv.FormatInt(gen, 10),
		domain.NormalizeCity(origin),
		domain.NormalizeCity(destination),
		strings.TrimSpace(date),
	}
	return searchCachePrefix + strings.Join(parts, "|")
}

// GetSearch retrieves cached results stored under key.
func (s *CacheStore) GetSearch(ctx context.Context, key string) ([]domain.Ride, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var cached []CachedRide
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, err
	}
	rides := make([]domain.Ride, 0, len(cached))
	for _, c := range cached {
		rides = append(rides, c.toDomain())
	}
	return rides, true, nil
}

// SetSearch stores results under key.
func (s *CacheStore) SetSearch(ctx context.Context, key string, rides []domain.Ride) error {
	cached := make([]CachedRide, 0, len(rides))
	for _, r := range rides {
		cached = append(cached, toCached(r))
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, SearchCacheTTL).Err()
}
