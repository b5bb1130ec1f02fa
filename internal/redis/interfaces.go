package redis

import (
	"context"

	"carpool/internal/domain"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

// RideCacheInterface defines the interface for ride and search caching.
type RideCacheInterface interface {
	GetRide(ctx context.Context, rideID string) (domain.Ride, bool, error)
	SetRide(ctx context.Context, ride domain.Ride) error
	InvalidateRide(ctx context.Context, rideID string) error
	InvalidateSearches(ctx context.Context) error
	SearchKey(ctx context.Context, origin, destination, date string) (string, error)
	GetSearch(ctx context.Context, key string) ([]domain.Ride, bool, error)
	SetSearch(ctx context.Context, key string, rides []domain.Ride) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface = (*LockStore)(nil)
	_ RideCacheInterface = (*CacheStore)(nil)
)
