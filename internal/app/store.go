package app

import (
	"context"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"carpool/internal/config"
	"carpool/internal/logger"
	internalRedis "carpool/internal/redis"
	"carpool/internal/repository"
	"carpool/internal/repository/csvstore"
	"carpool/internal/repository/postgres"
)

// Store is the set of repositories selected by config.Store.Backend.
type Store struct {
	Rides    repository.RideRepository
	Bookings repository.BookingRepository
	Users    repository.UserRepository

	close func() error
}

// Close releases the backend's resources.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore builds the configured backend. The CSV backend takes a
// cross-process Redis lock when redisClient is non-nil; the postgres backend
// opens a pool and, if enabled, applies migrations.
func OpenStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client, nrApp *newrelic.Application, log *logger.Logger) (*Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		st := csvstore.NewMemory()
		log.Info("store opened", map[string]any{"backend": cfg.Store.Backend})
		return &Store{Rides: st.Rides, Bookings: st.Bookings, Users: st.Users}, nil

	case config.BackendPostgres:
		db, err := NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			return nil, err
		}
		if cfg.Database.Migrate {
			if err := postgres.Migrate(db); err != nil {
				db.Close()
				return nil, err
			}
		}
		log.Info("store opened", map[string]any{
			"backend": cfg.Store.Backend,
			"driver":  driverName(cfg.Database, nrApp),
			"host":    cfg.Database.Host,
			"db":      cfg.Database.DBName,
		})
		return &Store{
			Rides:    postgres.NewRideRepository(db),
			Bookings: postgres.NewBookingRepository(db),
			Users:    postgres.NewUserRepository(db),
			close:    db.Close,
		}, nil

	case config.BackendCSV:
		var opts []csvstore.Option
		if redisClient != nil {
			opts = append(opts, csvstore.WithLocker(internalRedis.NewLockStore(redisClient, cfg.Redis.LockTTL)))
		}
		st := csvstore.Open(cfg.Store.Dir, opts...)
		log.Info("store opened", map[string]any{
			"backend":     cfg.Store.Backend,
			"dir":         cfg.Store.Dir,
			"redis_locks": redisClient != nil,
		})
		return &Store{Rides: st.Rides, Bookings: st.Bookings, Users: st.Users}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
