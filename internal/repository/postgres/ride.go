package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const rideColumns = `id, user_id, origin, destination, ride_date, ride_time, seats_available, price, vehicle, status, review, created_at`

type rideRow struct {
	ID             string    `db:"id"`
	UserID         string    `db:"user_id"`
	Origin         string    `db:"origin"`
	Destination    string    `db:"destination"`
	Date           string    `db:"ride_date"`
	Time           string    `db:"ride_time"`
	SeatsAvailable int       `db:"seats_available"`
	Price          float64   `db:"price"`
	Vehicle        string    `db:"vehicle"`
	Status         string    `db:"status"`
	Review         string    `db:"review"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r rideRow) toDomain() domain.Ride {
	return domain.Ride{
		ID:             r.ID,
		UserID:         r.UserID,
		Origin:         r.Origin,
		Destination:    r.Destination,
		Date:           r.Date,
		Time:           r.Time,
		SeatsAvailable: r.SeatsAvailable,
		Price:          r.Price,
		Vehicle:        r.Vehicle,
		Status:         domain.RideStatus(r.Status),
		Review:         r.Review,
		CreatedAt:      r.CreatedAt,
	}
}

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
// Rows are returned in insertion order, like the CSV table.
type RideRepository struct {
	db *sqlx.DB
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sqlx.DB) *RideRepository {
	return &RideRepository{db: db}
}

// List returns every ride in insertion order.
func (r *RideRepository) List(ctx context.Context) ([]domain.Ride, error) {
	return listRides(ctx, r.db, `SELECT `+rideColumns+` FROM rides ORDER BY seq`)
}

// lockRidesQuery selects and row-locks the candidates for match. A keyed
// match locks only its own row through the unique index on id.
func lockRidesQuery(match repository.RideMatch) (string, []any) {
	if match.ID != "" {
		return `SELECT ` + rideColumns + ` FROM rides WHERE id = $1 ORDER BY seq FOR UPDATE`, []any{match.ID}
	}
	return `SELECT ` + rideColumns + ` FROM rides ORDER BY seq FOR UPDATE`, nil
}

func listRides(ctx context.Context, q Querier, query string, args ...any) ([]domain.Ride, error) {
	var rows []rideRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	rides := make([]domain.Ride, 0, len(rows))
	for _, row := range rows {
		rides = append(rides, row.toDomain())
	}
	return rides, nil
}

// Append persists a new ride.
func (r *RideRepository) Append(ctx context.Context, ride domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	createdAt := ride.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		ride.ID,
		ride.UserID,
		ride.Origin,
		ride.Destination,
		ride.Date,
		ride.Time,
		ride.SeatsAvailable,
		ride.Price,
		ride.Vehicle,
		string(ride.Status),
		ride.Review,
		createdAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrAlreadyExists
	}
	return err
}

// Update locks the candidate rows, applies mutate to the matches selected by
// scope and writes them back in one transaction.
func (r *RideRepository) Update(ctx context.Context, match repository.RideMatch, mutate func(*domain.Ride), scope repository.Scope) (int, error) {
	changed := 0
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query, args := lockRidesQuery(match)
		rides, err := listRides(ctx, tx, query, args...)
		if err != nil {
			return err
		}

		for i := range rides {
			if !match.Match(rides[i]) {
				continue
			}
			mutate(&rides[i])
			if err := updateRide(ctx, tx, rides[i]); err != nil {
				return err
			}
			changed++
			if scope == repository.First {
				break
			}
		}
		if changed == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func updateRide(ctx context.Context, q Querier, ride domain.Ride) error {
	query := `
		UPDATE rides
		SET user_id = $1, origin = $2, destination = $3, ride_date = $4, ride_time = $5,
			seats_available = $6, price = $7, vehicle = $8, status = $9, review = $10
		WHERE id = $11
	`
	_, err := q.ExecContext(ctx, query,
		ride.UserID,
		ride.Origin,
		ride.Destination,
		ride.Date,
		ride.Time,
		ride.SeatsAvailable,
		ride.Price,
		ride.Vehicle,
		string(ride.Status),
		ride.Review,
		ride.ID,
	)
	return err
}
