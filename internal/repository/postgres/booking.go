package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const bookingColumns = `id, ride_id, user_id, origin, destination, ride_date, ride_time, price, booked_at, reviews`

type bookingRow struct {
	ID          string    `db:"id"`
	RideID      string    `db:"ride_id"`
	UserID      string    `db:"user_id"`
	Origin      string    `db:"origin"`
	Destination string    `db:"destination"`
	Date        string    `db:"ride_date"`
	Time        string    `db:"ride_time"`
	Price       float64   `db:"price"`
	BookedAt    time.Time `db:"booked_at"`
	Reviews     string    `db:"reviews"`
}

func (b bookingRow) toDomain() domain.Booking {
	return domain.Booking{
		ID:          b.ID,
		RideID:      b.RideID,
		UserID:      b.UserID,
		Origin:      b.Origin,
		Destination: b.Destination,
		Date:        b.Date,
		Time:        b.Time,
		Price:       b.Price,
		BookedAt:    b.BookedAt,
		Reviews:     b.Reviews,
	}
}

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// List returns every booking in insertion order.
func (r *BookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	return listBookings(ctx, r.db, `SELECT `+bookingColumns+` FROM bookings ORDER BY seq`)
}

// lockBookingsQuery selects and row-locks the candidates for match, using
// bookings_ride_id_idx when the match is limited to one ride.
func lockBookingsQuery(match repository.BookingMatch) (string, []any) {
	if match.RideID != "" {
		return `SELECT ` + bookingColumns + ` FROM bookings WHERE ride_id = $1 ORDER BY seq FOR UPDATE`, []any{match.RideID}
	}
	return `SELECT ` + bookingColumns + ` FROM bookings ORDER BY seq FOR UPDATE`, nil
}

func listBookings(ctx context.Context, q Querier, query string, args ...any) ([]domain.Booking, error) {
	var rows []bookingRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	bookings := make([]domain.Booking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, row.toDomain())
	}
	return bookings, nil
}

// Append persists a new booking.
func (r *BookingRepository) Append(ctx context.Context, b domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	bookedAt := b.BookedAt
	if bookedAt.IsZero() {
		bookedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.RideID, b.UserID, b.Origin, b.Destination, b.Date, b.Time, b.Price, bookedAt, b.Reviews,
	)
	if isUniqueViolation(err) {
		return repository.ErrAlreadyExists
	}
	return err
}

// Update applies mutate to the bookings selected by match and scope in one transaction.
func (r *BookingRepository) Update(ctx context.Context, match repository.BookingMatch, mutate func(*domain.Booking), scope repository.Scope) (int, error) {
	changed := 0
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query, args := lockBookingsQuery(match)
		bookings, err := listBookings(ctx, tx, query, args...)
		if err != nil {
			return err
		}

		for i := range bookings {
			if !match.Match(bookings[i]) {
				continue
			}
			mutate(&bookings[i])
			b := bookings[i]
			if _, err := tx.ExecContext(ctx, `
				UPDATE bookings
				SET ride_id = $1, user_id = $2, origin = $3, destination = $4, ride_date = $5,
					ride_time = $6, price = $7, reviews = $8
				WHERE id = $9
			`, b.RideID, b.UserID, b.Origin, b.Destination, b.Date, b.Time, b.Price, b.Reviews, b.ID); err != nil {
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
