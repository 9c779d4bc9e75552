package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Ravi1548/Transport-Facility/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSeatUnavailable is returned when the reservation guard fails at
// write time: the ride vanished, filled up, or the employee is already
// on it. The service layer normally catches these earlier; this is the
// last line of defense inside the transaction.
var ErrSeatUnavailable = errors.New("ride has no vacant seat for this employee")

type BookingRepository interface {
	Reserve(ctx context.Context, rideID, employeeID string, day domain.Day) error
	CancelReservation(ctx context.Context, rideID, employeeID string) (bool, error)
	ListByEmployee(ctx context.Context, employeeID string, day domain.Day) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

// Reserve applies the seat decrement and the booking insert as one
// transaction, so the two collections can never diverge.
func (r *PGBookingRepository) Reserve(ctx context.Context, rideID, employeeID string, day domain.Day) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var remaining int
	err = tx.QueryRow(ctx, `UPDATE rides
		SET total_seats = total_seats - 1, reserved_by = array_append(reserved_by, $2), updated_at = now()
		WHERE id=$1 AND total_seats > 0 AND NOT ($2 = ANY(reserved_by))
		RETURNING total_seats`, rideID, employeeID).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSeatUnavailable
		}
		return err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO bookings (ride_id, employee_id, booking_date) VALUES ($1, $2, $3)`,
		rideID, employeeID, day.String()); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CancelReservation undoes a reservation in one transaction. It
// reports false when the employee never held a seat on the ride.
func (r *PGBookingRepository) CancelReservation(ctx context.Context, rideID, employeeID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `UPDATE rides
		SET total_seats = total_seats + 1, reserved_by = array_remove(reserved_by, $2), updated_at = now()
		WHERE id=$1 AND $2 = ANY(reserved_by)`, rideID, employeeID)
	if err != nil {
		return false, err
	}
	if res.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM bookings WHERE ride_id=$1 AND employee_id=$2`, rideID, employeeID); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

func (r *PGBookingRepository) ListByEmployee(ctx context.Context, employeeID string, day domain.Day) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT id, ride_id, employee_id, booking_date, created_at FROM bookings WHERE employee_id=$1 AND booking_date=$2 ORDER BY created_at`,
		employeeID, day.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var (
			b           domain.Booking
			bookingDate time.Time
		)
		if err := rows.Scan(&b.ID, &b.RideID, &b.EmployeeID, &bookingDate, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.BookingDate = domain.DayOf(bookingDate)
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
