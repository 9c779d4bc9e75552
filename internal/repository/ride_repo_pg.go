package repository

import (
	"context"
	"time"

	"github.com/Ravi1548/Transport-Facility/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RideRepository interface {
	Create(ctx context.Context, ride *domain.Ride) error
	GetByID(ctx context.Context, id string) (*domain.Ride, error)
	ListOpenByDate(ctx context.Context, day domain.Day) ([]domain.Ride, error)
	ListByOwner(ctx context.Context, ownerID string, day domain.Day) ([]domain.Ride, error)
	ListReservedBy(ctx context.Context, employeeID string, day domain.Day) ([]domain.Ride, error)
	OwnerHasRide(ctx context.Context, ownerID string, day domain.Day) (bool, error)
	VehicleTagExists(ctx context.Context, vehicleTag string, day domain.Day) (bool, error)
	HasCommitmentAt(ctx context.Context, employeeID string, day domain.Day, at domain.TimeOfDay) (bool, error)
}

type PGRideRepository struct {
	db *pgxpool.Pool
}

func NewRideRepository(db *pgxpool.Pool) RideRepository {
	return &PGRideRepository{db: db}
}

const rideColumns = `id, owner_id, vehicle_kind, vehicle_tag, total_seats, departure_time, service_date, pickup_point, destination, reserved_by, created_at, updated_at`

func (r *PGRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	return r.db.QueryRow(ctx, `INSERT INTO rides (id, owner_id, vehicle_kind, vehicle_tag, total_seats, departure_time, service_date, pickup_point, destination, reserved_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		ride.ID, ride.OwnerID, string(ride.VehicleKind), ride.VehicleTag, ride.TotalSeats,
		ride.DepartureTime.String(), ride.ServiceDate.String(), ride.PickupPoint, ride.Destination, ride.ReservedBy).
		Scan(&ride.CreatedAt, &ride.UpdatedAt)
}

func (r *PGRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	row := r.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id=$1`, id)
	ride, err := scanRide(row)
	if err != nil {
		return nil, err
	}
	return ride, nil
}

func (r *PGRideRepository) ListOpenByDate(ctx context.Context, day domain.Day) ([]domain.Ride, error) {
	return r.list(ctx, `SELECT `+rideColumns+` FROM rides WHERE service_date=$1 AND total_seats > 0 ORDER BY created_at`, day.String())
}

func (r *PGRideRepository) ListByOwner(ctx context.Context, ownerID string, day domain.Day) ([]domain.Ride, error) {
	return r.list(ctx, `SELECT `+rideColumns+` FROM rides WHERE service_date=$1 AND owner_id=$2 ORDER BY created_at`, day.String(), ownerID)
}

func (r *PGRideRepository) ListReservedBy(ctx context.Context, employeeID string, day domain.Day) ([]domain.Ride, error) {
	return r.list(ctx, `SELECT `+rideColumns+` FROM rides WHERE service_date=$1 AND $2 = ANY(reserved_by) ORDER BY created_at`, day.String(), employeeID)
}

func (r *PGRideRepository) OwnerHasRide(ctx context.Context, ownerID string, day domain.Day) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE service_date=$1 AND owner_id=$2)`, day.String(), ownerID).Scan(&exists)
	return exists, err
}

func (r *PGRideRepository) VehicleTagExists(ctx context.Context, vehicleTag string, day domain.Day) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE service_date=$1 AND lower(vehicle_tag)=lower($2))`, day.String(), vehicleTag).Scan(&exists)
	return exists, err
}

func (r *PGRideRepository) HasCommitmentAt(ctx context.Context, employeeID string, day domain.Day, at domain.TimeOfDay) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE service_date=$1 AND departure_time=$2 AND (owner_id=$3 OR $3 = ANY(reserved_by)))`,
		day.String(), at.String(), employeeID).Scan(&exists)
	return exists, err
}

func (r *PGRideRepository) list(ctx context.Context, query string, args ...any) ([]domain.Ride, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rides := make([]domain.Ride, 0)
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, *ride)
	}
	return rides, rows.Err()
}

func scanRide(row pgx.Row) (*domain.Ride, error) {
	var (
		ride        domain.Ride
		kind        string
		departure   string
		serviceDate time.Time
	)
	if err := row.Scan(&ride.ID, &ride.OwnerID, &kind, &ride.VehicleTag, &ride.TotalSeats,
		&departure, &serviceDate, &ride.PickupPoint, &ride.Destination, &ride.ReservedBy,
		&ride.CreatedAt, &ride.UpdatedAt); err != nil {
		return nil, err
	}
	ride.VehicleKind = domain.VehicleKind(kind)
	parsed, err := domain.ParseTimeOfDay(departure)
	if err != nil {
		return nil, err
	}
	ride.DepartureTime = parsed
	ride.ServiceDate = domain.DayOf(serviceDate)
	if ride.ReservedBy == nil {
		ride.ReservedBy = []string{}
	}
	return &ride, nil
}

var _ RideRepository = (*PGRideRepository)(nil)
