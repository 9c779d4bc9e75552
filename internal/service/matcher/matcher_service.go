package matcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ravi1548/Transport-Facility/internal/domain"
	"github.com/Ravi1548/Transport-Facility/internal/kafka"
	"github.com/Ravi1548/Transport-Facility/internal/repository"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	ErrRideNotFound    = errors.New("ride not found")
	ErrOwnRide         = errors.New("cannot reserve own ride")
	ErrAlreadyReserved = errors.New("ride already reserved by employee")
	ErrNoSeats         = errors.New("no vacant seats available")
	ErrTimeConflict    = errors.New("employee already has a ride at this time")
	ErrNotReserved     = errors.New("employee has no reservation on this ride")
	ErrRideBusy        = errors.New("ride is being updated, try again")
)

type MatcherUseCase interface {
	OpenRides(ctx context.Context, day domain.Day) ([]domain.Ride, error)
	CandidatesFor(ctx context.Context, employeeID string, day domain.Day, now domain.TimeOfDay, windowMinutes int) ([]domain.Ride, error)
	Search(ctx context.Context, day domain.Day, searchTime *domain.TimeOfDay, kind *domain.VehicleKind) ([]domain.Ride, error)
	Reserve(ctx context.Context, rideID, employeeID string, day domain.Day) (*domain.Ride, error)
	Cancel(ctx context.Context, rideID, employeeID string, day domain.Day) error
	BookedRides(ctx context.Context, employeeID string, day domain.Day) ([]domain.Ride, error)
}

type Cache interface {
	GetOpenRides(ctx context.Context, day domain.Day) ([]domain.Ride, error)
	SetOpenRides(ctx context.Context, day domain.Day, rides []domain.Ride) error
	InvalidateOpenRides(ctx context.Context, day domain.Day) error
	AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error)
	ReleaseRideLock(ctx context.Context, rideID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// MatcherService owns discovery and reservation: listing today's open
// rides, filtering them for a passenger, and the reserve/cancel pair
// that keeps the ride's seat count and the booking ledger in step.
type MatcherService struct {
	rides     repository.RideRepository
	bookings  repository.BookingRepository
	cache     Cache
	producer  Producer
	rideTopic string
	lockTTL   time.Duration
	logger    *zap.Logger
}

type MatcherServiceOption func(*MatcherService)

func WithRideTopic(topic string) MatcherServiceOption {
	return func(s *MatcherService) {
		s.rideTopic = topic
	}
}

func WithLockTTL(ttl time.Duration) MatcherServiceOption {
	return func(s *MatcherService) {
		s.lockTTL = ttl
	}
}

func NewMatcherService(rides repository.RideRepository, bookings repository.BookingRepository, cache Cache, producer Producer, logger *zap.Logger, opts ...MatcherServiceOption) *MatcherService {
	service := &MatcherService{
		rides:    rides,
		bookings: bookings,
		cache:    cache,
		producer: producer,
		lockTTL:  10 * time.Second,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// OpenRides lists the date's rides that still have a vacant seat, in
// storage order.
func (s *MatcherService) OpenRides(ctx context.Context, day domain.Day) ([]domain.Ride, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetOpenRides(ctx, day); err == nil && cached != nil {
			return cached, nil
		}
	}

	rides, err := s.rides.ListOpenByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list open rides: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetOpenRides(ctx, day, rides); err != nil {
			s.logger.Warn("set open rides cache", zap.Error(err))
		}
	}
	return rides, nil
}

// CandidatesFor lists the open rides an employee could reserve: not
// their own, and when windowMinutes > 0, departing within that many
// minutes of now. windowMinutes == 0 disables the time filter.
func (s *MatcherService) CandidatesFor(ctx context.Context, employeeID string, day domain.Day, now domain.TimeOfDay, windowMinutes int) ([]domain.Ride, error) {
	open, err := s.OpenRides(ctx, day)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Ride, 0, len(open))
	for _, ride := range open {
		if ride.OwnerID == employeeID {
			continue
		}
		if windowMinutes > 0 && !domain.WithinWindow(ride.DepartureTime, now, windowMinutes) {
			continue
		}
		candidates = append(candidates, ride)
	}
	return candidates, nil
}

// Search filters the date's open rides by exact vehicle kind and by
// the default 60-minute window around searchTime. A nil filter means
// no constraint on that dimension.
func (s *MatcherService) Search(ctx context.Context, day domain.Day, searchTime *domain.TimeOfDay, kind *domain.VehicleKind) ([]domain.Ride, error) {
	open, err := s.OpenRides(ctx, day)
	if err != nil {
		return nil, err
	}

	matched := make([]domain.Ride, 0, len(open))
	for _, ride := range open {
		if kind != nil && ride.VehicleKind != *kind {
			continue
		}
		if searchTime != nil && !domain.WithinWindow(ride.DepartureTime, *searchTime, domain.DefaultSearchWindowMinutes) {
			continue
		}
		matched = append(matched, ride)
	}
	return matched, nil
}

// Reserve books one seat for the employee. Checks run in order and the
// first failure wins; the seat decrement and the booking record are
// then written in a single transaction.
func (s *MatcherService) Reserve(ctx context.Context, rideID, employeeID string, day domain.Day) (*domain.Ride, error) {
	unlock, err := s.lockRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ride, err := s.getRideForDay(ctx, rideID, day)
	if err != nil {
		return nil, err
	}
	if ride.OwnerID == employeeID {
		return nil, ErrOwnRide
	}
	if ride.HasReserved(employeeID) {
		return nil, ErrAlreadyReserved
	}
	if ride.TotalSeats <= 0 {
		return nil, ErrNoSeats
	}

	conflict, err := s.rides.HasCommitmentAt(ctx, employeeID, day, ride.DepartureTime)
	if err != nil {
		return nil, fmt.Errorf("check time conflict: %w", err)
	}
	if conflict {
		return nil, ErrTimeConflict
	}

	if err := s.bookings.Reserve(ctx, rideID, employeeID, day); err != nil {
		if errors.Is(err, repository.ErrSeatUnavailable) {
			return nil, ErrNoSeats
		}
		return nil, fmt.Errorf("reserve seat: %w", err)
	}

	ride.ReservedBy = append(ride.ReservedBy, employeeID)
	ride.TotalSeats--

	if s.cache != nil {
		if err := s.cache.InvalidateOpenRides(ctx, day); err != nil {
			s.logger.Warn("invalidate open rides cache", zap.Error(err))
		}
	}
	s.publishEvent(ctx, kafka.EventSeatReserved, ride, employeeID)

	return ride, nil
}

// Cancel releases the employee's seat and removes the matching booking
// records. Cancelling a reservation that does not exist is a no-op and
// reported as ErrNotReserved.
func (s *MatcherService) Cancel(ctx context.Context, rideID, employeeID string, day domain.Day) error {
	unlock, err := s.lockRide(ctx, rideID)
	if err != nil {
		return err
	}
	defer unlock()

	ride, err := s.getRideForDay(ctx, rideID, day)
	if err != nil {
		return err
	}

	cancelled, err := s.bookings.CancelReservation(ctx, rideID, employeeID)
	if err != nil {
		return fmt.Errorf("cancel reservation: %w", err)
	}
	if !cancelled {
		return ErrNotReserved
	}

	ride.TotalSeats++
	if s.cache != nil {
		if err := s.cache.InvalidateOpenRides(ctx, day); err != nil {
			s.logger.Warn("invalidate open rides cache", zap.Error(err))
		}
	}
	s.publishEvent(ctx, kafka.EventBookingCancelled, ride, employeeID)

	return nil
}

func (s *MatcherService) BookedRides(ctx context.Context, employeeID string, day domain.Day) ([]domain.Ride, error) {
	return s.rides.ListReservedBy(ctx, employeeID, day)
}

func (s *MatcherService) getRideForDay(ctx context.Context, rideID string, day domain.Day) (*domain.Ride, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRideNotFound
		}
		return nil, fmt.Errorf("get ride: %w", err)
	}
	// A ride dated any other day does not exist as far as matching is
	// concerned.
	if ride.ServiceDate != day {
		return nil, ErrRideNotFound
	}
	return ride, nil
}

func (s *MatcherService) lockRide(ctx context.Context, rideID string) (func(), error) {
	if s.cache == nil {
		return func() {}, nil
	}
	ok, err := s.cache.AcquireRideLock(ctx, rideID, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire ride lock: %w", err)
	}
	if !ok {
		return nil, ErrRideBusy
	}
	return func() {
		if err := s.cache.ReleaseRideLock(ctx, rideID); err != nil {
			s.logger.Warn("release ride lock", zap.String("ride_id", rideID), zap.Error(err))
		}
	}, nil
}

func (s *MatcherService) publishEvent(ctx context.Context, eventType string, ride *domain.Ride, employeeID string) {
	if s.producer == nil || s.rideTopic == "" {
		return
	}
	event := kafka.RideEvent{
		Type:          eventType,
		RideID:        ride.ID,
		EmployeeID:    employeeID,
		VehicleKind:   string(ride.VehicleKind),
		ServiceDate:   ride.ServiceDate.String(),
		DepartureTime: ride.DepartureTime.String(),
		SeatsLeft:     ride.TotalSeats,
	}
	if err := s.producer.Publish(ctx, s.rideTopic, ride.ID, event); err != nil {
		s.logger.Warn("publish ride event", zap.String("type", eventType), zap.String("ride_id", ride.ID), zap.Error(err))
	}
}

var _ MatcherUseCase = (*MatcherService)(nil)
