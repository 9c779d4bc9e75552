package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ravi1548/Transport-Facility/internal/domain"
	"github.com/Ravi1548/Transport-Facility/internal/kafka"
	"github.com/Ravi1548/Transport-Facility/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAlreadyPublished = errors.New("employee already has a ride today")
	ErrTimeConflict     = errors.New("employee already has a ride at this time")
	ErrVehicleTagTaken  = errors.New("vehicle is already registered for a ride today")
)

type LedgerUseCase interface {
	Publish(ctx context.Context, input PublishRideInput) (*domain.Ride, error)
	HasPublishedToday(ctx context.Context, employeeID string, day domain.Day) (bool, error)
	CanPublishToday(ctx context.Context, employeeID string, day domain.Day) (bool, error)
	MyRides(ctx context.Context, employeeID string, day domain.Day) ([]domain.Ride, error)
}

type Cache interface {
	InvalidateOpenRides(ctx context.Context, day domain.Day) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type PublishRideInput struct {
	OwnerID       string
	VehicleKind   domain.VehicleKind
	VehicleTag    string
	TotalSeats    int
	DepartureTime domain.TimeOfDay
	ServiceDate   domain.Day
	PickupPoint   string
	Destination   string
}

// LedgerService owns the ride lifecycle: one published ride per
// employee per day, no overlapping commitments, one plate per day.
// Seat bounds per vehicle kind are validated by the API layer before
// the input reaches the ledger.
type LedgerService struct {
	rides     repository.RideRepository
	cache     Cache
	producer  Producer
	rideTopic string
	logger    *zap.Logger
}

type LedgerServiceOption func(*LedgerService)

func WithRideTopic(topic string) LedgerServiceOption {
	return func(s *LedgerService) {
		s.rideTopic = topic
	}
}

func NewLedgerService(rides repository.RideRepository, cache Cache, producer Producer, logger *zap.Logger, opts ...LedgerServiceOption) *LedgerService {
	service := &LedgerService{
		rides:    rides,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *LedgerService) Publish(ctx context.Context, input PublishRideInput) (*domain.Ride, error) {
	published, err := s.rides.OwnerHasRide(ctx, input.OwnerID, input.ServiceDate)
	if err != nil {
		return nil, fmt.Errorf("check published ride: %w", err)
	}
	if published {
		return nil, ErrAlreadyPublished
	}

	conflict, err := s.rides.HasCommitmentAt(ctx, input.OwnerID, input.ServiceDate, input.DepartureTime)
	if err != nil {
		return nil, fmt.Errorf("check time conflict: %w", err)
	}
	if conflict {
		return nil, ErrTimeConflict
	}

	taken, err := s.rides.VehicleTagExists(ctx, input.VehicleTag, input.ServiceDate)
	if err != nil {
		return nil, fmt.Errorf("check vehicle tag: %w", err)
	}
	if taken {
		return nil, ErrVehicleTagTaken
	}

	ride := &domain.Ride{
		ID:            uuid.NewString(),
		OwnerID:       input.OwnerID,
		VehicleKind:   input.VehicleKind,
		VehicleTag:    input.VehicleTag,
		TotalSeats:    input.TotalSeats,
		DepartureTime: input.DepartureTime,
		ServiceDate:   input.ServiceDate,
		PickupPoint:   input.PickupPoint,
		Destination:   input.Destination,
		ReservedBy:    []string{},
	}

	if err := s.rides.Create(ctx, ride); err != nil {
		return nil, fmt.Errorf("create ride: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateOpenRides(ctx, ride.ServiceDate); err != nil {
			s.logger.Warn("invalidate open rides cache", zap.Error(err))
		}
	}
	s.publishEvent(ctx, kafka.EventRidePublished, ride, ride.OwnerID)

	return ride, nil
}

func (s *LedgerService) HasPublishedToday(ctx context.Context, employeeID string, day domain.Day) (bool, error) {
	return s.rides.OwnerHasRide(ctx, employeeID, day)
}

func (s *LedgerService) CanPublishToday(ctx context.Context, employeeID string, day domain.Day) (bool, error) {
	published, err := s.HasPublishedToday(ctx, employeeID, day)
	if err != nil {
		return false, err
	}
	return !published, nil
}

func (s *LedgerService) MyRides(ctx context.Context, employeeID string, day domain.Day) ([]domain.Ride, error) {
	return s.rides.ListByOwner(ctx, employeeID, day)
}

func (s *LedgerService) publishEvent(ctx context.Context, eventType string, ride *domain.Ride, employeeID string) {
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

var _ LedgerUseCase = (*LedgerService)(nil)
