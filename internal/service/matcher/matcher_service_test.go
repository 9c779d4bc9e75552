package matcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ravi1548/Transport-Facility/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockRideRepository struct {
	mock.Mock
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	args := m.Called(ctx, ride)
	return args.Error(0)
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ride), args.Error(1)
}

func (m *MockRideRepository) ListOpenByDate(ctx context.Context, day domain.Day) ([]domain.Ride, error) {
	args := m.Called(ctx, day)
	return args.Get(0).([]domain.Ride), args.Error(1)
}

func (m *MockRideRepository) ListByOwner(ctx context.Context, ownerID string, day domain.Day) ([]domain.Ride, error) {
	args := m.Called(ctx, ownerID, day)
	return args.Get(0).([]domain.Ride), args.Error(1)
}

func (m *MockRideRepository) ListReservedBy(ctx context.Context, employeeID string, day domain.Day) ([]domain.Ride, error) {
	args := m.Called(ctx, employeeID, day)
	return args.Get(0).([]domain.Ride), args.Error(1)
}

func (m *MockRideRepository) OwnerHasRide(ctx context.Context, ownerID string, day domain.Day) (bool, error) {
	args := m.Called(ctx, ownerID, day)
	return args.Bool(0), args.Error(1)
}

func (m *MockRideRepository) VehicleTagExists(ctx context.Context, vehicleTag string, day domain.Day) (bool, error) {
	args := m.Called(ctx, vehicleTag, day)
	return args.Bool(0), args.Error(1)
}

func (m *MockRideRepository) HasCommitmentAt(ctx context.Context, employeeID string, day domain.Day, at domain.TimeOfDay) (bool, error) {
	args := m.Called(ctx, employeeID, day, at)
	return args.Bool(0), args.Error(1)
}

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Reserve(ctx context.Context, rideID, employeeID string, day domain.Day) error {
	args := m.Called(ctx, rideID, employeeID, day)
	return args.Error(0)
}

func (m *MockBookingRepository) CancelReservation(ctx context.Context, rideID, employeeID string) (bool, error) {
	args := m.Called(ctx, rideID, employeeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) ListByEmployee(ctx context.Context, employeeID string, day domain.Day) ([]domain.Booking, error) {
	args := m.Called(ctx, employeeID, day)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetOpenRides(ctx context.Context, day domain.Day) ([]domain.Ride, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ride), args.Error(1)
}

func (m *MockCache) SetOpenRides(ctx context.Context, day domain.Day, rides []domain.Ride) error {
	args := m.Called(ctx, day, rides)
	return args.Error(0)
}

func (m *MockCache) InvalidateOpenRides(ctx context.Context, day domain.Day) error {
	args := m.Called(ctx, day)
	return args.Error(0)
}

func (m *MockCache) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, rideID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) ReleaseRideLock(ctx context.Context, rideID string) error {
	args := m.Called(ctx, rideID)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

const day = domain.Day("2024-06-15")

func nineAM() domain.TimeOfDay {
	return domain.TimeOfDay{Hour: 9}
}

func openRide(id, ownerID string, seats int, at domain.TimeOfDay, kind domain.VehicleKind) domain.Ride {
	return domain.Ride{
		ID:            id,
		OwnerID:       ownerID,
		VehicleKind:   kind,
		TotalSeats:    seats,
		DepartureTime: at,
		ServiceDate:   day,
		ReservedBy:    []string{},
	}
}

func newService(rides *MockRideRepository, bookings *MockBookingRepository) *MatcherService {
	return NewMatcherService(rides, bookings, nil, nil, zap.NewNop())
}

func TestMatcherService_OpenRides_CacheMiss(t *testing.T) {
	mockRides := &MockRideRepository{}
	mockCache := &MockCache{}

	service := NewMatcherService(mockRides, nil, mockCache, nil, zap.NewNop())

	ctx := context.Background()
	stored := []domain.Ride{openRide("r1", "EMP001", 3, nineAM(), domain.VehicleKindCar)}

	mockCache.On("GetOpenRides", ctx, day).Return(nil, nil).Once()
	mockRides.On("ListOpenByDate", ctx, day).Return(stored, nil).Once()
	mockCache.On("SetOpenRides", ctx, day, stored).Return(nil).Once()

	rides, err := service.OpenRides(ctx, day)

	assert.NoError(t, err)
	assert.Equal(t, stored, rides)
	mockRides.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestMatcherService_OpenRides_CacheHit(t *testing.T) {
	mockRides := &MockRideRepository{}
	mockCache := &MockCache{}

	service := NewMatcherService(mockRides, nil, mockCache, nil, zap.NewNop())

	ctx := context.Background()
	cached := []domain.Ride{openRide("r1", "EMP001", 2, nineAM(), domain.VehicleKindCar)}

	mockCache.On("GetOpenRides", ctx, day).Return(cached, nil).Once()

	rides, err := service.OpenRides(ctx, day)

	assert.NoError(t, err)
	assert.Equal(t, cached, rides)
	mockRides.AssertNotCalled(t, "ListOpenByDate", mock.Anything, mock.Anything)
	mockCache.AssertExpectations(t)
}

func TestMatcherService_CandidatesFor(t *testing.T) {
	mockRides := &MockRideRepository{}

	service := newService(mockRides, nil)

	ctx := context.Background()
	stored := []domain.Ride{
		openRide("own", "EMP001", 3, nineAM(), domain.VehicleKindCar),
		openRide("near", "EMP002", 2, domain.TimeOfDay{Hour: 9, Minute: 30}, domain.VehicleKindCar),
		openRide("far", "EMP003", 2, domain.TimeOfDay{Hour: 15}, domain.VehicleKindBike),
	}
	mockRides.On("ListOpenByDate", ctx, day).Return(stored, nil)

	// 60-minute window around 09:00 keeps only the 09:30 ride.
	candidates, err := service.CandidatesFor(ctx, "EMP001", day, nineAM(), 60)
	assert.NoError(t, err)
	assert.Len(t, candidates, 1)
	assert.Equal(t, "near", candidates[0].ID)

	// A zero window disables time filtering but still excludes own rides.
	candidates, err = service.CandidatesFor(ctx, "EMP001", day, nineAM(), 0)
	assert.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestMatcherService_Search_Filters(t *testing.T) {
	mockRides := &MockRideRepository{}

	service := newService(mockRides, nil)

	ctx := context.Background()
	stored := []domain.Ride{
		openRide("car-9", "EMP001", 3, nineAM(), domain.VehicleKindCar),
		openRide("bike-9", "EMP002", 1, domain.TimeOfDay{Hour: 9, Minute: 15}, domain.VehicleKindBike),
		openRide("car-15", "EMP003", 2, domain.TimeOfDay{Hour: 15}, domain.VehicleKindCar),
	}
	mockRides.On("ListOpenByDate", ctx, day).Return(stored, nil)

	car := domain.VehicleKindCar
	at := nineAM()

	both, err := service.Search(ctx, day, &at, &car)
	assert.NoError(t, err)
	assert.Len(t, both, 1)
	assert.Equal(t, "car-9", both[0].ID)

	kindOnly, err := service.Search(ctx, day, nil, &car)
	assert.NoError(t, err)
	assert.Len(t, kindOnly, 2)

	timeOnly, err := service.Search(ctx, day, &at, nil)
	assert.NoError(t, err)
	assert.Len(t, timeOnly, 2)
}

// An unfiltered search returns a superset of any filtered search.
func TestMatcherService_Search_Monotonicity(t *testing.T) {
	mockRides := &MockRideRepository{}

	service := newService(mockRides, nil)

	ctx := context.Background()
	stored := []domain.Ride{
		openRide("a", "EMP001", 3, nineAM(), domain.VehicleKindCar),
		openRide("b", "EMP002", 1, domain.TimeOfDay{Hour: 11}, domain.VehicleKindBike),
		openRide("c", "EMP003", 2, domain.TimeOfDay{Hour: 22}, domain.VehicleKindCar),
	}
	mockRides.On("ListOpenByDate", ctx, day).Return(stored, nil)

	all, err := service.Search(ctx, day, nil, nil)
	assert.NoError(t, err)

	ids := make(map[string]bool, len(all))
	for _, ride := range all {
		ids[ride.ID] = true
	}

	for _, kind := range []domain.VehicleKind{domain.VehicleKindBike, domain.VehicleKindCar} {
		for _, at := range []domain.TimeOfDay{{Hour: 9}, {Hour: 12, Minute: 30}, {Hour: 23}} {
			k, tm := kind, at
			filtered, err := service.Search(ctx, day, &tm, &k)
			assert.NoError(t, err)
			for _, ride := range filtered {
				assert.True(t, ids[ride.ID], "filtered result %s missing from unfiltered search", ride.ID)
			}
		}
	}
}

func TestMatcherService_Reserve_Success(t *testing.T) {
	mockRides := &MockRideRepository{}
	mockBookings := &MockBookingRepository{}
	mockProducer := &MockProducer{}

	service := NewMatcherService(mockRides, mockBookings, nil, mockProducer, zap.NewNop(), WithRideTopic("ride_events"))

	ctx := context.Background()
	ride := openRide("r1", "EMP001", 3, nineAM(), domain.VehicleKindCar)

	mockRides.On("GetByID", ctx, "r1").Return(&ride, nil).Once()
	mockRides.On("HasCommitmentAt", ctx, "EMP002", day, nineAM()).Return(false, nil).Once()
	mockBookings.On("Reserve", ctx, "r1", "EMP002", day).Return(nil).Once()
	mockProducer.On("Publish", ctx, "ride_events", "r1", mock.Anything).Return(nil).Once()

	updated, err := service.Reserve(ctx, "r1", "EMP002", day)

	assert.NoError(t, err)
	assert.Equal(t, 2, updated.TotalSeats)
	assert.Contains(t, updated.ReservedBy, "EMP002")
	mockRides.AssertExpectations(t)
	mockBookings.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestMatcherService_Reserve_RideNotFound(t *testing.T) {
	mockRides := &MockRideRepository{}

	service := newService(mockRides, nil)

	ctx := context.Background()
	mockRides.On("GetByID", ctx, "missing").Return(nil, pgx.ErrNoRows).Once()

	_, err := service.Reserve(ctx, "missing", "EMP002", day)

	assert.ErrorIs(t, err, ErrRideNotFound)
	mockRides.AssertExpectations(t)
}

func TestMatcherService_Reserve_OtherDayRideIsNotFound(t *testing.T) {
	mockRides := &MockRideRepository{}

	service := newService(mockRides, nil)

	ctx := context.Background()
	stale := openRide("r1", "EMP001", 3, nineAM(), domain.VehicleKindCar)
	stale.ServiceDate = domain.Day("2024-06-14")

	mockRides.On("GetByID", ctx, "r1").Return(&stale, nil).Once()

	_, err := service.Reserve(ctx, "r1", "EMP002", day)

	assert.ErrorIs(t, err, ErrRideNotFound)
}

// Scenario: the owner cannot take a seat on their own ride.
func TestMatcherService_Reserve_OwnRide(t *testing.T) {
	mockRides := &MockRideRepository{}
	mockBookings := &MockBookingRepository{}

	service := newService(mockRides, mockBookings)

	ctx := context.Background()
	ride := openRide("r1", "EMP001", 3, nineAM(), domain.VehicleKindCar)

	mockRides.On("GetByID", ctx, "r1").Return(&ride, nil).Once()

	_, err := service.Reserve(ctx, "r1", "EMP001", day)

	assert.ErrorIs(t, err, ErrOwnRide)
	mockBookings.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Scenario: a second reservation by the same employee is rejected.
func TestMatcherService_Reserve_AlreadyReserved(t *testing.T) {
	mockRides := &MockRideRepository{}
	mockBookings := &MockBookingRepository{}

	service := newService(mockRides, mockBookings)

	ctx := context.Background()
	ride := openRide("r1", "EMP001", 2, nineAM(), domain.VehicleKindCar)
	ride.ReservedBy = []string{"EMP002"}

	mockRides.On("GetByID", ctx, "r1").Return(&ride, nil).Once()

	_, err := service.Reserve(ctx, "r1", "EMP002", day)

	assert.ErrorIs(t, err, ErrAlreadyReserved)
	mockBookings.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Scenario: a full ride rejects further reservations.
func TestMatcherService_Reserve_NoSeats(t *testing.T) {
	mockRides := &MockRideRepository{}
	mockBookings := &MockBookingRepository{}

	service := newService(mockRides, mockBookings)

	ctx := context.Background()
	ride := openRide("r1", "EMP001", 0, nineAM(), domain.VehicleKindCar)
	ride.ReservedBy = []string{"EMP002", "EMP003", "EMP004"}

	mockRides.On("GetByID", ctx, "r1").Return(&ride, nil).Once()

	_, err := service.Reserve(ctx, "r1", "EMP005", day)

	assert.ErrorIs(t, err, ErrNoSeats)
	mockBookings.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Scenario: an employee committed elsewhere at the same departure time
// cannot reserve.
func TestMatcherService_Reserve_TimeConflict(t *testing.T) {
	mockRides := &MockRideRepository{}
	mockBookings := &MockBookingRepository{}

	service := newService(mockRides, mockBookings)

	ctx := context.Background()
	ride := openRide("s1", "EMP009", 2, nineAM(), domain.VehicleKindCar)

	mockRides.On("GetByID", ctx, "s1").Return(&ride, nil).Once()
	mockRides.On("HasCommitmentAt", ctx, "EMP004", day, nineAM()).Return(true, nil).Once()

	_, err := service.Reserve(ctx, "s1", "EMP004", day)

	assert.ErrorIs(t, err, ErrTimeConflict)
	mockBookings.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMatcherService_Reserve_LockHeld(t *testing.T) {
	mockRides := &MockRideRepository{}
	mockCache := &MockCache{}

	service := NewMatcherService(mockRides, nil, mockCache, nil, zap.NewNop())

	ctx := context.Background()
	mockCache.On("AcquireRideLock", ctx, "r1", mock.Anything).Return(false, nil).Once()

	_, err := service.Reserve(ctx, "r1", "EMP002", day)

	assert.ErrorIs(t, err, ErrRideBusy)
	mockRides.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	mockCache.AssertExpectations(t)
}

// Seat conservation: reserve then cancel restores the seat count, and
// a second cancel is a reported no-op.
func TestMatcherService_ReserveThenCancel(t *testing.T) {
	mockRides := &MockRideRepository{}
	mockBookings := &MockBookingRepository{}

	service := newService(mockRides, mockBookings)

	ctx := context.Background()
	ride := openRide("r1", "EMP001", 3, nineAM(), domain.VehicleKindCar)

	mockRides.On("GetByID", ctx, "r1").Return(&ride, nil)
	mockRides.On("HasCommitmentAt", ctx, "EMP005", day, nineAM()).Return(false, nil).Once()
	mockBookings.On("Reserve", ctx, "r1", "EMP005", day).Return(nil).Once()

	reserved, err := service.Reserve(ctx, "r1", "EMP005", day)
	assert.NoError(t, err)
	assert.Equal(t, 2, reserved.TotalSeats)

	mockBookings.On("CancelReservation", ctx, "r1", "EMP005").Return(true, nil).Once()
	assert.NoError(t, service.Cancel(ctx, "r1", "EMP005", day))

	// Second cancel finds no reservation to undo.
	mockBookings.On("CancelReservation", ctx, "r1", "EMP005").Return(false, nil).Once()
	assert.ErrorIs(t, service.Cancel(ctx, "r1", "EMP005", day), ErrNotReserved)

	mockBookings.AssertExpectations(t)
}

func TestMatcherService_Cancel_NotReserved(t *testing.T) {
	mockRides := &MockRideRepository{}
	mockBookings := &MockBookingRepository{}

	service := newService(mockRides, mockBookings)

	ctx := context.Background()
	ride := openRide("r1", "EMP001", 3, nineAM(), domain.VehicleKindCar)

	mockRides.On("GetByID", ctx, "r1").Return(&ride, nil).Once()
	mockBookings.On("CancelReservation", ctx, "r1", "EMP007").Return(false, nil).Once()

	err := service.Cancel(ctx, "r1", "EMP007", day)

	assert.ErrorIs(t, err, ErrNotReserved)
	mockBookings.AssertExpectations(t)
}

func TestMatcherService_Reserve_StorageFault(t *testing.T) {
	mockRides := &MockRideRepository{}
	mockBookings := &MockBookingRepository{}

	service := newService(mockRides, mockBookings)

	ctx := context.Background()
	ride := openRide("r1", "EMP001", 3, nineAM(), domain.VehicleKindCar)

	mockRides.On("GetByID", ctx, "r1").Return(&ride, nil).Once()
	mockRides.On("HasCommitmentAt", ctx, "EMP002", day, nineAM()).Return(false, nil).Once()
	mockBookings.On("Reserve", ctx, "r1", "EMP002", day).Return(errors.New("connection reset")).Once()

	_, err := service.Reserve(ctx, "r1", "EMP002", day)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSeats)
}

func TestMatcherService_BookedRides(t *testing.T) {
	mockRides := &MockRideRepository{}

	service := newService(mockRides, nil)

	ctx := context.Background()
	ride := openRide("r1", "EMP001", 2, nineAM(), domain.VehicleKindCar)
	ride.ReservedBy = []string{"EMP002"}

	mockRides.On("ListReservedBy", ctx, "EMP002", day).Return([]domain.Ride{ride}, nil).Once()

	rides, err := service.BookedRides(ctx, "EMP002", day)

	assert.NoError(t, err)
	assert.Len(t, rides, 1)
	mockRides.AssertExpectations(t)
}
