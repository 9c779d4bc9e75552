package api

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/Ravi1548/Transport-Facility/internal/domain"
	"github.com/Ravi1548/Transport-Facility/internal/service/ledger"
	"github.com/Ravi1548/Transport-Facility/internal/service/matcher"
	"github.com/gin-gonic/gin"
)

// vehicleTagPattern matches Indian plate numbers, e.g. DL01AB1234.
var vehicleTagPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z]{1,2}[0-9]{4}$`)

type RideHandler struct {
	ledger        ledger.LedgerUseCase
	matcher       matcher.MatcherUseCase
	defaultWindow int
	clock         func() time.Time
}

type publishRideRequest struct {
	VehicleKind string `json:"vehicle_kind"`
	VehicleTag  string `json:"vehicle_tag"`
	TotalSeats  int    `json:"total_seats"`
	Time        string `json:"time"`
	PickupPoint string `json:"pickup_point"`
	Destination string `json:"destination"`
}

type rideResponse struct {
	ID            string   `json:"id"`
	OwnerID       string   `json:"owner_id"`
	VehicleKind   string   `json:"vehicle_kind"`
	VehicleTag    string   `json:"vehicle_tag"`
	VacantSeats   int      `json:"vacant_seats"`
	DepartureTime string   `json:"departure_time"`
	ServiceDate   string   `json:"service_date"`
	PickupPoint   string   `json:"pickup_point"`
	Destination   string   `json:"destination"`
	ReservedBy    []string `json:"reserved_by"`
}

func NewRideHandler(ledgerSvc ledger.LedgerUseCase, matcherSvc matcher.MatcherUseCase, defaultWindow int, clock func() time.Time) *RideHandler {
	if clock == nil {
		clock = time.Now
	}
	if defaultWindow <= 0 {
		defaultWindow = domain.DefaultSearchWindowMinutes
	}
	return &RideHandler{ledger: ledgerSvc, matcher: matcherSvc, defaultWindow: defaultWindow, clock: clock}
}

func (h *RideHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.publish)
	router.GET("/search", h.search)
	router.GET("/candidates", h.candidates)
	router.GET("/mine", h.mine)
	router.GET("/booked", h.booked)
	router.GET("/can-publish", h.canPublish)
}

// publish owns the form-level validation (plate format, seat bounds
// per vehicle kind, time format); the ledger owns the scheduling
// conflicts.
func (h *RideHandler) publish(c *gin.Context) {
	var req publishRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := domain.VehicleKind(req.VehicleKind)
	switch kind {
	case domain.VehicleKindBike:
		if req.TotalSeats != domain.BikeSeats {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a bike ride has exactly 1 seat"})
			return
		}
	case domain.VehicleKindCar:
		if req.TotalSeats < domain.CarSeatsMin || req.TotalSeats > domain.CarSeatsMax {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a car ride has between 1 and 7 seats"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "vehicle kind must be Bike or Car"})
		return
	}

	if !vehicleTagPattern.MatchString(req.VehicleTag) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle number format"})
		return
	}
	if req.PickupPoint == "" || req.Destination == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pickup point and destination are required"})
		return
	}

	departure, err := domain.ParseTimeOfDay(req.Time)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ride, err := h.ledger.Publish(c.Request.Context(), ledger.PublishRideInput{
		OwnerID:       currentEmployeeID(c),
		VehicleKind:   kind,
		VehicleTag:    req.VehicleTag,
		TotalSeats:    req.TotalSeats,
		DepartureTime: departure,
		ServiceDate:   domain.DayOf(h.clock()),
		PickupPoint:   req.PickupPoint,
		Destination:   req.Destination,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toRideResponse(ride))
}

func (h *RideHandler) list(c *gin.Context) {
	rides, err := h.matcher.OpenRides(c.Request.Context(), domain.DayOf(h.clock()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideResponses(rides))
}

func (h *RideHandler) search(c *gin.Context) {
	var (
		searchTime *domain.TimeOfDay
		kind       *domain.VehicleKind
	)
	if raw := c.Query("time"); raw != "" {
		parsed, err := domain.ParseTimeOfDay(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		searchTime = &parsed
	}
	if raw := c.Query("kind"); raw != "" {
		k := domain.VehicleKind(raw)
		if k != domain.VehicleKindBike && k != domain.VehicleKindCar {
			c.JSON(http.StatusBadRequest, gin.H{"error": "vehicle kind must be Bike or Car"})
			return
		}
		kind = &k
	}

	rides, err := h.matcher.Search(c.Request.Context(), domain.DayOf(h.clock()), searchTime, kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideResponses(rides))
}

func (h *RideHandler) candidates(c *gin.Context) {
	window := h.defaultWindow
	if raw := c.Query("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window"})
			return
		}
		window = parsed
	}

	now := h.clock()
	rides, err := h.matcher.CandidatesFor(c.Request.Context(), currentEmployeeID(c), domain.DayOf(now), domain.TimeOfDayFrom(now), window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideResponses(rides))
}

func (h *RideHandler) mine(c *gin.Context) {
	rides, err := h.ledger.MyRides(c.Request.Context(), currentEmployeeID(c), domain.DayOf(h.clock()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideResponses(rides))
}

func (h *RideHandler) booked(c *gin.Context) {
	rides, err := h.matcher.BookedRides(c.Request.Context(), currentEmployeeID(c), domain.DayOf(h.clock()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideResponses(rides))
}

func (h *RideHandler) canPublish(c *gin.Context) {
	can, err := h.ledger.CanPublishToday(c.Request.Context(), currentEmployeeID(c), domain.DayOf(h.clock()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"can_publish": can})
}

func toRideResponse(ride *domain.Ride) rideResponse {
	return rideResponse{
		ID:            ride.ID,
		OwnerID:       ride.OwnerID,
		VehicleKind:   string(ride.VehicleKind),
		VehicleTag:    ride.VehicleTag,
		VacantSeats:   ride.TotalSeats,
		DepartureTime: ride.DepartureTime.String(),
		ServiceDate:   ride.ServiceDate.String(),
		PickupPoint:   ride.PickupPoint,
		Destination:   ride.Destination,
		ReservedBy:    ride.ReservedBy,
	}
}

func toRideResponses(rides []domain.Ride) []rideResponse {
	out := make([]rideResponse, 0, len(rides))
	for i := range rides {
		out = append(out, toRideResponse(&rides[i]))
	}
	return out
}
