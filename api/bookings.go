package api

import (
	"net/http"
	"time"

	"github.com/Ravi1548/Transport-Facility/internal/domain"
	"github.com/Ravi1548/Transport-Facility/internal/service/matcher"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	matcher matcher.MatcherUseCase
	clock   func() time.Time
}

func NewBookingHandler(matcherSvc matcher.MatcherUseCase, clock func() time.Time) *BookingHandler {
	if clock == nil {
		clock = time.Now
	}
	return &BookingHandler{matcher: matcherSvc, clock: clock}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/:id/reservation", h.reserve)
	router.DELETE("/:id/reservation", h.cancel)
}

func (h *BookingHandler) reserve(c *gin.Context) {
	rideID := c.Param("id")
	ride, err := h.matcher.Reserve(c.Request.Context(), rideID, currentEmployeeID(c), domain.DayOf(h.clock()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideResponse(ride))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	rideID := c.Param("id")
	if err := h.matcher.Cancel(c.Request.Context(), rideID, currentEmployeeID(c), domain.DayOf(h.clock())); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking cancelled"})
}
