package api

import (
	"errors"
	"net/http"

	"github.com/Ravi1548/Transport-Facility/internal/service/ledger"
	"github.com/Ravi1548/Transport-Facility/internal/service/matcher"
	"github.com/gin-gonic/gin"
)

// respondError maps engine rejections to 4xx with their reason and
// everything else (storage faults included) to one generic 500, so no
// internal detail leaks and every failure stays retryable.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, matcher.ErrRideNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrAlreadyPublished),
		errors.Is(err, ledger.ErrTimeConflict),
		errors.Is(err, ledger.ErrVehicleTagTaken),
		errors.Is(err, matcher.ErrOwnRide),
		errors.Is(err, matcher.ErrAlreadyReserved),
		errors.Is(err, matcher.ErrNoSeats),
		errors.Is(err, matcher.ErrTimeConflict),
		errors.Is(err, matcher.ErrNotReserved):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, matcher.ErrRideBusy):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error performing operation"})
	}
}
