package domain

import "time"

// Booking is the audit record of one reservation event. It is written
// together with the ride mutation and removed again on cancellation.
type Booking struct {
	ID          int64
	RideID      string
	EmployeeID  string
	BookingDate Day
	CreatedAt   time.Time
}
