package domain

import "time"

type VehicleKind string

const (
	VehicleKindBike VehicleKind = "Bike"
	VehicleKindCar  VehicleKind = "Car"
)

const (
	BikeSeats   = 1
	CarSeatsMin = 1
	CarSeatsMax = 7
)

// Ride is one employee's transport offer for a single service date.
// TotalSeats counts the remaining vacant seats, not the original
// capacity; the original capacity is TotalSeats + len(ReservedBy).
type Ride struct {
	ID            string
	OwnerID       string
	VehicleKind   VehicleKind
	VehicleTag    string
	TotalSeats    int
	DepartureTime TimeOfDay
	ServiceDate   Day
	PickupPoint   string
	Destination   string
	ReservedBy    []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *Ride) IsOpen() bool {
	return r.TotalSeats > 0
}

func (r *Ride) HasReserved(employeeID string) bool {
	for _, id := range r.ReservedBy {
		if id == employeeID {
			return true
		}
	}
	return false
}
