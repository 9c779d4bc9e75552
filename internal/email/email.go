package email

import (
	"context"
	"fmt"

	"github.com/Ravi1548/Transport-Facility/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.RideEvent) error {
	fmt.Printf("notify %s about %s for ride %s at %s\n", event.EmployeeID, event.Type, event.RideID, event.DepartureTime)
	return nil
}
