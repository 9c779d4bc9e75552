package domain

import "time"

// Employee is created implicitly the first time an identifier logs in.
type Employee struct {
	ID          string
	DisplayName string
	CreatedAt   time.Time
}
