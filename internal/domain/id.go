package domain

import "github.com/google/uuid"

// NewID generates a UUIDv7 string for application-owned entities such as
// pipeline runs. Version 7 sorts chronologically, which keeps run listings
// cheap to order.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
