package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents a customer account. Order placement only requires
// existence and the active flag; credentials are handled elsewhere.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
